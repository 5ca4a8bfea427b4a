package web

import (
	"html/template"

	"liquid/internal/session"
)

type pageData struct {
	Configured  bool
	DisplayName string
	Busy        bool
	Entries     []session.Entry
	Title       string
	Tint        string
	Tool        template.HTML
	Notice      string
	Error       string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}} · {{end}}Liquid OS</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; min-height: 100vh; }
.chat { width: 22rem; border-right: 1px solid #ddd; padding: 1rem; display: flex; flex-direction: column; }
.log { flex: 1; overflow-y: auto; }
.entry { margin: 0.5rem 0; }
.entry.user { text-align: right; color: #333; }
.entry.assistant { color: #0a4; }
.stage { flex: 1; padding: 1rem; }
.notice { background: #fff5d6; padding: 0.5rem; }
.error { background: #fde2e2; padding: 0.5rem; }
.atom-error { color: #b00; font-family: monospace; }
</style>
</head>
<body>
{{if not .Configured}}
<main class="stage">
<h1>Welcome to Liquid OS</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/setup">
<p><label>Your name <input name="display_name" required></label></p>
<p><label>Gemini API key <input name="api_key" type="password" autocomplete="off"></label></p>
<p><button type="submit">Start</button></p>
</form>
</main>
{{else}}
<aside class="chat">
<div class="log">
{{range .Entries}}<div class="entry {{.Role}}">{{.Text}}</div>
{{else}}<p>Hi {{.DisplayName}}. Ask for a tool to get started.</p>
{{end}}
{{if .Busy}}<div class="entry assistant">Thinking…</div>{{end}}
</div>
<form method="post" action="/chat">
<input name="text" autocomplete="off" placeholder="Ask for a tool" style="width: 100%">
</form>
<form method="post" action="/reset"><button type="submit">Reset settings</button></form>
</aside>
<main class="stage"{{if .Tint}} style="border-top: 4px solid {{.Tint}}"{{end}}>
{{if .Title}}<h1>{{.Title}}</h1>{{end}}
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{.Tool}}
</main>
{{end}}
</body>
</html>
`))

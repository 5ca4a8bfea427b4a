package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"

	"liquid/internal/atom"
)

// HTMLOptions controls how activations are wired into generated markup.
type HTMLOptions struct {
	// ActionURL receives a POST with the element path in PathField when a
	// button is pressed. Buttons render inert when it is empty.
	ActionURL string
	PathField string
}

// WriteHTML writes escaped markup for the elements.
func WriteHTML(w io.Writer, elements []Element, opts HTMLOptions) error {
	if opts.PathField == "" {
		opts.PathField = "path"
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(`<div class="atom-engine-viewport">`)
	for _, element := range elements {
		writeElementHTML(bw, element, opts)
	}
	bw.WriteString(`</div>`)
	return bw.Flush()
}

func writeElementHTML(w *bufio.Writer, element Element, opts HTMLOptions) {
	esc := html.EscapeString
	path := esc(element.Path)

	switch element.Kind {
	case atom.KindHero:
		fmt.Fprintf(w, `<div class="atom atom-hero" data-path="%s"%s>`, path, tint(element.Color, "background-color"))
		if element.Icon != "" {
			fmt.Fprintf(w, `<span class="atom-icon">%s</span>`, esc(element.Icon))
		}
		fmt.Fprintf(w, `<p>%s</p><h1>%s</h1></div>`, esc(element.Label), esc(element.Value))

	case atom.KindButton:
		if opts.ActionURL == "" || element.Action == nil {
			fmt.Fprintf(w, `<button class="atom atom-button" data-path="%s" type="button"%s>%s</button>`, path, tint(element.Color, "background-color"), esc(element.Label))
			return
		}
		fmt.Fprintf(w, `<form class="atom-action" method="post" action="%s">`, esc(opts.ActionURL))
		fmt.Fprintf(w, `<input type="hidden" name="%s" value="%s">`, esc(opts.PathField), path)
		fmt.Fprintf(w, `<button class="atom atom-button" data-path="%s" type="submit"%s>%s</button></form>`, path, tint(element.Color, "background-color"), esc(element.Label))

	case atom.KindBox:
		flex := "column"
		if element.Direction == Horizontal {
			flex = "row"
		}
		fmt.Fprintf(w, `<div class="atom atom-box" data-path="%s" style="display:flex;flex-direction:%s;gap:10px">`, path, flex)
		if element.Label != "" {
			fmt.Fprintf(w, `<h3>%s</h3>`, esc(element.Label))
		}
		for _, child := range element.Children {
			writeElementHTML(w, child, opts)
		}
		w.WriteString(`</div>`)

	case atom.KindInput:
		fmt.Fprintf(w, `<label class="atom atom-input" data-path="%s">%s <input type="text" placeholder="%s"></label>`, path, esc(element.Label), esc(element.Placeholder))

	case atom.KindText:
		fmt.Fprintf(w, `<p class="atom atom-text" data-path="%s"%s>%s</p>`, path, tint(element.Color, "color"), esc(element.Label))

	case atom.KindSlider:
		fmt.Fprintf(w, `<label class="atom atom-slider" data-path="%s">%s <input type="range" min="%s" max="%s" value="%s" disabled> <output>%s</output></label>`,
			path, esc(element.Label), formatFloat(element.Min), formatFloat(element.Max), formatFloat(element.Number), esc(element.Value))

	case atom.KindStatus:
		fmt.Fprintf(w, `<div class="atom atom-status" data-path="%s"%s>`, path, tint(element.Color, "border-color"))
		if element.Icon != "" {
			fmt.Fprintf(w, `<span class="atom-icon">%s</span>`, esc(element.Icon))
		}
		fmt.Fprintf(w, `<span class="atom-status-label">%s</span> <strong>%s</strong></div>`, esc(element.Label), esc(element.Value))

	case atom.KindList:
		fmt.Fprintf(w, `<div class="atom atom-list" data-path="%s"><h3>%s</h3>`, path, esc(element.Label))
		if len(element.Items) > 0 {
			w.WriteString(`<ul>`)
			for _, item := range element.Items {
				fmt.Fprintf(w, `<li>%s</li>`, esc(item))
			}
			w.WriteString(`</ul>`)
		} else if element.Value != "" {
			fmt.Fprintf(w, `<p>%s</p>`, esc(element.Value))
		}
		w.WriteString(`</div>`)

	case KindError:
		fmt.Fprintf(w, `<div class="atom atom-error" data-path="%s" role="alert">%s</div>`, path, esc(element.Error))
	}
}

// tint emits a style attribute for a color that already passed the color
// pattern check in the renderer.
func tint(color, property string) string {
	if color == "" {
		return ""
	}
	return fmt.Sprintf(` style="%s:%s"`, property, html.EscapeString(color))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

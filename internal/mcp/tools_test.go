package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"liquid/internal/render"
	"liquid/internal/script"
	"liquid/internal/session"
	"liquid/internal/store"
)

type mockChatter struct {
	entry    session.Entry
	err      error
	view     session.View
	lastText string
}

func (m *mockChatter) Submit(ctx context.Context, text string) (session.Entry, error) {
	m.lastText = text
	return m.entry, m.err
}

func (m *mockChatter) View() session.View {
	return m.view
}

type mockHistory struct {
	records  []store.Record
	err      error
	lastOpts store.ListOptions
}

func (m *mockHistory) List(ctx context.Context, opts store.ListOptions) ([]store.Record, error) {
	m.lastOpts = opts
	return m.records, m.err
}

func layoutOf(t *testing.T, doc string) []any {
	t.Helper()
	var layout []any
	if err := json.Unmarshal([]byte(doc), &layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	return layout
}

func TestExtractResponse(t *testing.T) {
	server := NewServer(Options{})

	text := "Sure!\n```json\n{\"chat\":\"Counter ready\",\"tool\":{\"state\":{\"count\":3},\"layout\":[{\"type\":\"hero\",\"props\":{\"value\":\"{count}\"}}]}}\n```"
	_, output, err := server.handleExtractResponse(context.Background(), nil, ExtractResponseInput{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Chat != "Counter ready" || !output.HasTool {
		t.Fatalf("unexpected output: %+v", output)
	}
	if output.State["count"] != 3.0 || len(output.Layout) != 1 {
		t.Fatalf("unexpected tool output: %+v", output)
	}

	_, _, err = server.handleExtractResponse(context.Background(), nil, ExtractResponseInput{Text: "no json here"})
	if err == nil {
		t.Fatalf("expected extraction error")
	}

	_, _, err = server.handleExtractResponse(context.Background(), nil, ExtractResponseInput{Text: " "})
	if err == nil {
		t.Fatalf("expected error for blank text")
	}
}

func TestExtractResponseLegacyElements(t *testing.T) {
	server := NewServer(Options{})
	text := `{"chat_reply":"hi","ui":{"title":"Timer","color":"blue"},"elements":[{"type":"status","label":"On"}]}`
	_, output, err := server.handleExtractResponse(context.Background(), nil, ExtractResponseInput{Text: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Chat != "hi" || output.Header == nil || output.Header.Title != "Timer" || len(output.Layout) != 1 {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestRenderLayout(t *testing.T) {
	server := NewServer(Options{})
	layout := layoutOf(t, `[{"type":"hero","props":{"label":"Count","value":"{count}"}},{"type":"nope"},"broken"]`)

	_, output, err := server.handleRenderLayout(context.Background(), nil, RenderLayoutInput{Layout: layout, State: map[string]any{"count": 7.0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Format != "text" || !strings.Contains(output.Rendering, "[hero] Count: 7") {
		t.Fatalf("unexpected rendering: %+v", output)
	}
	if output.Elements != 2 || output.Errors != 1 {
		t.Fatalf("expected 2 elements with 1 error, got %+v", output)
	}

	_, output, err = server.handleRenderLayout(context.Background(), nil, RenderLayoutInput{Layout: layout, State: map[string]any{"count": 7.0}, Format: "HTML"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Format != "html" || !strings.Contains(output.Rendering, "atom-engine-viewport") {
		t.Fatalf("unexpected html rendering: %+v", output)
	}

	if _, _, err := server.handleRenderLayout(context.Background(), nil, RenderLayoutInput{Layout: layout, Format: "pdf"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, _, err := server.handleRenderLayout(context.Background(), nil, RenderLayoutInput{}); err == nil {
		t.Fatalf("expected error for missing layout")
	}
}

func TestApplyScript(t *testing.T) {
	server := NewServer(Options{})

	_, output, err := server.handleApplyScript(context.Background(), nil, ApplyScriptInput{
		State:  map[string]any{"count": 1.0},
		Script: ScriptInput{Cmd: "subtract", Key: "count", Val: 5.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.State["count"] != -4.0 || !output.Changed {
		t.Fatalf("unexpected output: %+v", output)
	}

	_, output, err = server.handleApplyScript(context.Background(), nil, ApplyScriptInput{
		State:  map[string]any{"count": 1.0},
		Script: ScriptInput{Cmd: "explode", Key: "count"},
	})
	if err != nil || output.Changed {
		t.Fatalf("expected unknown command to be a no-op, got %+v %v", output, err)
	}

	_, _, err = server.handleApplyScript(context.Background(), nil, ApplyScriptInput{Script: ScriptInput{Cmd: "add", Val: 1.0}})
	if !errors.Is(err, script.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestValidateLayout(t *testing.T) {
	server := NewServer(Options{})
	layout := layoutOf(t, `[{"type":"text","props":{"label":"{missing}"}},{"type":"button","action":{"cmd":"set","val":1}}]`)

	_, output, err := server.handleValidateLayout(context.Background(), nil, ValidateLayoutInput{Layout: layout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Valid || len(output.Issues) != 2 {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestChat(t *testing.T) {
	unconfigured := NewServer(Options{})
	if _, _, err := unconfigured.handleChat(context.Background(), nil, ChatInput{Text: "hi"}); err == nil {
		t.Fatalf("expected error without a chat session")
	}

	chat := &mockChatter{
		entry: session.Entry{Role: session.RoleAssistant, Text: "Here is a counter", ToolID: "t1"},
		view: session.View{ToolID: "t1", Elements: []render.Element{
			{Kind: "hero", Path: "0", Label: "Count", Value: "0"},
		}},
	}
	server := NewServer(Options{Chat: chat})

	_, output, err := server.handleChat(context.Background(), nil, ChatInput{Text: "counter please"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chat.lastText != "counter please" {
		t.Fatalf("unexpected submitted text %q", chat.lastText)
	}
	if output.Reply != "Here is a counter" || output.ToolID != "t1" || !strings.Contains(output.Rendering, "[hero] Count: 0") {
		t.Fatalf("unexpected chat output: %+v", output)
	}
}

func TestListHistory(t *testing.T) {
	unconfigured := NewServer(Options{})
	if _, _, err := unconfigured.handleListHistory(context.Background(), nil, ListHistoryInput{}); err == nil {
		t.Fatalf("expected error without a store")
	}

	history := &mockHistory{records: []store.Record{{
		ID:        "r1",
		SessionID: "s1",
		State:     json.RawMessage(`{"chat":"hi"}`),
		Digest:    "abc",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	server := NewServer(Options{History: history})

	_, output, err := server.handleListHistory(context.Background(), nil, ListHistoryInput{SessionID: "s1", Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Records) != 1 || output.Records[0].State != `{"chat":"hi"}` || output.Records[0].Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected history output: %+v", output)
	}
	if history.lastOpts.SessionID != "s1" || history.lastOpts.Limit != 5 {
		t.Fatalf("unexpected list params %+v", history.lastOpts)
	}
}

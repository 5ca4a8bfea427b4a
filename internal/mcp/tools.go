package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"liquid/internal/atom"
	"liquid/internal/extract"
	"liquid/internal/render"
	"liquid/internal/store"
	"liquid/internal/validate"
)

type ExtractResponseInput struct {
	Text string `json:"text" jsonschema:"raw model output containing one JSON object"`
}

type RenderLayoutInput struct {
	Layout []any          `json:"layout" jsonschema:"array of atom nodes"`
	State  map[string]any `json:"state,omitempty" jsonschema:"tool state used for data binding"`
	Format string         `json:"format,omitempty" jsonschema:"text or html, defaults to text"`
}

type ScriptInput struct {
	Cmd string `json:"cmd" jsonschema:"add, subtract or set"`
	Key string `json:"key" jsonschema:"state key to change"`
	Val any    `json:"val,omitempty" jsonschema:"operand or new value"`
}

type ApplyScriptInput struct {
	State  map[string]any `json:"state,omitempty" jsonschema:"current tool state"`
	Script ScriptInput    `json:"script" jsonschema:"script to run"`
}

type ValidateLayoutInput struct {
	Layout []any          `json:"layout" jsonschema:"array of atom nodes"`
	State  map[string]any `json:"state,omitempty" jsonschema:"tool state used to resolve placeholders"`
}

type ChatInput struct {
	Text string `json:"text" jsonschema:"message to send to the model"`
}

type ListHistoryInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"restrict to one session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum records, newest first"`
}

type HeaderOutput struct {
	Title string `json:"title,omitempty"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type ExtractResponseOutput struct {
	Chat    string         `json:"chat"`
	HasTool bool           `json:"has_tool"`
	State   map[string]any `json:"state,omitempty"`
	Layout  []any          `json:"layout,omitempty"`
	Header  *HeaderOutput  `json:"header,omitempty"`
}

type RenderLayoutOutput struct {
	Format    string `json:"format"`
	Rendering string `json:"rendering"`
	Elements  int    `json:"elements"`
	Errors    int    `json:"errors"`
}

type ApplyScriptOutput struct {
	State   map[string]any `json:"state"`
	Changed bool           `json:"changed"`
}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path"`
}

type ValidateLayoutOutput struct {
	Valid  bool          `json:"valid"`
	Issues []IssueOutput `json:"issues"`
}

type ChatOutput struct {
	Reply     string `json:"reply"`
	ToolID    string `json:"tool_id,omitempty"`
	Rendering string `json:"rendering,omitempty"`
}

type HistoryRecordOutput struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Digest    string `json:"digest"`
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
}

type ListHistoryOutput struct {
	Records []HistoryRecordOutput `json:"records"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "extract_response",
		Description: "Recover the JSON reply embedded in raw model output",
	}, s.handleExtractResponse)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "render_layout",
		Description: "Render an atom layout against a state as text or HTML",
	}, s.handleRenderLayout)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "apply_script",
		Description: "Run an add, subtract or set script against a state",
	}, s.handleApplyScript)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_layout",
		Description: "Report unknown types, malformed nodes and unbound placeholders in a layout",
	}, s.handleValidateLayout)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "chat",
		Description: "Send a message to the model and return its reply and rendered tool",
	}, s.handleChat)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_history",
		Description: "List logged model payloads, newest first",
	}, s.handleListHistory)
}

func (s *Server) handleExtractResponse(ctx context.Context, req *sdk.CallToolRequest, input ExtractResponseInput) (*sdk.CallToolResult, ExtractResponseOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ExtractResponseOutput{}, fmt.Errorf("text is required")
	}
	reply, err := extract.Decode(input.Text)
	if err != nil {
		return nil, ExtractResponseOutput{}, err
	}

	out := ExtractResponseOutput{Chat: reply.Chat}
	if reply.Header != nil {
		out.Header = &HeaderOutput{Title: reply.Header.Title, Color: reply.Header.Color, Icon: reply.Header.Icon}
	}
	if reply.Tool != nil {
		out.HasTool = true
		out.State = reply.Tool.State.Map()
		layout, err := toolLayout(reply.Raw)
		if err != nil {
			return nil, ExtractResponseOutput{}, err
		}
		out.Layout = layout
	}
	return nil, out, nil
}

// toolLayout returns the layout array of a reply as generic JSON values.
func toolLayout(raw json.RawMessage) ([]any, error) {
	var doc struct {
		Tool *struct {
			Layout json.RawMessage `json:"layout"`
		} `json:"tool"`
		Elements json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}
	source := doc.Elements
	if doc.Tool != nil {
		source = doc.Tool.Layout
	}
	var layout []any
	if err := json.Unmarshal(source, &layout); err != nil {
		return []any{}, nil
	}
	return layout, nil
}

func (s *Server) handleRenderLayout(ctx context.Context, req *sdk.CallToolRequest, input RenderLayoutInput) (*sdk.CallToolResult, RenderLayoutOutput, error) {
	nodes, state, err := decodeLayout(input.Layout, input.State)
	if err != nil {
		return nil, RenderLayoutOutput{}, err
	}
	elements := s.walker.Render(nodes, state)

	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = "text"
	}
	var buf bytes.Buffer
	switch format {
	case "text":
		err = render.WriteText(&buf, elements)
	case "html":
		err = render.WriteHTML(&buf, elements, render.HTMLOptions{})
	default:
		return nil, RenderLayoutOutput{}, fmt.Errorf("unknown format %q, expected text or html", input.Format)
	}
	if err != nil {
		return nil, RenderLayoutOutput{}, err
	}

	out := RenderLayoutOutput{Format: format, Rendering: buf.String()}
	render.Walk(elements, func(element render.Element) {
		out.Elements++
		if element.Kind == render.KindError {
			out.Errors++
		}
	})
	return nil, out, nil
}

func (s *Server) handleApplyScript(ctx context.Context, req *sdk.CallToolRequest, input ApplyScriptInput) (*sdk.CallToolResult, ApplyScriptOutput, error) {
	state, err := decodeState(input.State)
	if err != nil {
		return nil, ApplyScriptOutput{}, err
	}
	action := atom.Action{Script: &atom.Script{
		Cmd: atom.Command(input.Script.Cmd),
		Key: input.Script.Key,
		Val: input.Script.Val,
	}}

	next, err := s.interpreter.Apply(state, action)
	if err != nil {
		return nil, ApplyScriptOutput{}, err
	}
	return nil, ApplyScriptOutput{State: next.Map(), Changed: !next.Equal(state)}, nil
}

func (s *Server) handleValidateLayout(ctx context.Context, req *sdk.CallToolRequest, input ValidateLayoutInput) (*sdk.CallToolResult, ValidateLayoutOutput, error) {
	nodes, state, err := decodeLayout(input.Layout, input.State)
	if err != nil {
		return nil, ValidateLayoutOutput{}, err
	}
	report := validate.Layout(nodes, state)

	out := ValidateLayoutOutput{
		Valid:  len(report.Errors()) == 0,
		Issues: make([]IssueOutput, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Path:     issue.Path,
		})
	}
	return nil, out, nil
}

func (s *Server) handleChat(ctx context.Context, req *sdk.CallToolRequest, input ChatInput) (*sdk.CallToolResult, ChatOutput, error) {
	if s.chat == nil {
		return nil, ChatOutput{}, fmt.Errorf("chat is not configured, run liquid setup first")
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, ChatOutput{}, fmt.Errorf("text is required")
	}
	entry, err := s.chat.Submit(ctx, input.Text)
	if err != nil {
		return nil, ChatOutput{}, err
	}

	out := ChatOutput{Reply: entry.Text, ToolID: entry.ToolID}
	if view := s.chat.View(); view.ToolID != "" {
		var buf bytes.Buffer
		if err := render.WriteText(&buf, view.Elements); err != nil {
			return nil, ChatOutput{}, err
		}
		out.Rendering = buf.String()
	}
	return nil, out, nil
}

func (s *Server) handleListHistory(ctx context.Context, req *sdk.CallToolRequest, input ListHistoryInput) (*sdk.CallToolResult, ListHistoryOutput, error) {
	if s.history == nil {
		return nil, ListHistoryOutput{}, fmt.Errorf("history store is not configured")
	}
	records, err := s.history.List(ctx, store.ListOptions{SessionID: input.SessionID, Limit: input.Limit})
	if err != nil {
		return nil, ListHistoryOutput{}, err
	}

	out := ListHistoryOutput{Records: make([]HistoryRecordOutput, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, HistoryRecordOutput{
			ID:        rec.ID,
			SessionID: rec.SessionID,
			Digest:    rec.Digest,
			Timestamp: rec.Timestamp.Format(time.RFC3339Nano),
			State:     string(rec.State),
		})
	}
	return nil, out, nil
}

func decodeLayout(layout []any, state map[string]any) ([]atom.Node, atom.State, error) {
	if layout == nil {
		return nil, atom.State{}, fmt.Errorf("layout is required")
	}
	data, err := json.Marshal(layout)
	if err != nil {
		return nil, atom.State{}, fmt.Errorf("encoding layout: %w", err)
	}
	nodes, err := atom.ParseLayout(data)
	if err != nil {
		return nil, atom.State{}, err
	}
	decoded, err := decodeState(state)
	if err != nil {
		return nil, atom.State{}, err
	}
	return nodes, decoded, nil
}

func decodeState(state map[string]any) (atom.State, error) {
	if len(state) == 0 {
		return atom.State{}, nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return atom.State{}, fmt.Errorf("encoding state: %w", err)
	}
	return atom.ParseState(data)
}

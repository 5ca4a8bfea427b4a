package extract

import (
	"encoding/json"
	"fmt"

	"liquid/internal/atom"
)

// Header is the optional title bar some model replies carry alongside
// their elements.
type Header struct {
	Title string `json:"title,omitempty"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Tool is a generated interface: its initial state and its layout.
type Tool struct {
	State  atom.State
	Layout []atom.Node
}

// Reply is the decoded conversational response.
type Reply struct {
	Chat   string
	Tool   *Tool
	Header *Header
	Raw    json.RawMessage
}

// Decode extracts and decodes a conversational reply from model output.
func Decode(text string) (*Reply, error) {
	doc, err := Extract(text)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(doc)
}

// DecodeDocument decodes an already extracted JSON object. Sections with the
// wrong shape degrade to empty values rather than failing the reply.
func DecodeDocument(doc json.RawMessage) (*Reply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, &Failure{Reason: ReasonInvalidJSON, Snippet: snippet(string(doc)), Cause: fmt.Errorf("reply is not an object: %w", err)}
	}

	reply := &Reply{Raw: doc}
	reply.Chat = firstString(fields, "chat", "chat_reply", "reply")

	if rawTool, ok := fields["tool"]; ok && !isNull(rawTool) {
		reply.Tool = decodeTool(rawTool)
	} else if rawElements, ok := fields["elements"]; ok && !isNull(rawElements) {
		layout, _ := atom.ParseLayout(rawElements)
		state, _ := atom.ParseState(fields["state"])
		reply.Tool = &Tool{State: state, Layout: layout}
	}

	if rawHeader, ok := fields["ui"]; ok && !isNull(rawHeader) {
		var header Header
		if err := json.Unmarshal(rawHeader, &header); err == nil {
			reply.Header = &header
		}
	}

	return reply, nil
}

func decodeTool(raw json.RawMessage) *Tool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	state, err := atom.ParseState(fields["state"])
	if err != nil {
		state = atom.State{}
	}
	layout, err := atom.ParseLayout(fields["layout"])
	if err != nil {
		layout = nil
	}
	return &Tool{State: state, Layout: layout}
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil {
			return value
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

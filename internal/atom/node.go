package atom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed atom")

// Node is one atom of a layout. Nodes with Err set failed to decode and
// render as an inline error; nodes of KindUnknown render as nothing.
type Node struct {
	Kind     Kind
	Type     string
	Props    map[string]any
	Children []Node
	Action   Action
	Err      error
}

// Command names a Script operation.
type Command string

const (
	CmdAdd      Command = "add"
	CmdSubtract Command = "subtract"
	CmdSet      Command = "set"
)

// Script is a structured state mutation attached to an interactive atom.
type Script struct {
	Cmd Command `json:"cmd"`
	Key string  `json:"key"`
	Val any     `json:"val"`
}

// Action is what a button hands back when it is activated: an opaque id,
// a Script, or nothing.
type Action struct {
	ID     string
	Script *Script
}

func (a Action) IsZero() bool {
	return a.ID == "" && a.Script == nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	switch {
	case a.Script != nil:
		return json.Marshal(a.Script)
	case a.ID != "":
		return json.Marshal(a.ID)
	default:
		return []byte("null"), nil
	}
}

func (a *Action) UnmarshalJSON(data []byte) error {
	*a = ParseAction(data)
	return nil
}

// ParseAction decodes an action value. Strings become ids, objects become
// scripts, null becomes the zero Action. Any other JSON is kept as an id.
func ParseAction(raw json.RawMessage) Action {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Action{}
	}
	switch trimmed[0] {
	case '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return Action{ID: string(trimmed)}
		}
		return Action{ID: id}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return Action{ID: string(trimmed)}
		}
		script := &Script{}
		var cmd string
		if err := json.Unmarshal(fields["cmd"], &cmd); err == nil {
			script.Cmd = Command(cmd)
		}
		var key string
		if err := json.Unmarshal(fields["key"], &key); err == nil {
			script.Key = key
		}
		if rawVal, ok := fields["val"]; ok {
			var val any
			if err := json.Unmarshal(rawVal, &val); err == nil {
				script.Val = val
			}
		}
		return Action{Script: script}
	default:
		return Action{ID: string(trimmed)}
	}
}

// ParseLayout decodes an ordered sequence of atoms. Only a non-array
// document is an error; individual elements never fail to decode.
func ParseLayout(data []byte) ([]Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}
	nodes := make([]Node, 0, len(elements))
	for _, element := range elements {
		nodes = append(nodes, ParseNode(element))
	}
	return nodes, nil
}

// ParseNode decodes one atom. Both the nested shape {type, props, action}
// and the flat shape {type, label, value, ...} are accepted; keys inside
// props take precedence over flat keys.
func ParseNode(raw json.RawMessage) Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Node{Kind: KindUnknown, Props: map[string]any{}}
	}
	if trimmed[0] != '{' {
		return Node{
			Kind:  KindUnknown,
			Props: map[string]any{},
			Err:   fmt.Errorf("%w: element is %s, want object", ErrMalformed, jsonKind(trimmed)),
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Node{Kind: KindUnknown, Props: map[string]any{}, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	var tag string
	_ = json.Unmarshal(fields["type"], &tag)
	node := Node{
		Kind:  ParseKind(tag),
		Type:  tag,
		Props: map[string]any{},
	}
	if node.Kind == KindUnknown {
		return node
	}

	for key, value := range fields {
		switch key {
		case "type", "props", "action", "children":
			continue
		}
		node.Props[key] = decodeValue(value)
	}

	actionRaw := fields["action"]
	childrenRaw := fields["children"]
	if propsRaw, ok := fields["props"]; ok && !isNull(propsRaw) {
		var props map[string]json.RawMessage
		if err := json.Unmarshal(propsRaw, &props); err != nil {
			node.Err = fmt.Errorf("%w: props is %s, want object", ErrMalformed, jsonKind(bytes.TrimSpace(propsRaw)))
			return node
		}
		for key, value := range props {
			switch key {
			case "children":
				if childrenRaw == nil {
					childrenRaw = value
				}
			case "action":
				if actionRaw == nil {
					actionRaw = value
				}
			default:
				node.Props[key] = decodeValue(value)
			}
		}
	}

	node.Action = ParseAction(actionRaw)

	if node.Kind == KindBox && childrenRaw != nil && !isNull(childrenRaw) {
		children, err := ParseLayout(childrenRaw)
		if err != nil {
			node.Err = fmt.Errorf("%w: children is %s, want array", ErrMalformed, jsonKind(bytes.TrimSpace(childrenRaw)))
			return node
		}
		node.Children = children
	}

	return node
}

func decodeValue(raw json.RawMessage) any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

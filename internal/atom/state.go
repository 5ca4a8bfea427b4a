package atom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// State is the variable bag owned by the active tool. Keys keep their
// insertion order. A State is never modified in place; With returns a copy.
type State struct {
	keys   []string
	values map[string]any
}

// StateOf builds a State from alternating key/value arguments.
func StateOf(pairs ...any) State {
	var s State
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		s = s.With(key, pairs[i+1])
	}
	return s
}

func (s State) Get(key string) (any, bool) {
	if s.values == nil {
		return nil, false
	}
	value, ok := s.values[key]
	return value, ok
}

func (s State) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s State) Len() int {
	return len(s.keys)
}

func (s State) With(key string, value any) State {
	next := State{
		keys:   make([]string, 0, len(s.keys)+1),
		values: make(map[string]any, len(s.keys)+1),
	}
	next.keys = append(next.keys, s.keys...)
	for k, v := range s.values {
		next.values[k] = v
	}
	if _, exists := next.values[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.values[key] = value
	return next
}

func (s State) Map() map[string]any {
	out := make(map[string]any, len(s.keys))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s State) Equal(other State) bool {
	if len(s.keys) != len(other.keys) {
		return false
	}
	for i, key := range s.keys {
		if other.keys[i] != key {
			return false
		}
		if !reflect.DeepEqual(s.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(s.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding state key %s: %w", key, err)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	decoded, err := ParseState(data)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// ParseState decodes a JSON object into a State, preserving key order.
// null and empty input decode to an empty State.
func ParseState(data []byte) (State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return State{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return State{}, fmt.Errorf("decoding state: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return State{}, fmt.Errorf("decoding state: expected object")
	}

	var s State
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return State{}, fmt.Errorf("decoding state: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return State{}, fmt.Errorf("decoding state: expected string key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return State{}, fmt.Errorf("decoding state key %s: %w", key, err)
		}
		s = s.With(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return State{}, fmt.Errorf("decoding state: %w", err)
	}
	return s, nil
}

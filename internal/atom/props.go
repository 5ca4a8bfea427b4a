package atom

import (
	"strconv"
	"strings"
)

func (n Node) Prop(key string) (any, bool) {
	if n.Props == nil {
		return nil, false
	}
	value, ok := n.Props[key]
	return value, ok
}

// Text returns the prop formatted as display text with placeholders bound
// against state. ok is false when the prop is absent, null, or composite.
func (n Node) Text(key string, state State) (string, bool) {
	value, ok := n.Prop(key)
	if !ok {
		return "", false
	}
	formatted, ok := FormatValue(value)
	if !ok {
		return "", false
	}
	return Bind(formatted, state), true
}

// TextOr is Text with a fallback for absent or empty props.
func (n Node) TextOr(key string, state State, fallback string) string {
	text, ok := n.Text(key, state)
	if !ok || strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}

// Number returns the prop as a float64, accepting numeric strings after binding.
func (n Node) Number(key string, state State) (float64, bool) {
	value, ok := n.Prop(key)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(Bind(v, state)), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

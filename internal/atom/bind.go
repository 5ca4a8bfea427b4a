package atom

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// Missing is substituted for placeholders that name no state variable.
const Missing = "…"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Bind replaces every {name} placeholder in s with the formatted state value.
func Bind(s string, state State) string {
	if len(s) < 3 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := state.Get(name)
		if !ok {
			return Missing
		}
		formatted, ok := FormatValue(value)
		if !ok {
			return Missing
		}
		return formatted
	})
}

// Placeholders lists the variable names referenced by s, in order of appearance.
func Placeholders(s string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}
	return names
}

// FormatValue renders a primitive as display text. Numbers use plain decimal
// notation. The second result is false for nil and composite values.
func FormatValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return v.String(), true
	default:
		return "", false
	}
}

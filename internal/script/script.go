package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"liquid/internal/atom"
)

var (
	ErrNoScript      = errors.New("no script attached")
	ErrMissingKey    = errors.New("script missing key")
	ErrUnknownAction = errors.New("unknown action")
	ErrNotNumeric    = errors.New("value is not numeric")
)

// Fallback interprets an action that is a bare string instead of a Script.
type Fallback func(state atom.State, action string) (atom.State, error)

// Interpreter applies actions to tool state. The zero value handles only
// structured scripts.
type Interpreter struct {
	Fallback Fallback
}

// Apply returns the state produced by the action. On error the input state
// is returned unchanged.
func (in Interpreter) Apply(state atom.State, action atom.Action) (atom.State, error) {
	switch {
	case action.Script != nil:
		return Run(state, *action.Script)
	case action.ID != "":
		if in.Fallback == nil {
			return state, fmt.Errorf("%w: %s", ErrUnknownAction, action.ID)
		}
		return in.Fallback(state, action.ID)
	default:
		return state, ErrNoScript
	}
}

// Run executes a structured script. Unknown commands are a no-op.
func Run(state atom.State, s atom.Script) (atom.State, error) {
	cmd := atom.Command(strings.ToLower(strings.TrimSpace(string(s.Cmd))))
	switch cmd {
	case atom.CmdAdd, atom.CmdSubtract, atom.CmdSet:
	default:
		return state, nil
	}

	key := strings.TrimSpace(s.Key)
	if key == "" {
		return state, ErrMissingKey
	}

	if cmd == atom.CmdSet {
		return state.With(key, s.Val), nil
	}

	current := 0.0
	if existing, ok := state.Get(key); ok && existing != nil {
		n, err := numeric(existing)
		if err != nil {
			return state, fmt.Errorf("state %s: %w", key, err)
		}
		current = n
	}
	operand, err := numeric(s.Val)
	if err != nil {
		return state, fmt.Errorf("operand for %s: %w", key, err)
	}

	if cmd == atom.CmdSubtract {
		return state.With(key, current-operand), nil
	}
	return state.With(key, current+operand), nil
}

func numeric(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, value)
	}
}

// KeywordFallback is the legacy string heuristic: an action mentioning
// "add" or "increment" bumps the first state variable by one.
func KeywordFallback(state atom.State, action string) (atom.State, error) {
	lowered := strings.ToLower(action)
	if !strings.Contains(lowered, "add") && !strings.Contains(lowered, "increment") {
		return state, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	keys := state.Keys()
	if len(keys) == 0 {
		return state, fmt.Errorf("%w: no state variable to increment", ErrUnknownAction)
	}
	return Run(state, atom.Script{Cmd: atom.CmdAdd, Key: keys[0], Val: 1.0})
}

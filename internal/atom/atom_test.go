package atom

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
	}{
		{"hero", KindHero},
		{"Button", KindButton},
		{" box ", KindBox},
		{"list", KindList},
		{"carousel", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.input); got != tt.expected {
			t.Fatalf("ParseKind(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseNode(t *testing.T) {
	t.Run("nested props", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"hero","props":{"label":"Balance","value":"{balance}","color":"#fff"}}`))
		if node.Err != nil {
			t.Fatalf("unexpected error: %v", node.Err)
		}
		if node.Kind != KindHero || node.Props["label"] != "Balance" {
			t.Fatalf("unexpected node: %+v", node)
		}
	})

	t.Run("flat props", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"box","direction":"row","children":[{"type":"button","label":"A"}]}`))
		if node.Err != nil {
			t.Fatalf("unexpected error: %v", node.Err)
		}
		if node.Props["direction"] != "row" {
			t.Fatalf("expected flat direction prop, got %+v", node.Props)
		}
		if len(node.Children) != 1 || node.Children[0].Props["label"] != "A" {
			t.Fatalf("unexpected children: %+v", node.Children)
		}
	})

	t.Run("props override flat keys", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"text","label":"flat","props":{"label":"nested"}}`))
		if node.Props["label"] != "nested" {
			t.Fatalf("expected nested label, got %v", node.Props["label"])
		}
	})

	t.Run("children inside props", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"box","props":{"children":[{"type":"text"},{"type":"text"}]}}`))
		if len(node.Children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(node.Children))
		}
		if _, ok := node.Props["children"]; ok {
			t.Fatalf("children should not remain in props")
		}
	})

	t.Run("missing props defaults to empty map", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"button"}`))
		if node.Props == nil || len(node.Props) != 0 {
			t.Fatalf("expected empty props, got %+v", node.Props)
		}
	})

	t.Run("props not an object", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"hero","props":"oops"}`))
		if !errors.Is(node.Err, ErrMalformed) {
			t.Fatalf("expected malformed error, got %v", node.Err)
		}
	})

	t.Run("children not an array", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"box","children":{"type":"text"}}`))
		if !errors.Is(node.Err, ErrMalformed) {
			t.Fatalf("expected malformed error, got %v", node.Err)
		}
	})

	t.Run("non-object element", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`42`))
		if !errors.Is(node.Err, ErrMalformed) {
			t.Fatalf("expected malformed error, got %v", node.Err)
		}
	})

	t.Run("null element is unknown", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`null`))
		if node.Kind != KindUnknown || node.Err != nil {
			t.Fatalf("unexpected node: %+v", node)
		}
	})

	t.Run("unknown type ignores bad props", func(t *testing.T) {
		node := ParseNode(json.RawMessage(`{"type":"carousel","props":7}`))
		if node.Kind != KindUnknown || node.Err != nil {
			t.Fatalf("unexpected node: %+v", node)
		}
	})
}

func TestParseAction(t *testing.T) {
	if action := ParseAction(json.RawMessage(`"open_settings"`)); action.ID != "open_settings" || action.Script != nil {
		t.Fatalf("unexpected id action: %+v", action)
	}
	action := ParseAction(json.RawMessage(`{"cmd":"add","key":"balance","val":50}`))
	if action.Script == nil || action.Script.Cmd != CmdAdd || action.Script.Key != "balance" || action.Script.Val != float64(50) {
		t.Fatalf("unexpected script action: %+v", action.Script)
	}
	if action := ParseAction(json.RawMessage(`null`)); !action.IsZero() {
		t.Fatalf("expected zero action, got %+v", action)
	}
	if action := ParseAction(nil); !action.IsZero() {
		t.Fatalf("expected zero action for missing value")
	}
	if action := ParseAction(json.RawMessage(`12`)); action.ID != "12" {
		t.Fatalf("expected raw id, got %+v", action)
	}
}

func TestParseLayout(t *testing.T) {
	nodes, err := ParseLayout([]byte(`[{"type":"hero"}, null, 3, {"type":"mystery"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}
	if nodes[2].Err == nil {
		t.Fatalf("expected element 2 to be malformed")
	}

	if _, err := ParseLayout([]byte(`{"type":"hero"}`)); err == nil {
		t.Fatalf("expected error for non-array layout")
	}
	if nodes, err := ParseLayout(nil); err != nil || nodes != nil {
		t.Fatalf("expected empty layout, got %v %v", nodes, err)
	}
}

func TestState(t *testing.T) {
	t.Run("copy on write", func(t *testing.T) {
		base := StateOf("count", 3.0)
		next := base.With("count", 4.0)
		if value, _ := base.Get("count"); value != 3.0 {
			t.Fatalf("base state mutated: %v", value)
		}
		if value, _ := next.Get("count"); value != 4.0 {
			t.Fatalf("unexpected next value: %v", value)
		}
	})

	t.Run("decoding preserves order", func(t *testing.T) {
		state, err := ParseState([]byte(`{"zeta":1,"alpha":"a","mid":2}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		keys := state.Keys()
		if len(keys) != 3 || keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "mid" {
			t.Fatalf("unexpected key order: %v", keys)
		}
		encoded, err := json.Marshal(state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(encoded) != `{"zeta":1,"alpha":"a","mid":2}` {
			t.Fatalf("unexpected encoding: %s", encoded)
		}
	})

	t.Run("null decodes empty", func(t *testing.T) {
		state, err := ParseState([]byte(`null`))
		if err != nil || state.Len() != 0 {
			t.Fatalf("expected empty state, got %v %v", state, err)
		}
	})

	t.Run("non-object is an error", func(t *testing.T) {
		if _, err := ParseState([]byte(`[1,2]`)); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("equal", func(t *testing.T) {
		if !StateOf("a", 1.0, "b", "x").Equal(StateOf("a", 1.0, "b", "x")) {
			t.Fatalf("expected equal states")
		}
		if StateOf("a", 1.0).Equal(StateOf("a", 2.0)) {
			t.Fatalf("expected different states")
		}
	})
}

func TestBind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		state    State
		expected string
	}{
		{"number", "{count}", StateOf("count", 3.0), "3"},
		{"negative", "{balance}", StateOf("balance", -50.0), "-50"},
		{"fraction", "{rate}", StateOf("rate", 0.25), "0.25"},
		{"large number is not scientific", "{n}", StateOf("n", 12000000.0), "12000000"},
		{"string", "Mode: {mode}", StateOf("mode", "active"), "Mode: active"},
		{"missing", "{count}", State{}, Missing},
		{"mixed", "{a}/{b}", StateOf("a", 1.0), "1/" + Missing},
		{"no placeholders", "plain", State{}, "plain"},
		{"not an identifier", "{ not bound }", State{}, "{ not bound }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bind(tt.input, tt.state); got != tt.expected {
				t.Fatalf("Bind(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders("{a} and {b_2} but not {3x}")
	if len(names) != 2 || names[0] != "a" || names[1] != "b_2" {
		t.Fatalf("unexpected placeholders: %v", names)
	}
}

func TestNodeText(t *testing.T) {
	node := ParseNode(json.RawMessage(`{"type":"hero","props":{"label":"Total","value":"{total}","max":"{limit}","blank":""}}`))
	state := StateOf("total", 12.5, "limit", "100")
	if text, ok := node.Text("value", state); !ok || text != "12.5" {
		t.Fatalf("unexpected value text: %q %v", text, ok)
	}
	if got := node.TextOr("missing", state, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := node.TextOr("blank", state, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank text, got %q", got)
	}
	if number, ok := node.Number("max", state); !ok || number != 100 {
		t.Fatalf("unexpected number: %v %v", number, ok)
	}
}

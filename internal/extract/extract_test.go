package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"liquid/internal/atom"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced json",
			input:    "Sure! ```json\n{\"chat\":\"hi\"}\n```",
			expected: `{"chat":"hi"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"chat\":\"hi\"}\n```",
			expected: `{"chat":"hi"}`,
		},
		{
			name:     "prose around object",
			input:    `Here you go: {"chat":"ok","tool":{"state":{}}} enjoy`,
			expected: `{"chat":"ok","tool":{"state":{}}}`,
		},
		{
			name:     "plain object",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(doc) != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, doc)
			}
		})
	}
}

func TestExtractFailures(t *testing.T) {
	t.Run("no braces", func(t *testing.T) {
		_, err := Extract("I cannot build that right now.")
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("expected extraction failure, got %v", err)
		}
		var failure *Failure
		if !errors.As(err, &failure) || failure.Reason != ReasonNoBraces {
			t.Fatalf("expected no_braces reason, got %v", err)
		}
	})

	t.Run("closing before opening", func(t *testing.T) {
		_, err := Extract("} oops {")
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("expected extraction failure, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Extract(`{"chat": "unterminated}`)
		var failure *Failure
		if !errors.As(err, &failure) || failure.Reason != ReasonInvalidJSON {
			t.Fatalf("expected invalid_json reason, got %v", err)
		}
	})

	t.Run("widest span over-captures two objects", func(t *testing.T) {
		_, err := Extract(`{"a":1} and then {"b":2}`)
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("expected widest span to fail parsing, got %v", err)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("chat with tool", func(t *testing.T) {
		reply, err := Decode("```json\n" + `{"chat":"Built a counter","tool":{"state":{"count":0},"layout":[{"type":"hero","props":{"label":"Count","value":"{count}"}},{"type":"button","props":{"label":"+1"},"action":{"cmd":"add","key":"count","val":1}}]}}` + "\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Chat != "Built a counter" {
			t.Fatalf("unexpected chat: %q", reply.Chat)
		}
		if reply.Tool == nil || len(reply.Tool.Layout) != 2 {
			t.Fatalf("unexpected tool: %+v", reply.Tool)
		}
		if value, ok := reply.Tool.State.Get("count"); !ok || value != float64(0) {
			t.Fatalf("unexpected state: %v", value)
		}
		if reply.Tool.Layout[1].Action.Script == nil {
			t.Fatalf("expected script action on button")
		}
	})

	t.Run("chat only", func(t *testing.T) {
		reply, err := Decode(`{"chat":"hello"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Tool != nil {
			t.Fatalf("expected no tool")
		}
	})

	t.Run("legacy elements shape", func(t *testing.T) {
		reply, err := Decode(`{"chat_reply":"Dashboard ready","ui":{"title":"Ops","color":"#123","icon":"⚙"},"elements":[{"type":"status","props":{"label":"CPU","value":"40%"}}]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Chat != "Dashboard ready" {
			t.Fatalf("unexpected chat: %q", reply.Chat)
		}
		if reply.Header == nil || reply.Header.Title != "Ops" {
			t.Fatalf("unexpected header: %+v", reply.Header)
		}
		if reply.Tool == nil || len(reply.Tool.Layout) != 1 || reply.Tool.Layout[0].Kind != atom.KindStatus {
			t.Fatalf("unexpected tool: %+v", reply.Tool)
		}
	})

	t.Run("bad state degrades to empty", func(t *testing.T) {
		reply, err := Decode(`{"chat":"x","tool":{"state":[1],"layout":[{"type":"text"}]}}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Tool.State.Len() != 0 || len(reply.Tool.Layout) != 1 {
			t.Fatalf("unexpected tool: %+v", reply.Tool)
		}
	})

	t.Run("raw document kept", func(t *testing.T) {
		reply, err := Decode(`noise {"chat":"x"} noise`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !json.Valid(reply.Raw) || string(reply.Raw) != `{"chat":"x"}` {
			t.Fatalf("unexpected raw document: %s", reply.Raw)
		}
	})

	t.Run("failure propagates", func(t *testing.T) {
		if _, err := Decode("nothing here"); !errors.Is(err, ErrExtraction) {
			t.Fatalf("expected extraction failure, got %v", err)
		}
	})
}

package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewRecordDigest(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	a, err := NewRecord("s1", json.RawMessage(`{"chat":"hi","tool":{"state":{"count":1}}}`), at)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := NewRecord("s1", json.RawMessage(`{ "tool": {"state": {"count": 1.0}}, "chat": "hi" }`), at)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Digest != b.Digest {
		t.Fatalf("expected equal digests for equivalent payloads, got %s and %s", a.Digest, b.Digest)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids")
	}
	if a.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
}

func TestNewRecordRejectsInvalidJSON(t *testing.T) {
	_, err := NewRecord("s1", json.RawMessage(`{"chat":`), time.Now())
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestRecordValidate(t *testing.T) {
	valid, err := NewRecord("s1", json.RawMessage(`{}`), time.Now())
	if err != nil {
		t.Fatalf("new record: %v", err)
	}

	tests := map[string]func(r *Record){
		"bad id":          func(r *Record) { r.ID = "nope" },
		"missing session": func(r *Record) { r.SessionID = " " },
		"bad state":       func(r *Record) { r.State = json.RawMessage(`{`) },
		"zero timestamp":  func(r *Record) { r.Timestamp = time.Time{} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			rec := valid
			mutate(&rec)
			if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	tests := map[int]int{0: DefaultListLimit, -4: DefaultListLimit, 10: 10, 5000: 1000}
	for in, expected := range tests {
		if got := (ListOptions{Limit: in}).EffectiveLimit(); got != expected {
			t.Fatalf("limit %d: expected %d, got %d", in, expected, got)
		}
	}
}

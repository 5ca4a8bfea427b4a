package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"liquid/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return client
}

func appendRecord(t *testing.T, client *Client, session, payload string, at time.Time) store.Record {
	t.Helper()
	rec, err := store.NewRecord(session, json.RawMessage(payload), at)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := client.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	return rec
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	first := appendRecord(t, client, "a", `{"chat":"one"}`, base)
	second := appendRecord(t, client, "a", `{"chat":"two"}`, base.Add(time.Second))
	appendRecord(t, client, "b", `{"chat":"other"}`, base.Add(2*time.Second))

	records, err := client.List(ctx, store.ListOptions{SessionID: "a"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != second.ID || records[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", records[0].ID, records[1].ID)
	}
	if string(records[1].State) != `{"chat":"one"}` || records[1].Digest != first.Digest {
		t.Fatalf("unexpected record %+v", records[1])
	}
	if !records[1].Timestamp.Equal(base) {
		t.Fatalf("expected timestamp %v, got %v", base, records[1].Timestamp)
	}

	all, err := client.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	limited, err := client.List(ctx, store.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].SessionID != "b" {
		t.Fatalf("expected newest record only, got %+v", limited)
	}
}

func TestAppendDuplicateIgnored(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	rec := appendRecord(t, client, "a", `{}`, time.Now())
	if err := client.Append(ctx, rec); err != nil {
		t.Fatalf("expected duplicate append to be ignored, got %v", err)
	}
	records, err := client.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	client := testClient(t)
	err := client.Append(context.Background(), store.Record{ID: "nope"})
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	client := testClient(t)
	if err := client.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("expected second EnsureSchema to succeed, got %v", err)
	}
}

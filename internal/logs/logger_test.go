package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFansOut(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "liquid.jsonl")

	logger, closer, err := New(Options{Level: "debug", File: file, Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	ctx := WithSession(context.Background(), "s-1")
	logger.With("component", "test").DebugContext(ctx, "hello", "n", 1)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	text := buf.String()
	if !strings.Contains(text, "msg=hello") || !strings.Contains(text, "session=s-1") || !strings.Contains(text, "component=test") {
		t.Fatalf("unexpected text output %q", text)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record["msg"] != "hello" || record["session"] != "s-1" {
		t.Fatalf("unexpected json record %v", record)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatalf("expected error from New")
	}
}

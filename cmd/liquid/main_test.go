package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleReply = "Sure!\n```json\n" + `{"chat":"Here is a counter.","tool":{"state":{"count":2},"layout":[{"type":"hero","props":{"label":"Count","value":"{count}"}},{"type":"button","props":{"label":"Add"},"action":{"cmd":"add","key":"count","val":1}}]}}` + "\n```"

func TestReadInput(t *testing.T) {
	data, err := readInput(strings.NewReader("from stdin"), nil)
	if err != nil || string(data) != "from stdin" {
		t.Fatalf("unexpected stdin read: %q %v", data, err)
	}

	path := filepath.Join(t.TempDir(), "reply.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err = readInput(strings.NewReader("ignored"), []string{path})
	if err != nil || string(data) != "from file" {
		t.Fatalf("unexpected file read: %q %v", data, err)
	}

	if _, err := readInput(strings.NewReader(""), []string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRenderCommand(t *testing.T) {
	cmd := renderCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(sampleReply))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "text"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Here is a counter.") {
		t.Fatalf("expected chat reply, got %q", text)
	}
	if !strings.Contains(text, "[hero] Count: 2") || !strings.Contains(text, "[button 1] Add") {
		t.Fatalf("unexpected rendering %q", text)
	}
}

func TestRenderCommandRejectsFormat(t *testing.T) {
	cmd := renderCmd()
	cmd.SetIn(strings.NewReader(sampleReply))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "pdf"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		cmd := validateCmd()
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader(sampleReply))
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !strings.Contains(out.String(), "No issues found.") {
			t.Fatalf("unexpected output %q", out.String())
		}
	})

	t.Run("errors", func(t *testing.T) {
		cmd := validateCmd()
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader(`{"chat":"x","tool":{"state":{},"layout":[{"type":"hero","props":"bad"},{"type":"text","props":{"label":"{missing}"}}]}}`))
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err == nil {
			t.Fatalf("expected validation error")
		}
		if !strings.Contains(out.String(), "Errors (1):") || !strings.Contains(out.String(), "Warnings (1):") {
			t.Fatalf("unexpected output %q", out.String())
		}
	})
}

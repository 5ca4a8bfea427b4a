package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrExtraction = errors.New("extraction failed")

const (
	ReasonNoBraces    = "no_braces"
	ReasonInvalidJSON = "invalid_json"
)

// Failure reports why no JSON document could be recovered from model output.
type Failure struct {
	Reason  string
	Snippet string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %v", f.Reason, f.Cause)
	}
	return fmt.Sprintf("extraction failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func (f *Failure) Is(target error) bool {
	return target == ErrExtraction
}

const snippetLimit = 120

// Extract recovers the JSON object embedded in free-form model output.
// Code fences are stripped, then the span from the first '{' to the last
// '}' is taken. The widest span wins, so prose after the object that
// contains a '}' is captured too.
func Extract(text string) (json.RawMessage, error) {
	cleaned := stripFences(text)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < 0 || end <= start {
		return nil, &Failure{Reason: ReasonNoBraces, Snippet: snippet(text)}
	}
	candidate := cleaned[start : end+1]
	if !json.Valid([]byte(candidate)) {
		var probe any
		cause := json.Unmarshal([]byte(candidate), &probe)
		return nil, &Failure{Reason: ReasonInvalidJSON, Snippet: snippet(candidate), Cause: cause}
	}
	return json.RawMessage(candidate), nil
}

func stripFences(text string) string {
	replacer := strings.NewReplacer("```json", "", "```JSON", "", "```", "")
	return strings.TrimSpace(replacer.Replace(text))
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= snippetLimit {
		return text
	}
	return string(runes[:snippetLimit]) + "…"
}

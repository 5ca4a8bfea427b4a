package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a system prompt loaded from a markdown file.
type Template struct {
	Frontmatter map[string]any
	Title       string
	Temperature *float64
	Body        string
	SourceFile  string
}

var (
	ErrInvalidYAML        = errors.New("invalid YAML in frontmatter")
	ErrUnclosed           = errors.New("frontmatter missing closing marker")
	ErrEmptyBody          = errors.New("prompt body is empty")
	ErrInvalidTemperature = errors.New("temperature must be a number between 0 and 2")
)

const nameToken = "{name}"

func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt: %w", err)
	}

	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt %s: %w", path, err)
	}
	tmpl.SourceFile = path
	return tmpl, nil
}

// Parse reads an optional --- delimited YAML header followed by the prompt body.
func Parse(content []byte) (*Template, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return newTemplate(nil, string(trimmed))
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		if !bytes.HasSuffix(rest, []byte("---")) {
			return nil, ErrUnclosed
		}
		end = len(rest) - len("---")
	}

	yamlBytes := rest[:end]
	body := ""
	if end+len("---\n") <= len(rest) {
		body = string(rest[end+len("---\n"):])
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}
	return newTemplate(frontmatter, body)
}

func newTemplate(frontmatter map[string]any, body string) (*Template, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	tmpl := &Template{Frontmatter: frontmatter, Body: body}
	if title, ok := frontmatter["title"].(string); ok {
		tmpl.Title = strings.TrimSpace(title)
	}
	temperature, err := parseTemperature(frontmatter["temperature"])
	if err != nil {
		return nil, err
	}
	tmpl.Temperature = temperature
	return tmpl, nil
}

func parseTemperature(value any) (*float64, error) {
	var t float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		t = float64(v)
	case float64:
		t = v
	default:
		return nil, ErrInvalidTemperature
	}
	if t < 0 || t > 2 {
		return nil, ErrInvalidTemperature
	}
	return &t, nil
}

// Render binds {name} in the body. Other braces are left alone so JSON
// examples in the prompt survive.
func (t *Template) Render(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "the user"
	}
	return strings.ReplaceAll(t.Body, nameToken, name)
}

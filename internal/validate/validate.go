package validate

import (
	"fmt"
	"strconv"
	"strings"

	"liquid/internal/atom"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownType        = "unknown_type"
	codeMalformedNode      = "malformed_node"
	codeScriptMissingKey   = "script_missing_key"
	codeUnknownCommand     = "unknown_command"
	codeUnboundPlaceholder = "unbound_placeholder"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Layout lints a layout against the state it will be rendered with.
func Layout(nodes []atom.Node, state atom.State) *Report {
	issues := make([]Issue, 0)
	walk(nodes, state, "", &issues)
	return &Report{Issues: issues}
}

func walk(nodes []atom.Node, state atom.State, prefix string, issues *[]Issue) {
	// Numbering follows the renderer: unknown nodes take no index.
	index := 0
	for _, node := range nodes {
		path := prefix + strconv.Itoa(index)
		if node.Kind != atom.KindUnknown || node.Err != nil {
			index++
		}
		if node.Err != nil {
			*issues = append(*issues, Issue{
				Severity: SeverityError,
				Code:     codeMalformedNode,
				Message:  node.Err.Error(),
				Path:     path,
			})
			continue
		}
		if node.Kind == atom.KindUnknown {
			*issues = append(*issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownType,
				Message:  fmt.Sprintf("unknown atom type %q is not rendered", node.Type),
				Path:     path,
			})
			continue
		}
		*issues = append(*issues, validateScript(node, path)...)
		*issues = append(*issues, validatePlaceholders(node, state, path)...)
		if len(node.Children) > 0 {
			walk(node.Children, state, path+".", issues)
		}
	}
}

func validateScript(node atom.Node, path string) []Issue {
	script := node.Action.Script
	if script == nil {
		return nil
	}
	switch atom.Command(strings.ToLower(strings.TrimSpace(string(script.Cmd)))) {
	case atom.CmdAdd, atom.CmdSubtract, atom.CmdSet:
	default:
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeUnknownCommand,
			Message:  fmt.Sprintf("script command %q does nothing", script.Cmd),
			Path:     path,
		}}
	}
	if strings.TrimSpace(script.Key) == "" {
		return []Issue{{
			Severity: SeverityError,
			Code:     codeScriptMissingKey,
			Message:  "script missing key",
			Path:     path,
		}}
	}
	return nil
}

func validatePlaceholders(node atom.Node, state atom.State, path string) []Issue {
	var issues []Issue
	for _, key := range sortedKeys(node.Props) {
		text, ok := node.Props[key].(string)
		if !ok {
			continue
		}
		for _, name := range atom.Placeholders(text) {
			if _, bound := state.Get(name); bound {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnboundPlaceholder,
				Message:  fmt.Sprintf("%s references unknown state variable %s", key, name),
				Path:     path,
			})
		}
	}
	return issues
}

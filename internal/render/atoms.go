package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"liquid/internal/atom"
)

const (
	fallbackHeroLabel   = "Status"
	fallbackHeroValue   = "--"
	fallbackButtonLabel = "Action"
	fallbackInputLabel  = "Input"
	fallbackListLabel   = "List"
)

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20})$`)

func renderHero(c *Context, node atom.Node) (Element, error) {
	return Element{
		Label: node.TextOr("label", c.State, fallbackHeroLabel),
		Value: node.TextOr("value", c.State, fallbackHeroValue),
		Color: color(node, c.State),
		Icon:  node.TextOr("icon", c.State, ""),
	}, nil
}

func renderButton(c *Context, node atom.Node) (Element, error) {
	element := Element{
		Label: node.TextOr("label", c.State, fallbackButtonLabel),
		Color: color(node, c.State),
	}
	if !node.Action.IsZero() {
		action := node.Action
		element.Action = &action
	}
	return element, nil
}

func renderBox(c *Context, node atom.Node) (Element, error) {
	direction := Vertical
	if value, ok := node.Prop("direction"); ok {
		if s, ok := value.(string); ok && strings.EqualFold(strings.TrimSpace(s), "row") {
			direction = Horizontal
		}
	}
	return Element{
		Label:     node.TextOr("label", c.State, ""),
		Direction: direction,
		Children:  c.Walk(node.Children),
	}, nil
}

func renderInput(c *Context, node atom.Node) (Element, error) {
	return Element{
		Label:       node.TextOr("label", c.State, fallbackInputLabel),
		Placeholder: node.TextOr("placeholder", c.State, ""),
	}, nil
}

func renderText(c *Context, node atom.Node) (Element, error) {
	for _, key := range []string{"label", "text", "value"} {
		if text, ok := node.Text(key, c.State); ok {
			return Element{Label: text, Color: color(node, c.State)}, nil
		}
	}
	return Element{}, nil
}

func renderSlider(c *Context, node atom.Node) (Element, error) {
	low, high := 0.0, 100.0
	if v, ok := node.Number("min", c.State); ok {
		low = v
	}
	if v, ok := node.Number("max", c.State); ok {
		high = v
	}
	if high < low {
		return Element{}, fmt.Errorf("slider range %v..%v is inverted", low, high)
	}
	current := low
	display := ""
	if raw, present := node.Prop("value"); present {
		v, ok := node.Number("value", c.State)
		switch {
		case ok:
			current = v
		case unbound(raw, c.State):
			display = atom.Missing
		default:
			return Element{}, fmt.Errorf("slider value is not numeric")
		}
	}
	if display == "" {
		display = strconv.FormatFloat(current, 'f', -1, 64)
	}
	return Element{
		Label:  node.TextOr("label", c.State, ""),
		Value:  display,
		Min:    low,
		Max:    high,
		Number: current,
		Color:  color(node, c.State),
	}, nil
}

func renderStatus(c *Context, node atom.Node) (Element, error) {
	return Element{
		Label: node.TextOr("label", c.State, fallbackHeroLabel),
		Value: node.TextOr("value", c.State, fallbackHeroValue),
		Color: color(node, c.State),
		Icon:  node.TextOr("icon", c.State, ""),
	}, nil
}

func renderList(c *Context, node atom.Node) (Element, error) {
	element := Element{
		Label:  node.TextOr("label", c.State, fallbackListLabel),
		Source: node.TextOr("source_collection", c.State, ""),
	}
	if raw, ok := node.Prop("items"); ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return Element{}, fmt.Errorf("list items is %T, want array", raw)
		}
		for _, item := range items {
			text, ok := atom.FormatValue(item)
			if !ok {
				continue
			}
			element.Items = append(element.Items, atom.Bind(text, c.State))
		}
	}
	if len(element.Items) == 0 && element.Source != "" {
		element.Value = "History from: " + element.Source
	}
	return element, nil
}

// unbound reports whether raw references a state variable that is not set.
func unbound(raw any, state atom.State) bool {
	s, ok := raw.(string)
	if !ok {
		return false
	}
	for _, name := range atom.Placeholders(s) {
		if _, set := state.Get(name); !set {
			return true
		}
	}
	return false
}

func color(node atom.Node, state atom.State) string {
	value, ok := node.Text("color", state)
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if !colorPattern.MatchString(value) {
		return ""
	}
	return value
}

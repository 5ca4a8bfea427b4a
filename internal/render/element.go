package render

import (
	"strings"

	"liquid/internal/atom"
)

// KindError marks the inline placeholder for a node that failed to render.
const KindError atom.Kind = "error"

type Direction string

const (
	Horizontal Direction = "row"
	Vertical   Direction = "column"
)

// Element is a rendered atom, ready for an output writer.
type Element struct {
	Kind        atom.Kind    `json:"kind"`
	Path        string       `json:"path"`
	Label       string       `json:"label,omitempty"`
	Value       string       `json:"value,omitempty"`
	Color       string       `json:"color,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Direction   Direction    `json:"direction,omitempty"`
	Min         float64      `json:"min,omitempty"`
	Max         float64      `json:"max,omitempty"`
	Number      float64      `json:"number,omitempty"`
	Source      string       `json:"source,omitempty"`
	Items       []string     `json:"items,omitempty"`
	Action      *atom.Action `json:"action,omitempty"`
	Children    []Element    `json:"children,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Find returns the element at a dot-separated path.
func Find(elements []Element, path string) (Element, bool) {
	for _, element := range elements {
		if element.Path == path {
			return element, true
		}
		if len(element.Children) > 0 && strings.HasPrefix(path, element.Path+".") {
			if found, ok := Find(element.Children, path); ok {
				return found, true
			}
		}
	}
	return Element{}, false
}

// Walk visits every element depth-first in declared order.
func Walk(elements []Element, visit func(Element)) {
	for _, element := range elements {
		visit(element)
		Walk(element.Children, visit)
	}
}

package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"liquid/internal/atom"
)

// WriteText writes an indented plain-text rendering, one element per line.
func WriteText(w io.Writer, elements []Element) error {
	bw := bufio.NewWriter(w)
	for _, element := range elements {
		writeElementText(bw, element, 0)
	}
	return bw.Flush()
}

func writeElementText(w *bufio.Writer, element Element, depth int) {
	indent := strings.Repeat("  ", depth)
	switch element.Kind {
	case atom.KindHero:
		fmt.Fprintf(w, "%s[hero] %s: %s\n", indent, element.Label, element.Value)
	case atom.KindButton:
		fmt.Fprintf(w, "%s[button %s] %s\n", indent, element.Path, element.Label)
	case atom.KindBox:
		fmt.Fprintf(w, "%s[%s]", indent, element.Direction)
		if element.Label != "" {
			fmt.Fprintf(w, " %s", element.Label)
		}
		w.WriteString("\n")
		for _, child := range element.Children {
			writeElementText(w, child, depth+1)
		}
	case atom.KindInput:
		fmt.Fprintf(w, "%s[input] %s: ____\n", indent, element.Label)
	case atom.KindText:
		fmt.Fprintf(w, "%s%s\n", indent, element.Label)
	case atom.KindSlider:
		fmt.Fprintf(w, "%s[slider] %s: %s (%s-%s)\n", indent, element.Label, element.Value, formatFloat(element.Min), formatFloat(element.Max))
	case atom.KindStatus:
		fmt.Fprintf(w, "%s[status] %s: %s\n", indent, element.Label, element.Value)
	case atom.KindList:
		fmt.Fprintf(w, "%s[list] %s\n", indent, element.Label)
		for _, item := range element.Items {
			fmt.Fprintf(w, "%s  - %s\n", indent, item)
		}
		if len(element.Items) == 0 && element.Value != "" {
			fmt.Fprintf(w, "%s  %s\n", indent, element.Value)
		}
	case KindError:
		fmt.Fprintf(w, "%s[error] %s\n", indent, element.Error)
	}
}

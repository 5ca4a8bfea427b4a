package atom

import "strings"

// Kind is the closed set of atom types the renderer understands.
type Kind string

const (
	KindUnknown Kind = ""
	KindHero    Kind = "hero"
	KindButton  Kind = "button"
	KindBox     Kind = "box"
	KindInput   Kind = "input"
	KindText    Kind = "text"
	KindSlider  Kind = "slider"
	KindStatus  Kind = "status"
	KindList    Kind = "list"
)

var knownKinds = map[string]Kind{
	"hero":   KindHero,
	"button": KindButton,
	"box":    KindBox,
	"input":  KindInput,
	"text":   KindText,
	"slider": KindSlider,
	"status": KindStatus,
	"list":   KindList,
}

// ParseKind maps a raw type tag to a Kind. Anything unrecognized is KindUnknown.
func ParseKind(tag string) Kind {
	kind, ok := knownKinds[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return KindUnknown
	}
	return kind
}

func Kinds() []Kind {
	return []Kind{KindHero, KindButton, KindBox, KindInput, KindText, KindSlider, KindStatus, KindList}
}

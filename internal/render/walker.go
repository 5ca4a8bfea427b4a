package render

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"liquid/internal/atom"
)

var ErrNoSuchElement = errors.New("no interactive element at path")

// Func renders one node of a registered kind.
type Func func(c *Context, node atom.Node) (Element, error)

// Registry maps atom kinds to render funcs.
type Registry struct {
	funcs map[atom.Kind]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[atom.Kind]Func)}
}

// DefaultRegistry returns a registry with every built-in atom.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(atom.KindHero, renderHero)
	r.Register(atom.KindButton, renderButton)
	r.Register(atom.KindBox, renderBox)
	r.Register(atom.KindInput, renderInput)
	r.Register(atom.KindText, renderText)
	r.Register(atom.KindSlider, renderSlider)
	r.Register(atom.KindStatus, renderStatus)
	r.Register(atom.KindList, renderList)
	return r
}

func (r *Registry) Register(kind atom.Kind, fn Func) {
	r.funcs[kind] = fn
}

func (r *Registry) Lookup(kind atom.Kind) (Func, bool) {
	fn, ok := r.funcs[kind]
	return fn, ok
}

// Context is handed to render funcs. It carries the state snapshot and
// the position of the node being rendered.
type Context struct {
	State  atom.State
	Path   string
	walker *Walker
}

// Walk renders child nodes beneath the current node.
func (c *Context) Walk(children []atom.Node) []Element {
	return c.walker.walk(children, c.State, c.Path+".")
}

type Walker struct {
	registry *Registry
	logger   *slog.Logger
}

type Option func(*Walker)

func WithRegistry(registry *Registry) Option {
	return func(w *Walker) {
		if registry != nil {
			w.registry = registry
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWalker(opts ...Option) *Walker {
	w := &Walker{
		registry: DefaultRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Render turns a layout into elements. Unknown kinds are skipped; a node
// that fails is replaced by an error element and its siblings still render.
func (w *Walker) Render(nodes []atom.Node, state atom.State) []Element {
	return w.walk(nodes, state, "")
}

// ActionFunc receives the raw action of an activated button.
type ActionFunc func(action atom.Action) error

// Tree is a rendered layout bound to an activation callback.
type Tree struct {
	Elements []Element
	onAction ActionFunc
}

func (w *Walker) Tree(nodes []atom.Node, state atom.State, onAction ActionFunc) *Tree {
	return &Tree{Elements: w.Render(nodes, state), onAction: onAction}
}

// Activate invokes the callback with the action of the button at path.
func (t *Tree) Activate(path string) error {
	element, ok := Find(t.Elements, path)
	if !ok || element.Kind != atom.KindButton {
		return fmt.Errorf("%w: %s", ErrNoSuchElement, path)
	}
	if t.onAction == nil {
		return nil
	}
	var action atom.Action
	if element.Action != nil {
		action = *element.Action
	}
	return t.onAction(action)
}

func (w *Walker) walk(nodes []atom.Node, state atom.State, prefix string) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		// Paths count emitted elements only, so a skipped node leaves no gap.
		path := prefix + strconv.Itoa(len(elements))
		element, ok := w.renderNode(node, state, path)
		if ok {
			elements = append(elements, element)
		}
	}
	return elements
}

func (w *Walker) renderNode(node atom.Node, state atom.State, path string) (element Element, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			w.logger.Warn("atom render panicked", "path", path, "type", node.Type, "panic", recovered)
			element = errorElement(path, fmt.Errorf("render panic: %v", recovered))
			ok = true
		}
	}()

	if node.Err != nil {
		w.logger.Debug("malformed atom", "path", path, "error", node.Err)
		return errorElement(path, node.Err), true
	}
	if node.Kind == atom.KindUnknown {
		return Element{}, false
	}
	fn, found := w.registry.Lookup(node.Kind)
	if !found {
		return Element{}, false
	}

	element, err := fn(&Context{State: state, Path: path, walker: w}, node)
	if err != nil {
		w.logger.Debug("atom render failed", "path", path, "type", node.Type, "error", err)
		return errorElement(path, err), true
	}
	element.Kind = node.Kind
	element.Path = path
	return element, true
}

func errorElement(path string, err error) Element {
	return Element{
		Kind:  KindError,
		Path:  path,
		Error: fmt.Sprintf("node %s: %v", path, err),
	}
}

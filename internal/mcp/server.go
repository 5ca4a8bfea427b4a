package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"liquid/internal/render"
	"liquid/internal/script"
	"liquid/internal/session"
	"liquid/internal/store"
)

// Chatter is the conversational side of a session.
type Chatter interface {
	Submit(ctx context.Context, text string) (session.Entry, error)
	View() session.View
}

// HistoryLister reads the logged model payloads.
type HistoryLister interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.Record, error)
}

type Options struct {
	Version     string
	Walker      *render.Walker
	Interpreter script.Interpreter
	// Chat and History are optional; their tools report an error when unset.
	Chat    Chatter
	History HistoryLister
}

type Server struct {
	walker      *render.Walker
	interpreter script.Interpreter
	chat        Chatter
	history     HistoryLister
	mcp         *sdk.Server
}

func NewServer(opts Options) *Server {
	walker := opts.Walker
	if walker == nil {
		walker = render.NewWalker()
	}
	s := &Server{
		walker:      walker,
		interpreter: opts.Interpreter,
		chat:        opts.Chat,
		history:     opts.History,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "liquid",
			Version: opts.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

package web

import (
	"context"
	"log/slog"
	"time"

	"liquid/internal/config"
	"liquid/internal/render"
	"liquid/internal/session"
)

// Session is the part of *session.Session the handler drives.
type Session interface {
	Submit(ctx context.Context, text string) (session.Entry, error)
	Activate(ctx context.Context, path string) (*session.Notice, error)
	View() session.View
	Entries() []session.Entry
	Busy() bool
}

// SessionFactory builds a session once settings exist.
type SessionFactory func(settings *config.Settings) (Session, error)

type Config struct {
	SettingsDir    string
	NewSession     SessionFactory
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

type StateResponse struct {
	OK          bool             `json:"ok"`
	Configured  bool             `json:"configured"`
	DisplayName string           `json:"display_name,omitempty"`
	Busy        bool             `json:"busy"`
	Entries     []session.Entry  `json:"entries"`
	ToolID      string           `json:"tool_id,omitempty"`
	State       any              `json:"state,omitempty"`
	Elements    []render.Element `json:"elements,omitempty"`
	Notice      string           `json:"notice,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type ActionRequest struct {
	Path string `json:"path"`
}

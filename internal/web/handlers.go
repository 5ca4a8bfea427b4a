package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"liquid/internal/config"
	"liquid/internal/logs"
	"liquid/internal/render"
	"liquid/internal/session"
)

const maxBodyBytes = 1 << 20

var errNotConfigured = errors.New("not configured, complete setup first")

type handler struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	session  Session
	settings *config.Settings
	notice   string
	lastErr  string
}

func NewHandler(cfg Config) (http.Handler, error) {
	if strings.TrimSpace(cfg.SettingsDir) == "" {
		return nil, fmt.Errorf("missing settings dir")
	}
	if cfg.NewSession == nil {
		return nil, fmt.Errorf("missing session factory")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logs.Discard()
	}
	h := &handler{config: cfg, logger: logger}

	settings, err := config.LoadSettings(cfg.SettingsDir)
	switch {
	case errors.Is(err, config.ErrNoSettings):
	case err != nil:
		return nil, err
	default:
		if err := h.install(settings); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/chat", h.handleAPIChat)
	mux.HandleFunc("/api/action", h.handleAPIAction)
	mux.HandleFunc("/chat", h.handleChat)
	mux.HandleFunc("/action", h.handleAction)
	mux.HandleFunc("/setup", h.handleSetup)
	mux.HandleFunc("/reset", h.handleReset)
	mux.HandleFunc("/{$}", h.handlePage)
	return mux, nil
}

func (h *handler) install(settings *config.Settings) error {
	s, err := h.config.NewSession(settings)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	h.mu.Lock()
	h.session = s
	h.settings = settings
	h.mu.Unlock()
	return nil
}

func (h *handler) current() (Session, *config.Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session, h.settings
}

// flash stores a one-shot message for the next page render.
func (h *handler) flash(notice, errText string) {
	h.mu.Lock()
	h.notice, h.lastErr = notice, errText
	h.mu.Unlock()
}

func (h *handler) takeFlash() (string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	notice, errText := h.notice, h.lastErr
	h.notice, h.lastErr = "", ""
	return notice, errText
}

func (h *handler) handleHealth(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writeError(writer, http.StatusMethodNotAllowed, "expected GET")
		return
	}
	writeJSON(writer, http.StatusOK, HealthResponse{OK: true, Service: "liquid"})
}

func (h *handler) handleState(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writeError(writer, http.StatusMethodNotAllowed, "expected GET")
		return
	}
	writeJSON(writer, http.StatusOK, h.state(""))
}

func (h *handler) state(notice string) StateResponse {
	s, settings := h.current()
	if s == nil {
		return StateResponse{OK: true, Entries: []session.Entry{}}
	}
	view := s.View()
	response := StateResponse{
		OK:          true,
		Configured:  true,
		DisplayName: settings.DisplayName,
		Busy:        s.Busy(),
		Entries:     s.Entries(),
		ToolID:      view.ToolID,
		Elements:    view.Elements,
		Notice:      notice,
	}
	if view.ToolID != "" {
		response.State = view.State
	}
	return response
}

func (h *handler) handlePage(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writeError(writer, http.StatusMethodNotAllowed, "expected GET")
		return
	}
	notice, errText := h.takeFlash()
	data := pageData{Notice: notice, Error: errText}

	if s, settings := h.current(); s != nil {
		view := s.View()
		data.Configured = true
		data.DisplayName = settings.DisplayName
		data.Busy = s.Busy()
		data.Entries = s.Entries()
		if view.Header != nil {
			data.Title = view.Header.Title
			data.Tint = view.Header.Color
		}
		var tool bytes.Buffer
		if err := render.WriteHTML(&tool, view.Elements, render.HTMLOptions{ActionURL: "/action", PathField: "path"}); err != nil {
			h.logger.ErrorContext(request.Context(), "rendering tool", "error", err)
		}
		// WriteHTML escapes every value it emits.
		data.Tool = template.HTML(tool.String())
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(writer, data); err != nil {
		h.logger.ErrorContext(request.Context(), "rendering page", "error", err)
	}
}

func (h *handler) handleChat(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	text, ok := formValue(writer, request, "text")
	if !ok {
		return
	}
	if _, err := h.submit(request.Context(), text); err != nil && !errors.Is(err, session.ErrEmptyInput) {
		h.flash("", err.Error())
	}
	http.Redirect(writer, request, "/", http.StatusSeeOther)
}

func (h *handler) handleAPIChat(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	var chat ChatRequest
	if !decodeJSON(writer, request, &chat) {
		return
	}
	_, err := h.submit(request.Context(), chat.Text)
	switch {
	case errors.Is(err, errNotConfigured):
		writeError(writer, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyInput):
		writeError(writer, http.StatusBadRequest, "text is required")
	case err != nil:
		writeError(writer, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(writer, http.StatusOK, h.state(""))
	}
}

// submit detaches from the request so a closed tab does not abort the
// outstanding model call.
func (h *handler) submit(ctx context.Context, text string) (session.Entry, error) {
	s, _ := h.current()
	if s == nil {
		return session.Entry{}, errNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.RequestTimeout)
	defer cancel()
	return s.Submit(ctx, text)
}

func (h *handler) handleAction(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	path, ok := formValue(writer, request, "path")
	if !ok {
		return
	}
	notice, err := h.activate(request.Context(), path)
	switch {
	case err != nil:
		h.flash("", err.Error())
	case notice != nil:
		h.flash(notice.Message, "")
	}
	http.Redirect(writer, request, "/", http.StatusSeeOther)
}

func (h *handler) handleAPIAction(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	var action ActionRequest
	if !decodeJSON(writer, request, &action) {
		return
	}
	notice, err := h.activate(request.Context(), action.Path)
	switch {
	case errors.Is(err, errNotConfigured):
		writeError(writer, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNoSuchNode):
		writeError(writer, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(writer, http.StatusInternalServerError, err.Error())
	case notice != nil:
		writeJSON(writer, http.StatusOK, h.state(notice.Message))
	default:
		writeJSON(writer, http.StatusOK, h.state(""))
	}
}

func (h *handler) activate(ctx context.Context, path string) (*session.Notice, error) {
	s, _ := h.current()
	if s == nil {
		return nil, errNotConfigured
	}
	return s.Activate(ctx, strings.TrimSpace(path))
}

func (h *handler) handleSetup(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := request.ParseForm(); err != nil {
		writeError(writer, http.StatusBadRequest, "read request body")
		return
	}
	settings := &config.Settings{
		APIKey:      strings.TrimSpace(request.PostForm.Get("api_key")),
		DisplayName: strings.TrimSpace(request.PostForm.Get("display_name")),
	}
	if err := config.SaveSettings(h.config.SettingsDir, settings); err != nil {
		h.flash("", err.Error())
		http.Redirect(writer, request, "/", http.StatusSeeOther)
		return
	}

	loaded, err := config.LoadSettings(h.config.SettingsDir)
	if err == nil {
		err = h.install(loaded)
	}
	if err != nil {
		h.logger.ErrorContext(request.Context(), "setup failed", "error", err)
		h.flash("", err.Error())
	}
	http.Redirect(writer, request, "/", http.StatusSeeOther)
}

func (h *handler) handleReset(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writeError(writer, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	if err := config.ResetSettings(h.config.SettingsDir); err != nil {
		h.logger.ErrorContext(request.Context(), "reset failed", "error", err)
		h.flash("", err.Error())
		http.Redirect(writer, request, "/", http.StatusSeeOther)
		return
	}
	h.mu.Lock()
	h.session = nil
	h.settings = nil
	h.mu.Unlock()
	http.Redirect(writer, request, "/", http.StatusSeeOther)
}

func formValue(writer http.ResponseWriter, request *http.Request, key string) (string, bool) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := request.ParseForm(); err != nil {
		writeError(writer, http.StatusBadRequest, "read request body")
		return "", false
	}
	return request.PostForm.Get(key), true
}

func decodeJSON(writer http.ResponseWriter, request *http.Request, value any) bool {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	payload, err := io.ReadAll(request.Body)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "read request body")
		return false
	}
	if err := json.Unmarshal(payload, value); err != nil {
		writeError(writer, http.StatusBadRequest, "decode request JSON")
		return false
	}
	return true
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, map[string]any{
		"ok":    false,
		"error": strings.TrimSpace(message),
	})
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		http.Error(writer, `{"ok":false,"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = writer.Write(append(encoded, '\n'))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"liquid/internal/config"
	"liquid/internal/logs"
	"liquid/internal/model"
	"liquid/internal/prompt"
	"liquid/internal/render"
	"liquid/internal/script"
	"liquid/internal/session"
	"liquid/internal/store"
)

var (
	configPath      string
	settingsDirFlag string
)

// app holds what every command needs: config, logger and resources to close.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	settingsDir string

	mu         sync.Mutex
	closers    []func(context.Context) error
	history    store.Store
	historyDSN string
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logs.New(logs.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(settingsDirFlag)
	if dir == "" {
		dir, err = config.SettingsDir()
		if err != nil {
			_ = logCloser.Close()
			return nil, err
		}
	}

	a := &app{cfg: cfg, logger: logger, settingsDir: dir}
	a.onClose(func(context.Context) error { return logCloser.Close() })
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			a.logger.WarnContext(ctx, "closing resource", "error", err)
		}
	}
}

func (a *app) loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(a.settingsDir)
	if errors.Is(err, config.ErrNoSettings) {
		return nil, fmt.Errorf("%w: run liquid setup first", err)
	}
	return settings, err
}

func (a *app) storeDSN(settings *config.Settings) string {
	if settings != nil && strings.TrimSpace(settings.StoreDSN) != "" {
		return settings.StoreDSN
	}
	return a.cfg.Store.DSN
}

// openHistory opens the configured history store, or returns nil when none
// is set. The store is opened once per DSN and closed with the app.
func (a *app) openHistory(ctx context.Context, settings *config.Settings) (store.Store, error) {
	dsn := a.storeDSN(settings)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.history != nil && a.historyDSN == dsn {
		return a.history, nil
	}

	db, err := openStore(ctx, dsn)
	if err != nil || db == nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	a.history, a.historyDSN = db, dsn
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) interpreter() script.Interpreter {
	if a.cfg.LegacyHeuristics {
		return script.Interpreter{Fallback: script.KeywordFallback}
	}
	return script.Interpreter{}
}

func (a *app) walker() *render.Walker {
	return render.NewWalker(render.WithLogger(a.logger.With("component", "render")))
}

func (a *app) systemPrompt(name string) (string, *float64, error) {
	if strings.TrimSpace(a.cfg.PromptFile) == "" {
		return model.BuildSystemPrompt(name), nil, nil
	}
	tmpl, err := prompt.ParseFile(a.cfg.PromptFile)
	if err != nil {
		return "", nil, err
	}
	return tmpl.Render(name), tmpl.Temperature, nil
}

func (a *app) newSession(ctx context.Context, settings *config.Settings) (*session.Session, error) {
	generator, err := model.NewGemini(model.GeminiConfig{
		APIKey:        settings.APIKey,
		Model:         a.cfg.Model.Name,
		Endpoint:      a.cfg.Model.Endpoint,
		Timeout:       a.cfg.Model.Timeout,
		RatePerSecond: a.cfg.Model.RatePerSecond,
		MaxAttempts:   a.cfg.Model.MaxAttempts,
		Logger:        a.logger.With("component", "model"),
	})
	if err != nil {
		return nil, err
	}

	system, temperature, err := a.systemPrompt(settings.DisplayName)
	if err != nil {
		return nil, err
	}

	cfg := session.Config{
		Generator:   generator,
		Interpreter: a.interpreter(),
		Walker:      a.walker(),
		System:      system,
		Temperature: temperature,
		Logger:      a.logger.With("component", "session"),
	}
	history, err := a.openHistory(ctx, settings)
	if err != nil {
		a.logger.WarnContext(ctx, "history store unavailable, continuing without it", "error", err)
	} else if history != nil {
		cfg.Recorder = history
	}

	s, err := session.New(cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error {
		s.Flush()
		return nil
	})
	return s, nil
}

// readInput reads the file named by args[0], or in when no file or "-" is given.
func readInput(in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"liquid/internal/config"
	"liquid/internal/web"
)

func serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and tool UI over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, listen string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if listen == "" {
		listen = a.cfg.Listen
	}

	handler, err := web.NewHandler(web.Config{
		SettingsDir: a.settingsDir,
		NewSession: func(settings *config.Settings) (web.Session, error) {
			s, err := a.newSession(ctx, settings)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		RequestTimeout: a.cfg.Model.Timeout * time.Duration(max(a.cfg.Model.MaxAttempts, 1)),
		Logger:         a.logger.With("component", "web"),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

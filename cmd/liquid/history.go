package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"liquid/internal/config"
	"liquid/internal/store"
)

func historyCmd() *cobra.Command {
	var sessionID string
	var limit int
	var full bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List logged model payloads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, sessionID, limit, full)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to filter")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum records to list")
	cmd.Flags().BoolVar(&full, "full", false, "Print each payload")
	return cmd
}

func runHistory(cmd *cobra.Command, sessionID string, limit int, full bool) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	settings, err := config.LoadSettings(a.settingsDir)
	if err != nil && !errors.Is(err, config.ErrNoSettings) {
		return err
	}
	db, err := a.openHistory(ctx, settings)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no history store configured, set store.dsn in %s", configPath)
	}

	records, err := db.List(ctx, store.ListOptions{SessionID: sessionID, Limit: limit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s %s session=%s digest=%s\n", rec.Timestamp.Format(time.RFC3339), rec.ID, rec.SessionID, rec.Digest[:min(12, len(rec.Digest))])
		if full {
			fmt.Fprintf(out, "  %s\n", rec.State)
		}
	}
	return nil
}

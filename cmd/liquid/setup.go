package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"liquid/internal/config"
)

func setupCmd() *cobra.Command {
	var name string
	var apiKey string
	var storeDSN string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save the display name and API key used by serve, chat and mcp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, name, apiKey, storeDSN)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name the assistant addresses")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (prompted when omitted)")
	cmd.Flags().StringVar(&storeDSN, "store", "", "History store DSN (postgres:// or sqlite://)")
	return cmd
}

func runSetup(cmd *cobra.Command, name, apiKey, storeDSN string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	reader := bufio.NewReader(cmd.InOrStdin())
	if strings.TrimSpace(name) == "" {
		if name, err = askLine(cmd, reader, "Your name: "); err != nil {
			return err
		}
	}
	if strings.TrimSpace(apiKey) == "" {
		if apiKey, err = askLine(cmd, reader, "Gemini API key: "); err != nil {
			return err
		}
	}

	settings := &config.Settings{
		APIKey:      strings.TrimSpace(apiKey),
		DisplayName: strings.TrimSpace(name),
		StoreDSN:    strings.TrimSpace(storeDSN),
	}
	if err := config.SaveSettings(a.settingsDir, settings); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved settings for %s in %s\n", settings.DisplayName, a.settingsDir)
	return nil
}

func askLine(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

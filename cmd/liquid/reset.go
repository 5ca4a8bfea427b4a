package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liquid/internal/config"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved settings so the next start runs setup again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			if err := config.ResetSettings(a.settingsDir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings cleared.")
			return nil
		},
	}
}

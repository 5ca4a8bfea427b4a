package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "liquid",
		Short:         "Generative UI loop: chat with a model, render the tools it describes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "liquid.yaml", "Path to the project config")
	root.PersistentFlags().StringVar(&settingsDirFlag, "settings-dir", "", "Directory holding the settings record (default: user config dir)")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(setupCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liquid/internal/extract"
	"liquid/internal/render"
)

func renderCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the tool embedded in a saved model reply",
		Long:  "Render the tool embedded in a saved model reply. Reads stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or html")
	return cmd
}

func runRender(cmd *cobra.Command, args []string, format string) error {
	input, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	reply, err := extract.Decode(string(input))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reply.Chat != "" {
		fmt.Fprintln(out, reply.Chat)
	}
	if reply.Tool == nil {
		return nil
	}

	elements := render.NewWalker().Render(reply.Tool.Layout, reply.Tool.State)
	switch format {
	case "text":
		return render.WriteText(out, elements)
	case "html":
		return render.WriteHTML(out, elements, render.HTMLOptions{})
	default:
		return fmt.Errorf("unknown format %q, expected text or html", format)
	}
}

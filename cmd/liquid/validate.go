package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"liquid/internal/extract"
	"liquid/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Lint the tool layout embedded in a saved model reply",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	reply, err := extract.Decode(string(input))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reply.Tool == nil {
		fmt.Fprintln(out, "Reply carries no tool.")
		return nil
	}

	report := validate.Layout(reply.Tool.Layout, reply.Tool.State)
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(out, "  - node %s: %s (%s)\n", issue.Path, issue.Message, issue.Code)
	}
}

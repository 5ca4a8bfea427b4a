package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"liquid/internal/render"
	"liquid/internal/session"
)

func chatCmd() *cobra.Command {
	var once string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model in the terminal",
		Long: "Chat with the model in the terminal. Type a message to send it.\n" +
			"Type /press <path> to activate a button, /state to print the tool state, /quit to exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, once)
		},
	}
	cmd.Flags().StringVar(&once, "once", "", "Send one message, print the reply and exit")
	return cmd
}

func runChat(cmd *cobra.Command, once string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	settings, err := a.loadSettings()
	if err != nil {
		return err
	}
	s, err := a.newSession(ctx, settings)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if once != "" {
		return sendAndPrint(ctx, out, s, once)
	}

	fmt.Fprintf(out, "Hi %s. Ask for a tool, or /quit.\n", settings.DisplayName)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/state":
			state, err := s.View().State.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(state))
		case strings.HasPrefix(line, "/press"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/press"))
			if err := pressAndPrint(ctx, out, s, path); err != nil {
				return err
			}
		default:
			if err := sendAndPrint(ctx, out, s, line); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func sendAndPrint(ctx context.Context, out io.Writer, s *session.Session, text string) error {
	entry, err := s.Submit(ctx, text)
	if errors.Is(err, session.ErrEmptyInput) {
		return nil
	}
	if err != nil {
		return err
	}
	if entry.Text != "" {
		fmt.Fprintln(out, entry.Text)
	}
	if entry.ToolID != "" {
		return printView(out, s.View())
	}
	return nil
}

func pressAndPrint(ctx context.Context, out io.Writer, s *session.Session, path string) error {
	notice, err := s.Activate(ctx, path)
	switch {
	case errors.Is(err, session.ErrNoSuchNode):
		fmt.Fprintf(out, "No button at %q.\n", path)
		return nil
	case err != nil:
		return err
	case notice != nil:
		fmt.Fprintln(out, notice.Message)
		return nil
	}
	return printView(out, s.View())
}

func printView(out io.Writer, view session.View) error {
	if view.Header != nil && view.Header.Title != "" {
		fmt.Fprintf(out, "== %s ==\n", view.Header.Title)
	}
	return render.WriteText(out, view.Elements)
}

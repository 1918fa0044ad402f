package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/assistant"
	"github.com/teemow/inboxai/internal/server"
)

const chatPrompt = "> "

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: `Start an interactive session. Each line is answered using the calendar
events and emails relevant to it. Results of earlier questions stay available
as context when a later fetch times out.

Type "exit" or "quit", or press Ctrl-D, to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			session := a.server.Sessions().Session(server.DefaultSessionID)
			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.server.Assistant(), session)
		},
	}
}

// runChat answers one question per input line until EOF, "exit" or ctx ends.
func runChat(ctx context.Context, in io.Reader, out io.Writer, asker server.Asker, session *aggregator.Session) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, `Ask about your calendar or email. Type "exit" to quit.`)

	for {
		fmt.Fprint(out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := answer(ctx, out, asker, session, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n\n", err)
		}
	}
}

// answer asks one question and prints the status lines and the answer.
func answer(ctx context.Context, out io.Writer, asker server.Asker, session *aggregator.Session, question string) error {
	ans, err := asker.Ask(ctx, session, question, func(line string) {
		fmt.Fprintf(out, "  %s\n", line)
	})
	if err != nil {
		if errors.Is(err, assistant.ErrMissingCredential) {
			return err
		}
		return fmt.Errorf("failed to answer: %w", err)
	}
	fmt.Fprintf(out, "\n%s\n\n", ans.Content)
	return nil
}

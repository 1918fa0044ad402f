package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxai/internal/server"
)

func newAskCmd() *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Example: `  inboxai ask "what's on my calendar tomorrow"
  inboxai ask find emails from alice about the budget`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			question := strings.Join(args, " ")
			session := a.server.Sessions().Session(server.DefaultSessionID)

			stderr := cmd.ErrOrStderr()
			ans, err := a.server.Assistant().Ask(ctx, session, question, func(line string) {
				fmt.Fprintln(stderr, line)
			})
			if err != nil {
				return err
			}

			if showPrompt {
				fmt.Fprintf(stderr, "\n--- prompt ---\n%s\n--------------\n", ans.Prompt)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ans.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the prompt sent to the completion model to stderr")

	return cmd
}

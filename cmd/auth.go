package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxai/internal/google"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar and Gmail",
		Long: `Run the interactive Google authorization. Visit the printed URL, grant
read-only access to Calendar and Gmail, and paste the code back.

Requires INBOXAI_GOOGLE_CLIENT_ID and INBOXAI_GOOGLE_CLIENT_SECRET. The token
is stored in the user cache directory (or INBOXAI_TOKEN_DIR) and refreshed
automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.HasGoogleClient() {
				return errors.New("google OAuth client is not configured: set INBOXAI_GOOGLE_CLIENT_ID and INBOXAI_GOOGLE_CLIENT_SECRET")
			}

			path, err := tokenPath(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			provider := google.NewFileTokenProvider(
				google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret),
				path,
				google.WithLogger(logger),
				google.WithPrompter(stdinPrompter(cmd.InOrStdin(), out)),
			)

			if _, err := provider.Token(ctx, true); err != nil {
				return err
			}
			fmt.Fprintf(out, "Google authorization stored at %s\n", path)
			return nil
		},
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/intent"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
)

func newConfigureCmd() *cobra.Command {
	var (
		apiKey     string
		clearKey   bool
		testGoogle bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the completion API key and test the Google connection",
		Long: `Manage the completion API key and check Google access.

Without flags, reports whether an API key is stored.

  --api-key KEY   store KEY for later sessions
  --clear         remove the stored key
  --test-google   fetch today's calendar events and report how many were found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openKeyStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			switch {
			case clearKey:
				if err := store.Delete(ctx); err != nil {
					return fmt.Errorf("failed to clear API key: %w", err)
				}
				fmt.Fprintln(out, "API key removed")
			case cmd.Flags().Changed("api-key"):
				if err := saveAPIKey(ctx, store, apiKey, out); err != nil {
					return err
				}
			case !testGoogle:
				return showAPIKey(ctx, store, out)
			}

			if testGoogle {
				a, err := newApp(ctx, nil)
				if err != nil {
					return err
				}
				defer a.Close()
				logger.Debug("testing google connection")
				return testCalendar(ctx, a.server.CalendarClient(), time.Now().In(a.cfg.Location()), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Completion API key to store")
	cmd.Flags().BoolVar(&clearKey, "clear", false, "Remove the stored API key")
	cmd.Flags().BoolVar(&testGoogle, "test-google", false, "Test Google access by fetching today's calendar events")
	cmd.MarkFlagsMutuallyExclusive("api-key", "clear")

	return cmd
}

func saveAPIKey(ctx context.Context, store keystore.Store, key string, out io.Writer) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key must not be empty")
	}
	if err := store.Set(ctx, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	fmt.Fprintln(out, "API key saved")
	return nil
}

func showAPIKey(ctx context.Context, store keystore.Store, out io.Writer) error {
	key, err := store.Get(ctx)
	switch {
	case errors.Is(err, keystore.ErrNotConfigured):
		fmt.Fprintln(out, "No API key stored. Save one with: inboxai configure --api-key KEY")
		return nil
	case err != nil:
		return fmt.Errorf("failed to read API key: %w", err)
	}
	fmt.Fprintf(out, "API key stored (%s)\n", logging.SanitizeToken(key))
	return nil
}

// testCalendar lists today's events and reports the count.
func testCalendar(ctx context.Context, cal aggregator.CalendarSource, now time.Time, out io.Writer) error {
	events, err := cal.ListEvents(ctx, intent.ResolveDateRange("today", now))
	if err != nil {
		return fmt.Errorf("google connection failed: %w", err)
	}
	fmt.Fprintf(out, "Google connection OK: %d event(s) today\n", len(events))
	return nil
}

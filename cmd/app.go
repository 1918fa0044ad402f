package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/config"
	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
	"github.com/teemow/inboxai/internal/server"
)

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}
	if debugMode {
		cfg.Debug = true
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.Debug)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openKeyStore opens the configured key store. The returned close function
// releases backend connections.
func openKeyStore(cfg *config.Config) (keystore.Store, func(), error) {
	store, err := keystore.New(cfg.KeyStoreConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open key store: %w", err)
	}
	closeFn := func() {}
	if c, ok := store.(interface{ Close() }); ok {
		closeFn = c.Close
	}
	return store, closeFn, nil
}

// tokenPath returns the Google token file location.
func tokenPath(cfg *config.Config) (string, error) {
	return google.DefaultTokenPath(cfg.TokenDir)
}

// newTokenProvider returns the Google credential provider. A fixed access
// token takes precedence over the stored OAuth token. prompt may be nil.
func newTokenProvider(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, prompt google.AuthCodePrompter) (google.TokenProvider, error) {
	if cfg.GoogleAccessToken != "" {
		return google.NewStaticTokenProvider(cfg.GoogleAccessToken), nil
	}

	path, err := tokenPath(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.HasGoogleClient() {
		logger.Warn("Google OAuth client is not configured; calendar and mail fetches will fail",
			slog.String("hint", "set INBOXAI_GOOGLE_CLIENT_ID and INBOXAI_GOOGLE_CLIENT_SECRET, or INBOXAI_GOOGLE_ACCESS_TOKEN"))
	} else if !google.HasToken(path) && prompt == nil {
		logger.Warn("no Google token cached; run `inboxai auth` first", slog.String("path", path))
	}

	opts := []google.FileTokenProviderOption{google.WithLogger(logger), google.WithMetrics(metrics)}
	if prompt != nil {
		opts = append(opts, google.WithPrompter(prompt))
	}
	return google.NewFileTokenProvider(google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret), path, opts...), nil
}

// app holds everything a command needs to ask questions.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	keys    keystore.Store
	server  *server.ServerContext
	closeFn func()
}

// newApp wires the configuration, key store, completion client and Google
// clients into a ServerContext.
func newApp(ctx context.Context, metrics *instrumentation.Metrics) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openKeyStore(cfg)
	if err != nil {
		return nil, err
	}
	keys := keystore.WithOverride(store, cfg.APIKey)

	completer, err := completion.New(cfg.Completion())
	if err != nil {
		closeStore()
		return nil, err
	}

	tokens, err := newTokenProvider(cfg, logger, metrics, nil)
	if err != nil {
		closeStore()
		return nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Config:    cfg,
		Tokens:    tokens,
		Keys:      keys,
		Completer: completion.Instrument(completer, logger, metrics),
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		keys:   keys,
		server: sc,
		closeFn: func() {
			_ = sc.Shutdown()
			closeStore()
		},
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.closeFn()
}

// stdinPrompter prints the consent URL to out and reads the authorization
// code from in.
func stdinPrompter(in io.Reader, out io.Writer) google.AuthCodePrompter {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, authURL string) (string, error) {
		fmt.Fprintf(out, "Visit this URL to authorize inboxai:\n\n  %s\n\nPaste the authorization code: ", authURL)

		type result struct {
			line string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			done <- result{line, err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-done:
			if r.err != nil && !errors.Is(r.err, io.EOF) {
				return "", r.err
			}
			return strings.TrimSpace(r.line), nil
		}
	}
}

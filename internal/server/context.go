package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/assistant"
	"github.com/teemow/inboxai/internal/calendar"
	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/config"
	"github.com/teemow/inboxai/internal/gmail"
	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
)

// Options holds the dependencies of a ServerContext.
type Options struct {
	Config    *config.Config
	Tokens    google.TokenProvider
	Keys      keystore.Store
	Completer completion.Completer
	Logger    *slog.Logger
	Metrics   *instrumentation.Metrics

	// GoogleOptions are passed to the generated Google API clients.
	GoogleOptions []option.ClientOption
}

// ServerContext owns the long-lived clients shared by the CLI, the message
// bridge and the MCP tools.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	config    *config.Config
	calendar  *calendar.Client
	gmail     *gmail.Client
	keys      keystore.Store
	completer completion.Completer
	gatherer  *aggregator.Aggregator
	assistant *assistant.Assistant
	sessions  *SessionManager
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	mu        sync.RWMutex
	shutdown  bool
}

// NewServerContext wires the clients together. Google clients never prompt for
// consent; run `inboxai auth` first.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token provider is required")
	}
	if opts.Keys == nil {
		return nil, errors.New("key store is required")
	}
	if opts.Completer == nil {
		return nil, errors.New("completer is required")
	}
	logger := logging.OrDefault(opts.Logger)

	cal, err := calendar.NewClient(opts.Tokens, logger, opts.Metrics, opts.GoogleOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	mail, err := gmail.NewClient(opts.Tokens, logger, opts.Metrics, opts.GoogleOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}

	cfg := opts.Config
	gatherer := aggregator.New(cal, mail,
		aggregator.WithTimeout(cfg.SourceTimeout),
		aggregator.WithMaxResults(cfg.MailMaxResults),
		aggregator.WithLocation(cfg.Location()),
		aggregator.WithLogger(logger),
		aggregator.WithMetrics(opts.Metrics),
	)

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		config:    cfg,
		calendar:  cal,
		gmail:     mail,
		keys:      opts.Keys,
		completer: opts.Completer,
		gatherer:  gatherer,
		assistant: assistant.New(gatherer, opts.Keys, opts.Completer, logger, opts.Metrics),
		sessions:  NewSessionManager(cfg.SessionTTL, logger, opts.Metrics),
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// Context returns the server context. It is canceled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the application settings.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// CalendarClient returns the Calendar client.
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.calendar
}

// GmailClient returns the Gmail client.
func (sc *ServerContext) GmailClient() *gmail.Client {
	return sc.gmail
}

// Keys returns the API key store.
func (sc *ServerContext) Keys() keystore.Store {
	return sc.keys
}

// Completer returns the completion client.
func (sc *ServerContext) Completer() completion.Completer {
	return sc.completer
}

// Aggregator returns the context aggregator.
func (sc *ServerContext) Aggregator() *aggregator.Aggregator {
	return sc.gatherer
}

// Assistant returns the question pipeline.
func (sc *ServerContext) Assistant() *assistant.Assistant {
	return sc.assistant
}

// Sessions returns the session manager.
func (sc *ServerContext) Sessions() *SessionManager {
	return sc.sessions
}

// Logger returns the base logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and stops session cleanup.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.sessions.Stop()
	sc.cancel()
	return nil
}

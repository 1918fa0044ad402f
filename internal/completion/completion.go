package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/logging"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NoResponse is returned as content when the endpoint answers without text.
const NoResponse = "(No response)"

// ErrMissingAPIKey is returned when a request carries no API key.
var ErrMissingAPIKey = errors.New("API key is required")

// Request is one prompt to complete.
type Request struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"apiKey"`
}

// Response is the endpoint's answer.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Completer completes prompts.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
	Model() string
}

// Error is a failed completion call.
type Error struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s completion failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
}

// New creates the Completer named by cfg.Provider. An empty provider selects
// OpenAI.
func New(cfg Config) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg.Model, cfg.BaseURL), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q (supported: %s, %s)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}
}

func contentOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoResponse
	}
	return s
}

// instrumented decorates a Completer with tracing, metrics and logging.
type instrumented struct {
	next    Completer
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Instrument wraps c with a span, completion metrics and debug logging.
func Instrument(c Completer, logger *slog.Logger, metrics *instrumentation.Metrics) Completer {
	return &instrumented{
		next:    c,
		logger:  logging.OrDefault(logger).With(logging.Provider(c.Provider())),
		metrics: metrics,
	}
}

func (i *instrumented) Provider() string { return i.next.Provider() }
func (i *instrumented) Model() string    { return i.next.Model() }

func (i *instrumented) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, span := instrumentation.StartCompletionSpan(ctx, i.next.Provider(), i.next.Model())
	defer span.End()
	start := time.Now()

	i.logger.Debug("sending completion request",
		slog.Int("prompt_chars", len(req.Prompt)),
		slog.String("api_key", logging.SanitizeToken(req.APIKey)))

	resp, err := i.next.Complete(ctx, req)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		i.logger.Warn("completion request failed", logging.Err(err), slog.Duration(logging.KeyDuration, duration))
	} else {
		instrumentation.SetSpanSuccess(span)
		i.logger.Debug("completion request finished", slog.Duration(logging.KeyDuration, duration))
	}
	i.metrics.RecordCompletion(ctx, i.next.Provider(), status, duration)
	return resp, err
}

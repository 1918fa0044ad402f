package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
	"github.com/teemow/inboxai/internal/prompt"
)

// dateLayout renders date range bounds in status lines.
const dateLayout = "1/2/2006"

var (
	// ErrEmptyQuery is returned for a blank question.
	ErrEmptyQuery = errors.New("question is empty")

	// ErrMissingCredential is returned when no API key is configured. No
	// context is fetched and no completion request is sent.
	ErrMissingCredential = errors.New("missing API key: save one with `inboxai configure --api-key`")

	// ErrSuperseded is returned when a newer question started on the same
	// session before this one finished gathering. No completion is requested.
	ErrSuperseded = errors.New("question superseded by a newer one")
)

// StatusFunc receives progress lines. It may be nil.
type StatusFunc func(line string)

// Answer is the result of one question.
type Answer struct {
	Content string            `json:"content"`
	Prompt  string            `json:"prompt,omitempty"`
	QueryID string            `json:"queryId"`
	Report  aggregator.Report `json:"report"`
}

// Assistant answers questions.
type Assistant struct {
	gatherer  *aggregator.Aggregator
	keys      keystore.Store
	completer completion.Completer
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// New creates an Assistant.
func New(gatherer *aggregator.Aggregator, keys keystore.Store, completer completion.Completer, logger *slog.Logger, metrics *instrumentation.Metrics) *Assistant {
	return &Assistant{
		gatherer:  gatherer,
		keys:      keys,
		completer: completer,
		logger:    logging.WithOperation(logging.OrDefault(logger), "ask"),
		metrics:   metrics,
	}
}

// Ask answers question using and updating the context held by s.
func (a *Assistant) Ask(ctx context.Context, s *aggregator.Session, question string, status StatusFunc) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}
	if status == nil {
		status = func(string) {}
	}

	ctx, span := instrumentation.StartSpan(ctx, "assistant.ask", attribute.String("session", s.ID()))
	defer span.End()

	answer, err := a.ask(ctx, s, question, status)

	result := instrumentation.StatusSuccess
	if err != nil {
		result = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		span.SetAttributes(attribute.String(instrumentation.SpanAttrQueryID, answer.QueryID))
		instrumentation.SetSpanSuccess(span)
	}
	a.metrics.RecordQuery(ctx, result)
	return answer, err
}

func (a *Assistant) ask(ctx context.Context, s *aggregator.Session, question string, status StatusFunc) (*Answer, error) {
	key, err := a.keys.Get(ctx)
	if errors.Is(err, keystore.ErrNotConfigured) {
		return nil, ErrMissingCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read API key: %w", err)
	}

	plan := a.gatherer.Plan(question)
	if plan.Intent.Calendar {
		status("Checking calendar...")
	}
	if plan.Intent.Email {
		status(fmt.Sprintf("Searching emails for: %q", plan.Query))
	}

	report := a.gatherer.Execute(ctx, s, plan)
	if report.Superseded {
		a.logger.Debug("dropping superseded question", logging.QueryID(report.QueryID), logging.Session(s.ID()))
		return nil, ErrSuperseded
	}
	for _, line := range StatusLines(report, a.gatherer.Location()) {
		status(line)
	}

	logger := a.logger.With(logging.QueryID(report.QueryID), logging.Session(s.ID()))
	text := prompt.Build(PromptInput(s.Snapshot(), question, a.gatherer.Location()))
	logger.Debug("prompt built", slog.Int("prompt_chars", len(text)), slog.String("question", logging.SanitizeQuery(question)))

	start := time.Now()
	resp, err := a.completer.Complete(ctx, completion.Request{Prompt: text, APIKey: key})
	if err != nil {
		return nil, err
	}
	attrs := []any{slog.Duration(logging.KeyDuration, time.Since(start))}
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	logger.Info("question answered", attrs...)

	return &Answer{
		Content: resp.Content,
		Prompt:  text,
		QueryID: report.QueryID,
		Report:  report,
	}, nil
}

// PromptInput assembles the prompt builder input from a session snapshot.
func PromptInput(snap aggregator.Snapshot, question string, loc *time.Location) prompt.Input {
	return prompt.Input{
		Events:        snap.Events,
		SearchResults: snap.SearchResults,
		CurrentEmail:  snap.CurrentEmail,
		Inbox:         snap.Inbox,
		Question:      question,
		Location:      loc,
	}
}

// StatusLines describes the outcome of each fetched source. Superseded reports
// produce no lines.
func StatusLines(report aggregator.Report, loc *time.Location) []string {
	if report.Superseded {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	var lines []string
	if rep := report.Calendar; rep != nil {
		switch rep.Outcome {
		case instrumentation.OutcomeFetched:
			line := fmt.Sprintf("Calendar loaded — %d event(s)", rep.Count)
			if r := rep.DateRange; r != nil {
				line += fmt.Sprintf(" (%s - %s)", r.Min.In(loc).Format(dateLayout), r.Max.In(loc).Format(dateLayout))
			}
			lines = append(lines, line)
		case instrumentation.OutcomeTimeout:
			lines = append(lines, "Calendar did not respond in time; using previous events")
		default:
			lines = append(lines, fmt.Sprintf("Calendar unavailable: %v", rep.Err))
		}
	}
	if rep := report.Mail; rep != nil {
		switch {
		case rep.Outcome == instrumentation.OutcomeTimeout:
			lines = append(lines, "Email search did not respond in time; using previous results")
		case rep.Outcome == instrumentation.OutcomeError:
			lines = append(lines, fmt.Sprintf("Email search failed: %v", rep.Err))
		case rep.Count > 0:
			lines = append(lines, fmt.Sprintf("Found %d email(s) for %q", rep.Count, rep.Query))
		default:
			lines = append(lines, fmt.Sprintf("No emails found for %q", rep.Query))
		}
	}
	return lines
}

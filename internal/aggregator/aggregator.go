package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxai/internal/calendar"
	"github.com/teemow/inboxai/internal/gmail"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/intent"
	"github.com/teemow/inboxai/internal/logging"
)

// DefaultSourceTimeout bounds each source fetch.
const DefaultSourceTimeout = 5 * time.Second

var (
	// ErrSourceTimeout is reported for a source that did not answer in time.
	ErrSourceTimeout = errors.New("source did not respond in time")

	// ErrSourceUnavailable is reported for a selected source that has no backend.
	ErrSourceUnavailable = errors.New("source not configured")
)

// CalendarSource lists calendar events.
type CalendarSource interface {
	ListEvents(ctx context.Context, r calendar.DateRange) ([]calendar.Event, error)
}

// MailSource searches the mailbox.
type MailSource interface {
	SearchMessages(ctx context.Context, query string, maxResults int64) ([]gmail.Message, error)
}

// Plan is what Gather will fetch for one question.
type Plan struct {
	Question  string
	Intent    intent.Intent
	DateRange calendar.DateRange
	Query     string
}

// SourceReport describes what happened to one selected source.
type SourceReport struct {
	Source    string              `json:"source"`
	Outcome   string              `json:"outcome"`
	Count     int                 `json:"count"`
	Err       error               `json:"-"`
	DateRange *calendar.DateRange `json:"dateRange,omitempty"`
	Query     string              `json:"query,omitempty"`
	Duration  time.Duration       `json:"duration"`
}

// Report summarizes one Gather call. Calendar and Mail are nil for sources the
// question did not select.
type Report struct {
	QueryID  string        `json:"queryId"`
	Intent   intent.Intent `json:"intent"`
	Calendar *SourceReport `json:"calendar,omitempty"`
	Mail     *SourceReport `json:"mail,omitempty"`

	// Superseded is set when a newer query started on the session before this
	// one finished; its results were not applied.
	Superseded bool `json:"superseded,omitempty"`
}

// Aggregator fans out the context fetches for a question.
type Aggregator struct {
	calendar   CalendarSource
	mail       MailSource
	timeout    time.Duration
	maxResults int64
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-source timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxResults sets the mail search page size.
func WithMaxResults(n int64) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxResults = n
		}
	}
}

// WithLocation sets the time zone date ranges are resolved in.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithClock overrides the time source used for date ranges.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// New creates an Aggregator. Either source may be nil; questions selecting a
// missing source report ErrSourceUnavailable for it.
func New(cal CalendarSource, mail MailSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		calendar:   cal,
		mail:       mail,
		timeout:    DefaultSourceTimeout,
		maxResults: gmail.DefaultMaxResults,
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.WithOperation(logging.OrDefault(a.logger), "gather")
	return a
}

// Location returns the time zone date ranges are resolved in.
func (a *Aggregator) Location() *time.Location {
	return a.location
}

// Plan classifies the question and resolves the source parameters.
func (a *Aggregator) Plan(question string) Plan {
	p := Plan{Question: question, Intent: intent.Detect(question)}
	if p.Intent.Calendar {
		p.DateRange = intent.ResolveDateRange(question, a.now().In(a.location))
	}
	if p.Intent.Email {
		p.Query = intent.ExtractSearchTerms(question)
	}
	return p
}

// Gather plans the question and executes the plan on the session.
func (a *Aggregator) Gather(ctx context.Context, s *Session, question string) Report {
	return a.Execute(ctx, s, a.Plan(question))
}

// Execute runs the fetches selected by p in parallel and waits for all of them.
// It never fails: per-source problems are recorded in the report.
func (a *Aggregator) Execute(ctx context.Context, s *Session, p Plan) Report {
	queryID := s.begin()
	ctx, span := instrumentation.StartSpan(ctx, "aggregator.gather",
		attribute.String(instrumentation.SpanAttrQueryID, queryID),
		attribute.Bool("intent.calendar", p.Intent.Calendar),
		attribute.Bool("intent.email", p.Intent.Email),
	)
	defer span.End()

	report := Report{QueryID: queryID, Intent: p.Intent}
	logger := a.logger.With(logging.QueryID(queryID), logging.Session(s.ID()))

	var (
		wg     sync.WaitGroup
		events []calendar.Event
		msgs   []gmail.Message
	)
	if p.Intent.Calendar {
		r := p.DateRange
		report.Calendar = &SourceReport{Source: instrumentation.SourceCalendar, DateRange: &r}
		wg.Add(1)
		go func() {
			defer wg.Done()
			events = a.fetchCalendar(ctx, report.Calendar, r)
		}()
	}
	if p.Intent.Email {
		report.Mail = &SourceReport{Source: instrumentation.SourceMail, Query: p.Query}
		wg.Add(1)
		go func() {
			defer wg.Done()
			msgs = a.fetchMail(ctx, report.Mail, p.Query)
		}()
	}
	wg.Wait()

	applied := s.applyIfActive(queryID, func(s *Session) {
		if rep := report.Calendar; rep != nil && rep.Outcome == instrumentation.OutcomeFetched {
			s.events = events
		}
		if rep := report.Mail; rep != nil {
			switch rep.Outcome {
			case instrumentation.OutcomeFetched:
				s.search = msgs
			case instrumentation.OutcomeError:
				s.search = nil
			}
		}
	})
	if !applied {
		report.Superseded = true
		logger.Debug("discarding results of superseded query")
	}

	for _, rep := range []*SourceReport{report.Calendar, report.Mail} {
		if rep == nil {
			continue
		}
		attrs := []any{logging.Source(rep.Source), logging.Status(rep.Outcome), logging.Count(rep.Count), slog.Duration(logging.KeyDuration, rep.Duration)}
		if rep.Err != nil {
			logger.Warn("context source failed", append(attrs, logging.Err(rep.Err))...)
		} else {
			logger.Debug("context source fetched", attrs...)
		}
	}
	instrumentation.SetSpanSuccess(span)
	return report
}

func (a *Aggregator) fetchCalendar(ctx context.Context, rep *SourceReport, r calendar.DateRange) []calendar.Event {
	if a.calendar == nil {
		a.record(ctx, rep, 0, ErrSourceUnavailable, 0)
		return nil
	}
	start := time.Now()
	events, err := await(ctx, a.timeout, func(ctx context.Context) ([]calendar.Event, error) {
		return a.calendar.ListEvents(ctx, r)
	})
	a.record(ctx, rep, len(events), err, time.Since(start))
	return events
}

func (a *Aggregator) fetchMail(ctx context.Context, rep *SourceReport, query string) []gmail.Message {
	if a.mail == nil {
		a.record(ctx, rep, 0, ErrSourceUnavailable, 0)
		return nil
	}
	start := time.Now()
	msgs, err := await(ctx, a.timeout, func(ctx context.Context) ([]gmail.Message, error) {
		return a.mail.SearchMessages(ctx, query, a.maxResults)
	})
	a.record(ctx, rep, len(msgs), err, time.Since(start))
	return msgs
}

func (a *Aggregator) record(ctx context.Context, rep *SourceReport, count int, err error, d time.Duration) {
	rep.Duration = d
	rep.Err = err
	switch {
	case err == nil:
		rep.Outcome = instrumentation.OutcomeFetched
		rep.Count = count
	case errors.Is(err, ErrSourceTimeout), errors.Is(err, context.Canceled):
		rep.Outcome = instrumentation.OutcomeTimeout
	default:
		rep.Outcome = instrumentation.OutcomeError
	}
	a.metrics.RecordSourceFetch(ctx, rep.Source, rep.Outcome, d)
}

type result[T any] struct {
	items []T
	err   error
}

// await runs fetch with its own deadline. The fetch is canceled when the
// deadline passes; a fetch that ignores cancellation is abandoned and its late
// result is dropped.
func await[T any](ctx context.Context, timeout time.Duration, fetch func(context.Context) ([]T, error)) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		items, err := fetch(ctx)
		done <- result[T]{items: items, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrSourceTimeout, timeout)
		}
		return r.items, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrSourceTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/logging"
)

// PrimaryCalendar is the calendar id of the user's own calendar.
const PrimaryCalendar = "primary"

// Client lists events from the primary calendar. A fresh token is requested from
// the provider for every call, so a revoked grant surfaces on the next fetch.
type Client struct {
	tokens      google.TokenProvider
	opts        []option.ClientOption
	interactive bool
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// NewClient creates a Calendar client. Extra options are passed to the
// generated API service, which lets tests point it at a local endpoint.
func NewClient(tokens google.TokenProvider, logger *slog.Logger, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	return &Client{
		tokens:  tokens,
		opts:    opts,
		metrics: metrics,
		logger:  logging.WithService(logging.OrDefault(logger), instrumentation.ServiceCalendar),
	}, nil
}

// SetInteractive controls whether token requests may prompt for consent.
func (c *Client) SetInteractive(interactive bool) {
	c.interactive = interactive
}

func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	httpClient, err := google.NewHTTPClient(ctx, c.tokens, c.interactive)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

// ListEvents returns the single (expanded) events of the primary calendar inside
// r, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, r DateRange) ([]Event, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList)
	defer span.End()
	start := time.Now()

	events, err := c.listEvents(ctx, r)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList, status, time.Since(start))

	return events, err
}

func (c *Client) listEvents(ctx context.Context, r DateRange) ([]Event, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(PrimaryCalendar).
		TimeMin(r.Min.Format(time.RFC3339Nano)).
		TimeMax(r.Max.Format(time.RFC3339Nano)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, google.ClassifyError(instrumentation.ServiceCalendar, instrumentation.OperationList, err)
	}

	loc := r.Min.Location()
	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item, loc))
	}

	c.logger.Debug("calendar events listed", logging.Count(len(events)))
	return events, nil
}

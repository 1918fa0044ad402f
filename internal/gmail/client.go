package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/logging"
)

const (
	me = "me"

	// DefaultMaxResults is the page size for searches and inbox snapshots.
	DefaultMaxResults = 10
)

// Client reads message metadata from the user's mailbox. A fresh token is
// requested from the provider for every call.
type Client struct {
	tokens      google.TokenProvider
	opts        []option.ClientOption
	interactive bool
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// NewClient creates a Gmail client. Extra options are passed to the generated
// API service.
func NewClient(tokens google.TokenProvider, logger *slog.Logger, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	return &Client{
		tokens:  tokens,
		opts:    opts,
		metrics: metrics,
		logger:  logging.WithService(logging.OrDefault(logger), instrumentation.ServiceGmail),
	}, nil
}

// SetInteractive controls whether token requests may prompt for consent.
func (c *Client) SetInteractive(interactive bool) {
	c.interactive = interactive
}

func (c *Client) users(ctx context.Context) (*gmail.UsersService, error) {
	httpClient, err := google.NewHTTPClient(ctx, c.tokens, c.interactive)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc.Users, nil
}

// SearchMessages runs a Gmail search query and returns the metadata of up to
// maxResults matching messages in the order Gmail ranks them.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int64) ([]Message, error) {
	return c.instrumented(ctx, instrumentation.OperationSearch, func(ctx context.Context) ([]Message, error) {
		return c.listMessages(ctx, query, nil, maxResults)
	})
}

// RecentThreads returns the newest messages in the inbox as overview rows.
func (c *Client) RecentThreads(ctx context.Context, maxResults int64) ([]InboxThread, error) {
	msgs, err := c.instrumented(ctx, instrumentation.OperationList, func(ctx context.Context) ([]Message, error) {
		return c.listMessages(ctx, "", []string{"INBOX"}, maxResults)
	})
	if err != nil {
		return nil, err
	}

	threads := make([]InboxThread, 0, len(msgs))
	for _, m := range msgs {
		threads = append(threads, m.Thread())
	}
	return threads, nil
}

func (c *Client) instrumented(ctx context.Context, operation string, fn func(context.Context) ([]Message, error)) ([]Message, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()
	start := time.Now()

	msgs, err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	return msgs, err
}

// listMessages lists one page of message ids and fetches each message's
// metadata. Ids repeated in the listing are fetched once.
func (c *Client) listMessages(ctx context.Context, query string, labels []string, maxResults int64) ([]Message, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	users, err := c.users(ctx)
	if err != nil {
		return nil, err
	}

	call := users.Messages.List(me).MaxResults(maxResults).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	if len(labels) > 0 {
		call = call.LabelIds(labels...)
	}
	list, err := call.Do()
	if err != nil {
		return nil, google.ClassifyError(instrumentation.ServiceGmail, instrumentation.OperationList, err)
	}

	seen := make(map[string]bool, len(list.Messages))
	msgs := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if ref == nil || ref.Id == "" || seen[ref.Id] {
			continue
		}
		seen[ref.Id] = true

		full, err := users.Messages.Get(me, ref.Id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, google.ClassifyError(instrumentation.ServiceGmail, instrumentation.OperationGet, err)
		}
		msgs = append(msgs, toMessage(full))
	}

	c.logger.Debug("gmail messages fetched", logging.Count(len(msgs)))
	return msgs, nil
}

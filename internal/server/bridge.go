package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/assistant"
	"github.com/teemow/inboxai/internal/calendar"
	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/gmail"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/intent"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
)

// Request message types accepted by the bridge.
const (
	TypeRequestStoredKey     = "RequestStoredKey"
	TypeRequestCalendar      = "RequestCalendar"
	TypeSearchMail           = "SearchMail"
	TypeInboxSnapshotRequest = "InboxSnapshotRequest"
	TypeCompletionRequest    = "CompletionRequest"
	TypeSetCurrentEmail      = "SetCurrentEmail"
	TypeSetInboxOverview     = "SetInboxOverview"
	TypeAsk                  = "Ask"
)

// Reply message types.
const (
	TypeStorageResponse       = "StorageResponse"
	TypeCalendarResponse      = "CalendarResponse"
	TypeMailSearchResponse    = "MailSearchResponse"
	TypeInboxSnapshotResponse = "InboxSnapshotResponse"
	TypeCompletionResponse    = "CompletionResponse"
	TypeAckResponse           = "AckResponse"
	TypeAskResponse           = "AskResponse"
	TypeErrorResponse         = "ErrorResponse"
)

// BridgePath is where the bridge is mounted.
const BridgePath = "/api/messages"

// ErrUnknownType is the error text returned for unsupported message types.
const ErrUnknownType = "Unknown request type."

const maxMessageBytes = 1 << 20

// Message is a request from the host page.
type Message struct {
	Type        string              `json:"type"`
	Query       string              `json:"query,omitempty"`
	SearchQuery string              `json:"searchQuery,omitempty"`
	Prompt      string              `json:"prompt,omitempty"`
	APIKey      string              `json:"apiKey,omitempty"`
	Email       *gmail.CurrentEmail `json:"email,omitempty"`
	Threads     []gmail.InboxThread `json:"threads,omitempty"`
}

// Reply is the bridge's answer to one Message.
type Reply struct {
	Type  string `json:"type"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// StorageData carries the stored API key. It is empty when none is stored.
type StorageData struct {
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`
}

// CalendarData is the reply to RequestCalendar.
type CalendarData struct {
	Success   bool                `json:"success"`
	Events    []calendar.Event    `json:"events"`
	DateRange *calendar.DateRange `json:"dateRange,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// MailSearchData is the reply to SearchMail.
type MailSearchData struct {
	Success  bool            `json:"success"`
	Messages []gmail.Message `json:"messages"`
	Query    string          `json:"query,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// InboxSnapshotData is the reply to InboxSnapshotRequest.
type InboxSnapshotData struct {
	Success bool                `json:"success"`
	Threads []gmail.InboxThread `json:"threads"`
	Error   string              `json:"error,omitempty"`
}

// CompletionData is the reply to CompletionRequest.
type CompletionData struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AskData is the reply to Ask.
type AskData struct {
	Success bool     `json:"success"`
	Content string   `json:"content,omitempty"`
	Status  []string `json:"status,omitempty"`
	QueryID string   `json:"queryId,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// AckData acknowledges a state update.
type AckData struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MailFetcher searches mail and lists the inbox.
type MailFetcher interface {
	aggregator.MailSource
	RecentThreads(ctx context.Context, maxResults int64) ([]gmail.InboxThread, error)
}

// Asker answers questions against a session.
type Asker interface {
	Ask(ctx context.Context, s *aggregator.Session, question string, status assistant.StatusFunc) (*assistant.Answer, error)
}

// BridgeConfig holds the dependencies of a Bridge.
type BridgeConfig struct {
	Calendar   aggregator.CalendarSource
	Mail       MailFetcher
	Keys       keystore.Store
	Completer  completion.Completer
	Assistant  Asker
	Sessions   *SessionManager
	Location   *time.Location
	Now        func() time.Time
	MaxResults int64
	InboxLimit int64
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
}

// Bridge relays host page messages to the Google, key store and completion
// clients. Fetch failures are reported inside the reply data with
// success=false rather than as HTTP errors.
type Bridge struct {
	cfg      BridgeConfig
	handlers map[string]func(ctx context.Context, s *aggregator.Session, msg Message) Reply
	logger   *slog.Logger
}

// NewBridge creates a Bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = gmail.DefaultMaxResults
	}
	if cfg.InboxLimit <= 0 {
		cfg.InboxLimit = gmail.DefaultMaxResults
	}

	b := &Bridge{
		cfg:    cfg,
		logger: logging.WithOperation(logging.OrDefault(cfg.Logger), "bridge"),
	}
	b.handlers = map[string]func(context.Context, *aggregator.Session, Message) Reply{
		TypeRequestStoredKey:     b.handleStoredKey,
		TypeRequestCalendar:      b.handleCalendar,
		TypeSearchMail:           b.handleSearchMail,
		TypeInboxSnapshotRequest: b.handleInboxSnapshot,
		TypeCompletionRequest:    b.handleCompletion,
		TypeSetCurrentEmail:      b.handleSetCurrentEmail,
		TypeSetInboxOverview:     b.handleSetInboxOverview,
		TypeAsk:                  b.handleAsk,
	}
	return b
}

// Bridge returns a Bridge wired to the server's clients.
func (sc *ServerContext) Bridge() *Bridge {
	return NewBridge(BridgeConfig{
		Calendar:   sc.calendar,
		Mail:       sc.gmail,
		Keys:       sc.keys,
		Completer:  sc.completer,
		Assistant:  sc.assistant,
		Sessions:   sc.sessions,
		Location:   sc.config.Location(),
		MaxResults: sc.config.MailMaxResults,
		InboxLimit: sc.config.InboxLimit,
		Logger:     sc.logger,
		Metrics:    sc.metrics,
	})
}

// Handle dispatches one message for session s.
func (b *Bridge) Handle(ctx context.Context, s *aggregator.Session, msg Message) Reply {
	handler, ok := b.handlers[msg.Type]
	if !ok {
		b.cfg.Metrics.RecordBridgeMessage(ctx, "unknown", instrumentation.StatusError)
		b.logger.Warn("unknown message type", slog.String("type", msg.Type))
		return Reply{Type: TypeErrorResponse, Data: AckData{Success: false, Error: ErrUnknownType}}
	}

	reply := handler(ctx, s, msg)

	status := instrumentation.StatusSuccess
	if failed(reply) {
		status = instrumentation.StatusError
	}
	b.cfg.Metrics.RecordBridgeMessage(ctx, msg.Type, status)
	return reply
}

func failed(r Reply) bool {
	if r.Error != "" {
		return true
	}
	switch d := r.Data.(type) {
	case CalendarData:
		return !d.Success
	case MailSearchData:
		return !d.Success
	case InboxSnapshotData:
		return !d.Success
	case CompletionData:
		return !d.Success
	case AskData:
		return !d.Success
	case AckData:
		return !d.Success
	}
	return false
}

// ServeHTTP accepts one JSON Message per POST and writes the Reply.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, Reply{
			Type: TypeErrorResponse,
			Data: AckData{Success: false, Error: fmt.Sprintf("invalid message: %v", err)},
		})
		return
	}

	session := b.cfg.Sessions.SessionForRequest(r)
	writeJSON(w, http.StatusOK, b.Handle(r.Context(), session, msg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *Bridge) handleStoredKey(ctx context.Context, _ *aggregator.Session, _ Message) Reply {
	if b.cfg.Keys == nil {
		return Reply{Type: TypeStorageResponse, Data: StorageData{}}
	}
	key, err := b.cfg.Keys.Get(ctx)
	switch {
	case errors.Is(err, keystore.ErrNotConfigured):
		return Reply{Type: TypeStorageResponse, Data: StorageData{}}
	case err != nil:
		return Reply{Type: TypeStorageResponse, Data: StorageData{}, Error: err.Error()}
	}
	return Reply{Type: TypeStorageResponse, Data: StorageData{OpenAIAPIKey: key}}
}

func (b *Bridge) handleCalendar(ctx context.Context, _ *aggregator.Session, msg Message) Reply {
	if b.cfg.Calendar == nil {
		return Reply{Type: TypeCalendarResponse, Data: CalendarData{Error: aggregator.ErrSourceUnavailable.Error()}}
	}
	r := intent.ResolveDateRange(msg.Query, b.cfg.Now().In(b.cfg.Location))
	events, err := b.cfg.Calendar.ListEvents(ctx, r)
	if err != nil {
		b.logger.Warn("calendar request failed", logging.Err(err))
		return Reply{Type: TypeCalendarResponse, Data: CalendarData{Error: err.Error()}}
	}
	return Reply{Type: TypeCalendarResponse, Data: CalendarData{Success: true, Events: nonNil(events), DateRange: &r}}
}

func (b *Bridge) handleSearchMail(ctx context.Context, _ *aggregator.Session, msg Message) Reply {
	query := msg.SearchQuery
	if query == "" {
		query = msg.Query
	}
	if query == "" {
		return Reply{Type: TypeMailSearchResponse, Data: MailSearchData{Error: "search query is required"}}
	}
	if b.cfg.Mail == nil {
		return Reply{Type: TypeMailSearchResponse, Data: MailSearchData{Query: query, Error: aggregator.ErrSourceUnavailable.Error()}}
	}

	msgs, err := b.cfg.Mail.SearchMessages(ctx, query, b.cfg.MaxResults)
	if err != nil {
		b.logger.Warn("mail search failed", logging.Err(err))
		return Reply{Type: TypeMailSearchResponse, Data: MailSearchData{Query: query, Error: err.Error()}}
	}
	return Reply{Type: TypeMailSearchResponse, Data: MailSearchData{Success: true, Messages: nonNil(msgs), Query: query}}
}

func (b *Bridge) handleInboxSnapshot(ctx context.Context, s *aggregator.Session, _ Message) Reply {
	if b.cfg.Mail == nil {
		return Reply{Type: TypeInboxSnapshotResponse, Data: InboxSnapshotData{Error: aggregator.ErrSourceUnavailable.Error()}}
	}
	threads, err := b.cfg.Mail.RecentThreads(ctx, b.cfg.InboxLimit)
	if err != nil {
		b.logger.Warn("inbox snapshot failed", logging.Err(err))
		return Reply{Type: TypeInboxSnapshotResponse, Data: InboxSnapshotData{Error: err.Error()}}
	}
	s.SetInbox(threads)
	return Reply{Type: TypeInboxSnapshotResponse, Data: InboxSnapshotData{Success: true, Threads: nonNil(threads)}}
}

func (b *Bridge) handleCompletion(ctx context.Context, _ *aggregator.Session, msg Message) Reply {
	if b.cfg.Completer == nil {
		return Reply{Type: TypeCompletionResponse, Data: CompletionData{Error: "completion is not configured"}}
	}
	resp, err := b.cfg.Completer.Complete(ctx, completion.Request{Prompt: msg.Prompt, APIKey: msg.APIKey})
	if err != nil {
		return Reply{Type: TypeCompletionResponse, Data: CompletionData{Error: err.Error()}}
	}
	return Reply{Type: TypeCompletionResponse, Data: CompletionData{Success: true, Content: resp.Content}}
}

func (b *Bridge) handleSetCurrentEmail(_ context.Context, s *aggregator.Session, msg Message) Reply {
	s.SetCurrentEmail(msg.Email)
	if msg.Email != nil {
		b.logger.Debug("current email set", logging.Session(s.ID()), slog.String("sender", logging.AnonymizeEmail(msg.Email.Sender)))
	}
	return Reply{Type: TypeAckResponse, Data: AckData{Success: true}}
}

func (b *Bridge) handleSetInboxOverview(_ context.Context, s *aggregator.Session, msg Message) Reply {
	s.SetInbox(msg.Threads)
	return Reply{Type: TypeAckResponse, Data: AckData{Success: true}}
}

func (b *Bridge) handleAsk(ctx context.Context, s *aggregator.Session, msg Message) Reply {
	if b.cfg.Assistant == nil {
		return Reply{Type: TypeAskResponse, Data: AskData{Error: "assistant is not configured"}}
	}
	var status []string
	answer, err := b.cfg.Assistant.Ask(ctx, s, msg.Query, func(line string) {
		status = append(status, line)
	})
	if err != nil {
		return Reply{Type: TypeAskResponse, Data: AskData{Status: status, Error: err.Error()}}
	}
	return Reply{Type: TypeAskResponse, Data: AskData{
		Success: true,
		Content: answer.Content,
		Status:  status,
		QueryID: answer.QueryID,
	}}
}

// nonNil keeps successful empty fetches encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

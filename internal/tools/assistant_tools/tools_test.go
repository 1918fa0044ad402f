package assistant_tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/config"
	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
	"github.com/teemow/inboxai/internal/server"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			_, _ = w.Write([]byte(`{"items": [{"id": "e1", "summary": "Dentist", "description": "checkup",
				"start": {"dateTime": "2026-03-02T09:00:00Z"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			if r.URL.Query().Get("q") == "nothing" {
				_, _ = w.Write([]byte(`{}`))
				return
			}
			_, _ = w.Write([]byte(`{"messages": [{"id": "m1"}]}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"):
			_, _ = w.Write([]byte(`{"id": "m1", "snippet": "see attached", "payload": {"headers": [
				{"name": "Subject", "value": "Invoice"}, {"name": "From", "value": "Billing"},
				{"name": "Date", "value": "Mon, 2 Mar 2026 10:00:00 +0000"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"code": 404, "message": "not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubCompleter struct{ prompt string }

func (s *stubCompleter) Complete(_ context.Context, req completion.Request) (*completion.Response, error) {
	s.prompt = req.Prompt
	return &completion.Response{Content: "You have a dentist appointment."}, nil
}
func (s *stubCompleter) Provider() string { return "stub" }
func (s *stubCompleter) Model() string    { return "stub" }

func newServerContext(t *testing.T) (*server.ServerContext, keystore.Store, *stubCompleter) {
	t.Helper()
	srv := fakeGoogle(t)

	keys, err := keystore.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	cfg := &config.Config{
		CompletionProvider: "openai",
		KeyStore:           "file",
		SourceTimeout:      2 * time.Second,
		MailMaxResults:     10,
		InboxLimit:         10,
		SessionTTL:         time.Hour,
		LogFormat:          "text",
		TimeZone:           "UTC",
	}
	require.NoError(t, cfg.Validate())

	completer := &stubCompleter{}
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Config:        cfg,
		Tokens:        google.NewStaticTokenProvider("tok"),
		Keys:          keys,
		Completer:     completer,
		Logger:        logging.Discard(),
		GoogleOptions: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, keys, completer
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestRegisterAssistantTools(t *testing.T) {
	sc, _, _ := newServerContext(t)
	s := mcpserver.NewMCPServer("inboxai-test", "0.0.0", mcpserver.WithToolCapabilities(true))

	assert.NoError(t, RegisterAssistantTools(s, sc))
	assert.Error(t, RegisterAssistantTools(s, nil))
}

func TestHandleAsk(t *testing.T) {
	sc, keys, completer := newServerContext(t)
	ctx := context.Background()

	result, err := handleAsk(ctx, call(map[string]any{"query": "  "}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleAsk(ctx, call(map[string]any{"query": "what's on my calendar today"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "missing API key")

	require.NoError(t, keys.Set(ctx, "sk-test"))
	result, err = handleAsk(ctx, call(map[string]any{"query": "what's on my calendar today", "session": "s1"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, text(t, result))

	out := text(t, result)
	assert.Contains(t, out, "> Checking calendar...")
	assert.Contains(t, out, "> Calendar loaded")
	assert.True(t, strings.HasSuffix(out, "You have a dentist appointment."))
	assert.Contains(t, completer.prompt, "Dentist")

	assert.Len(t, sc.Sessions().Session("s1").Snapshot().Events, 1)
	assert.Empty(t, sc.Sessions().Session(server.DefaultSessionID).Snapshot().Events)
}

func TestHandleSetCurrentEmail(t *testing.T) {
	sc, _, _ := newServerContext(t)
	ctx := context.Background()

	result, err := handleSetCurrentEmail(ctx, call(map[string]any{"sender": "Bob", "subject": "Lunch", "body": "Noon?"}), sc)
	require.NoError(t, err)
	assert.Equal(t, "Current email set", text(t, result))

	current := sc.Sessions().Session(server.DefaultSessionID).Snapshot().CurrentEmail
	require.NotNil(t, current)
	assert.Equal(t, "Lunch", current.Subject)

	result, err = handleSetCurrentEmail(ctx, call(nil), sc)
	require.NoError(t, err)
	assert.Equal(t, "Current email cleared", text(t, result))
	assert.Nil(t, sc.Sessions().Session(server.DefaultSessionID).Snapshot().CurrentEmail)
}

func TestHandleListEvents(t *testing.T) {
	sc, _, _ := newServerContext(t)

	result, err := handleListEvents(context.Background(), call(map[string]any{"query": "tomorrow"}), sc)
	require.NoError(t, err)

	out := text(t, result)
	assert.Contains(t, out, "Found 1 events")
	assert.Contains(t, out, "1. Dentist")
	assert.Contains(t, out, "Start: 3/2/2026, 9:00:00 AM")
	assert.Contains(t, out, "Description: checkup")
}

func TestHandleSearch(t *testing.T) {
	sc, _, _ := newServerContext(t)
	ctx := context.Background()

	result, err := handleSearch(ctx, call(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleSearch(ctx, call(map[string]any{"query": "invoice"}), sc)
	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, `Found 1 emails for "invoice"`)
	assert.Contains(t, out, "From: Billing")
	assert.Contains(t, out, "Snippet: see attached")

	result, err = handleSearch(ctx, call(map[string]any{"query": "find emails about the invoice", "extract": true}), sc)
	require.NoError(t, err)
	assert.Contains(t, text(t, result), `for "invoice"`)

	result, err = handleSearch(ctx, call(map[string]any{"query": "nothing"}), sc)
	require.NoError(t, err)
	assert.Equal(t, `No emails found for "nothing"`, text(t, result))
}

func TestHandleRecentThreads(t *testing.T) {
	sc, _, _ := newServerContext(t)
	ctx := context.Background()

	result, err := handleRecentThreads(ctx, call(map[string]any{"limit": float64(0)}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleRecentThreads(ctx, call(map[string]any{"limit": float64(5), "session": "tab"}), sc)
	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, "Inbox has 1 recent messages")
	assert.Contains(t, out, "From: Billing | Subject: Invoice")

	inbox := sc.Sessions().Session("tab").Snapshot().Inbox
	require.Len(t, inbox, 1)
	assert.Equal(t, "Invoice", inbox[0].Subject)
}

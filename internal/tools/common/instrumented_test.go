package common

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/config"
	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
	"github.com/teemow/inboxai/internal/server"
)

type nopCompleter struct{}

func (nopCompleter) Complete(context.Context, completion.Request) (*completion.Response, error) {
	return &completion.Response{Content: completion.NoResponse}, nil
}
func (nopCompleter) Provider() string { return "nop" }
func (nopCompleter) Model() string    { return "nop" }

func newServerContext(t *testing.T, metrics *instrumentation.Metrics) *server.ServerContext {
	t.Helper()
	keys, err := keystore.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	cfg := &config.Config{
		CompletionProvider: "openai",
		KeyStore:           "file",
		SourceTimeout:      5 * time.Second,
		MailMaxResults:     10,
		InboxLimit:         10,
		SessionTTL:         30 * time.Minute,
		LogFormat:          "text",
	}
	require.NoError(t, cfg.Validate())

	sc, err := server.NewServerContext(context.Background(), server.Options{
		Config:    cfg,
		Tokens:    google.NewStaticTokenProvider("tok"),
		Keys:      keys,
		Completer: nopCompleter{},
		Logger:    logging.Discard(),
		Metrics:   metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

type fakeClientSession struct{ id string }

func (f fakeClientSession) Initialize()       {}
func (f fakeClientSession) Initialized() bool { return true }
func (f fakeClientSession) SessionID() string { return f.id }

func (f fakeClientSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return make(chan mcp.JSONRPCNotification, 1)
}

func TestInstrumentedToolHandler_RegistersWithServer(t *testing.T) {
	sc := newServerContext(t, nil)
	s := mcpserver.NewMCPServer("test", "1.0.0")

	s.AddTool(mcp.NewTool("test_tool"), InstrumentedToolHandler("test_tool", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		}))

	tool := s.GetTool("test_tool")
	require.NotNil(t, tool)
	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t, nil)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newServerContext(t, nil)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	assert.Equal(t, expectedErr, err)
}

func TestInstrumentedToolHandler_WithMetrics(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	sc := newServerContext(t, metrics)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad input"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSessionFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		expected string
	}{
		{name: "no session returns default", args: map[string]any{}, expected: server.DefaultSessionID},
		{name: "nil args returns default", args: nil, expected: server.DefaultSessionID},
		{name: "explicit session", args: map[string]any{"session": "tab-1"}, expected: "tab-1"},
		{name: "blank session returns default", args: map[string]any{"session": "  "}, expected: server.DefaultSessionID},
		{name: "non-string session returns default", args: map[string]any{"session": 123}, expected: server.DefaultSessionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SessionFromArgs(context.Background(), tt.args))
		})
	}
}

func TestSessionFromArgs_ClientSession(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "1.0.0")
	ctx := s.WithContext(context.Background(), fakeClientSession{id: "stdio"})

	assert.Equal(t, "tab-42", SessionFromArgs(ctx, map[string]any{"session": "tab-42"}))
	assert.Equal(t, "stdio", SessionFromArgs(ctx, map[string]any{}))
	assert.Equal(t, "stdio", SessionFromArgs(ctx, map[string]any{"session": " "}))
}

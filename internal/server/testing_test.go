package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/config"
	"github.com/teemow/inboxai/internal/google"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
)

// fakeGoogle serves the Calendar and Gmail endpoints the clients call.
type fakeGoogle struct {
	mu         sync.Mutex
	failStatus int
	empty      bool
	lastQuery  string
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.failStatus != 0 {
		w.WriteHeader(f.failStatus)
		_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "backend failure"}}`, f.failStatus)
		return
	}
	if f.empty {
		_, _ = w.Write([]byte(`{}`))
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
		_, _ = w.Write([]byte(`{"items": [{"id": "e1", "summary": "Standup", "start": {"dateTime": "2026-03-02T09:00:00Z"}}]}`))
	case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
		f.lastQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"messages": [{"id": "m1", "threadId": "t1"}]}`))
	case strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"):
		_, _ = w.Write([]byte(`{"id": "m1", "snippet": "numbers", "payload": {"headers": [
			{"name": "Subject", "value": "Budget"}, {"name": "From", "value": "Alice"}]}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": 404, "message": "not found"}}`))
	}
}

func (f *fakeGoogle) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

func (f *fakeGoogle) returnNothing() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empty = true
}

func (f *fakeGoogle) query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// echoCompleter answers with a fixed string and remembers the last request.
type echoCompleter struct {
	mu   sync.Mutex
	last completion.Request
}

func (e *echoCompleter) Complete(_ context.Context, req completion.Request) (*completion.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = req
	if req.APIKey == "" {
		return nil, &completion.Error{Provider: "echo", Err: completion.ErrMissingAPIKey}
	}
	return &completion.Response{Content: "answer"}, nil
}
func (e *echoCompleter) Provider() string { return "echo" }
func (e *echoCompleter) Model() string    { return "echo-1" }

func (e *echoCompleter) request() completion.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

type testEnv struct {
	sc        *ServerContext
	google    *fakeGoogle
	keys      *keystore.FileStore
	completer *echoCompleter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

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

	completer := &echoCompleter{}
	sc, err := NewServerContext(context.Background(), Options{
		Config:        cfg,
		Tokens:        google.NewStaticTokenProvider("tok"),
		Keys:          keys,
		Completer:     completer,
		Logger:        logging.Discard(),
		GoogleOptions: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	return &testEnv{sc: sc, google: fake, keys: keys, completer: completer}
}

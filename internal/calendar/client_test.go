package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/inboxai/internal/google"
)

const eventsJSON = `{
  "items": [
    {"id": "e1", "summary": "Standup", "start": {"dateTime": "2026-03-02T09:00:00Z"}, "description": "Daily sync"},
    {"id": "e2", "summary": "", "start": {"date": "2026-03-02"}},
    {"id": "e3", "summary": "Lunch", "start": {"dateTime": "2026-03-02T12:30:00+01:00"}}
  ]
}`

func newTestClient(t *testing.T, tokens google.TokenProvider, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(tokens, nil, nil, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return client
}

func testRange() DateRange {
	min := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return DateRange{Min: min, Max: min.AddDate(0, 0, 1)}
}

func TestListEvents(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth, gotPath string

	client := newTestClient(t, google.NewStaticTokenProvider("tok"), func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsJSON))
	})

	events, err := client.ListEvents(context.Background(), testRange())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/calendars/primary/events"), "path %q", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "true", gotQuery["singleEvents"])
	assert.Equal(t, "startTime", gotQuery["orderBy"])
	assert.Equal(t, "2026-03-02T00:00:00Z", gotQuery["timeMin"])
	assert.Equal(t, "2026-03-03T00:00:00Z", gotQuery["timeMax"])

	require.Len(t, events, 3)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, "Daily sync", events[0].Description)
	assert.True(t, events[0].Start.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.False(t, events[0].AllDay)

	assert.Equal(t, DefaultTitle, events[1].Title)
	assert.True(t, events[1].AllDay)
	assert.True(t, events[1].Start.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))

	assert.True(t, events[2].Start.Equal(time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)))
}

func TestListEvents_Empty(t *testing.T) {
	client := newTestClient(t, google.NewStaticTokenProvider("tok"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	events, err := client.ListEvents(context.Background(), testRange())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestListEvents_Errors(t *testing.T) {
	tests := []struct {
		name       string
		tokens     google.TokenProvider
		status     int
		wantAuth   bool
		wantStatus int
		wantCalls  int32
	}{
		{name: "no credential", tokens: google.NewStaticTokenProvider(""), wantAuth: true, wantCalls: 0},
		{name: "unauthorized", tokens: google.NewStaticTokenProvider("tok"), status: http.StatusUnauthorized, wantAuth: true, wantCalls: 1},
		{name: "server error", tokens: google.NewStaticTokenProvider("tok"), status: http.StatusInternalServerError, wantStatus: 500, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, tt.tokens, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "failure"}}`))
			})

			_, err := client.ListEvents(context.Background(), testRange())
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantAuth, google.IsAuthError(err))

			if tt.wantStatus != 0 {
				var ne *google.NetworkError
				require.ErrorAs(t, err, &ne)
				assert.Equal(t, tt.wantStatus, ne.StatusCode)
			}
		})
	}
}

func TestListEvents_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, google.NewStaticTokenProvider("tok"), func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListEvents(ctx, testRange())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewClient_RequiresProvider(t *testing.T) {
	_, err := NewClient(nil, nil, nil)
	assert.Error(t, err)
}

func TestToEvent_Nil(t *testing.T) {
	assert.Equal(t, Event{}, toEvent(nil, time.UTC))
	ev := toEvent(&calendarapi.Event{Summary: "No start"}, time.UTC)
	assert.True(t, ev.Start.IsZero())
}

func TestDateRange_Contains(t *testing.T) {
	r := testRange()
	assert.True(t, r.Contains(r.Min))
	assert.True(t, r.Contains(r.Min.Add(time.Hour)))
	assert.False(t, r.Contains(r.Max))
	assert.False(t, r.Contains(r.Min.Add(-time.Nanosecond)))
}

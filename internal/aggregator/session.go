package aggregator

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxai/internal/calendar"
	"github.com/teemow/inboxai/internal/gmail"
)

// Snapshot is a point-in-time copy of a session's context.
type Snapshot struct {
	Events        []calendar.Event    `json:"events"`
	SearchResults []gmail.Message     `json:"searchResults"`
	CurrentEmail  *gmail.CurrentEmail `json:"currentEmail,omitempty"`
	Inbox         []gmail.InboxThread `json:"inbox"`
}

// Session is the per-conversation context state. It is safe for concurrent use.
type Session struct {
	id string

	mu          sync.Mutex
	events      []calendar.Event
	search      []gmail.Message
	current     *gmail.CurrentEmail
	inbox       []gmail.InboxThread
	activeQuery string
	lastActive  time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{id: id, lastActive: time.Now()}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the cached context.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Events:        slices.Clone(s.events),
		SearchResults: slices.Clone(s.search),
		Inbox:         slices.Clone(s.inbox),
	}
	if s.current != nil {
		email := *s.current
		snap.CurrentEmail = &email
	}
	return snap
}

// SetCurrentEmail records the email the user has open. Nil clears it.
func (s *Session) SetCurrentEmail(email *gmail.CurrentEmail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email == nil {
		s.current = nil
	} else {
		e := *email
		s.current = &e
	}
	s.lastActive = time.Now()
}

// SetInbox replaces the inbox overview.
func (s *Session) SetInbox(threads []gmail.InboxThread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = slices.Clone(threads)
	s.lastActive = time.Now()
}

// ActiveQuery returns the id of the most recently started query.
func (s *Session) ActiveQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeQuery
}

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// begin starts a new query, superseding any query still in flight.
func (s *Session) begin() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.activeQuery = id
	s.lastActive = time.Now()
	s.mu.Unlock()
	return id
}

// applyIfActive runs fn under the session lock when queryID is still the active
// query and reports whether it ran.
func (s *Session) applyIfActive(queryID string, fn func(s *Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeQuery != queryID {
		return false
	}
	fn(s)
	return true
}

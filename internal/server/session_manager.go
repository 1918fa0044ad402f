package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teemow/inboxai/internal/aggregator"
	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/logging"
)

const (
	// SessionHeader names the HTTP header carrying the session id.
	SessionHeader = "X-InboxAI-Session"

	// DefaultSessionID is used when a request carries no session id.
	DefaultSessionID = "default"

	// DefaultSessionTimeout expires idle sessions.
	DefaultSessionTimeout = 30 * time.Minute

	// DefaultMaxSessions bounds how many sessions are held at once. Creating
	// one more evicts the least recently active session.
	DefaultMaxSessions = 1000

	// maxSessionIDLength bounds client supplied ids.
	maxSessionIDLength = 128
)

// SessionManager maps session ids to their conversation context.
// Each browser tab or MCP client gets its own aggregator.Session so cached
// events and search results never leak between conversations.
type SessionManager struct {
	sessions       map[string]*aggregator.Session
	mu             sync.RWMutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	maxSessions    int
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
}

// NewSessionManager creates a session manager that expires sessions idle
// for longer than timeout. A non-positive timeout uses DefaultSessionTimeout.
func NewSessionManager(timeout time.Duration, logger *slog.Logger, metrics *instrumentation.Metrics) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	interval := timeout / 3
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}

	m := &SessionManager{
		sessions:       make(map[string]*aggregator.Session),
		cleanupTicker:  time.NewTicker(interval),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		maxSessions:    DefaultMaxSessions,
		logger:         logging.OrDefault(logger),
		metrics:        metrics,
	}

	go m.cleanupLoop()

	return m
}

// ResolveSessionID returns the session id of an HTTP request, falling back
// to DefaultSessionID.
func (m *SessionManager) ResolveSessionID(r *http.Request) string {
	return NormalizeSessionID(r.Header.Get(SessionHeader))
}

// NormalizeSessionID trims id and maps empty or oversized ids to
// DefaultSessionID.
func NormalizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxSessionIDLength {
		return DefaultSessionID
	}
	return id
}

// Session returns the session for id, creating it on first use.
func (m *SessionManager) Session(id string) *aggregator.Session {
	id = NormalizeSessionID(id)

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	if len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}
	s = aggregator.NewSession(id)
	m.sessions[id] = s
	m.metrics.IncrementActiveSessions(context.Background())
	m.logger.Debug("session created", logging.Session(id))
	return s
}

func (m *SessionManager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range m.sessions {
		if last := s.LastActive(); oldestID == "" || last.Before(oldest) {
			oldestID, oldest = id, last
		}
	}
	if oldestID == "" {
		return
	}
	delete(m.sessions, oldestID)
	m.metrics.DecrementActiveSessions(context.Background())
	m.logger.Info("evicted least recently active session", logging.Session(oldestID), logging.Count(m.maxSessions))
}

// SessionForRequest resolves and returns the session of r.
func (m *SessionManager) SessionForRequest(r *http.Request) *aggregator.Session {
	return m.Session(m.ResolveSessionID(r))
}

// RemoveSession drops a session.
func (m *SessionManager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.metrics.DecrementActiveSessions(context.Background())
	}
}

// ListSessions returns all active session ids.
func (m *SessionManager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		sessions = append(sessions, id)
	}
	return sessions
}

// expire removes sessions idle since before cutoff and returns how many.
func (m *SessionManager) expire(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			m.metrics.DecrementActiveSessions(context.Background())
			expired++
		}
	}
	return expired
}

func (m *SessionManager) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.expire(time.Now().Add(-m.sessionTimeout)); n > 0 {
				m.logger.Info("cleaned up expired sessions", logging.Count(n))
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}

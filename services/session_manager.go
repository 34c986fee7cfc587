package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager owns the live conversation sessions. Sessions idle for longer
// than the TTL are closed by the cleanup loop, which stands in for page teardown
// on transports that never say goodbye.
type SessionManager struct {
	replierFor func(sessionID string) Replier
	opts       SessionOptions
	ttl        time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*ConversationSession
}

// NewSessionManager takes a factory so each session's replies can be attributed
// to it (analytics, rate limits).
func NewSessionManager(replierFor func(sessionID string) Replier, opts SessionOptions, ttl time.Duration, logger *zap.Logger) *SessionManager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &SessionManager{
		replierFor: replierFor,
		opts:       opts,
		ttl:        ttl,
		logger:     logger,
		sessions:   make(map[string]*ConversationSession),
	}
}

// Open returns the session with id, creating it if needed. An empty id gets a
// fresh UUID. created reports whether a new session was made.
func (sm *SessionManager) Open(id string) (session *ConversationSession, created bool) {
	if id == "" {
		id = uuid.NewString()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if existing, ok := sm.sessions[id]; ok && !existing.Closed() {
		return existing, false
	}

	session = NewConversationSession(id, sm.replierFor(id), sm.opts, sm.logger)
	sm.sessions[id] = session
	ActiveSessions.Inc()
	sm.logger.Info("session opened", zap.String("session_id", id))

	return session, true
}

// Get retrieves an open session.
func (sm *SessionManager) Get(id string) (*ConversationSession, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears a session down and forgets it.
func (sm *SessionManager) Close(id string) error {
	sm.mu.Lock()
	session, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	ActiveSessions.Dec()
	sm.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// CloseAll closes every session; used on shutdown.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*ConversationSession)
	sm.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		ActiveSessions.Dec()
	}
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StartCleanup closes expired sessions every interval until ctx is done.
func (sm *SessionManager) StartCleanup(ctx context.Context, interval time.Duration) {
	if sm.ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sm.ReapExpired(); n > 0 {
					sm.logger.Info("expired sessions closed", zap.Int("count", n))
				}
			}
		}
	}()
}

// ReapExpired closes sessions idle for longer than the TTL and returns how many.
func (sm *SessionManager) ReapExpired() int {
	if sm.ttl <= 0 {
		return 0
	}
	cutoff := sm.opts.Clock().Add(-sm.ttl)

	sm.mu.RLock()
	var expired []string
	for id, s := range sm.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if sm.Close(id) == nil {
			closed++
		}
	}
	return closed
}

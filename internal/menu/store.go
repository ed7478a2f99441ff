package menu

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/params"
)

// SessionStore tracks open sessions by ID and expires idle ones.
type SessionStore struct {
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
	metrics *Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates a store. A non-positive idleTTL disables expiry
// and a non-positive maxSessions removes the cap on open sessions.
func NewSessionStore(idleTTL time.Duration, maxSessions int, metrics *Metrics, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
		metrics:     metrics,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Open creates a session with a fresh ID and starts its first load. It
// returns ErrTooManySessions when the store is full.
func (st *SessionStore) Open(slug string, s params.State, loader Loader, opts SessionOptions) (*Session, error) {
	if opts.Now == nil {
		opts.Now = st.now
	}
	if opts.Logger == nil {
		opts.Logger = st.logger
	}

	st.mu.Lock()
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.mu.Unlock()
		st.logger.Warn("session limit reached", zap.Int("max_sessions", st.maxSessions))
		return nil, ErrTooManySessions
	}
	sess := NewSession(uuid.NewString(), slug, s, loader, opts)
	st.sessions[sess.ID()] = sess
	n := len(st.sessions)
	st.mu.Unlock()

	st.metrics.setSessions(n)
	st.logger.Debug("session opened", zap.String("session", sess.ID()), zap.String("slug", slug))
	return sess, nil
}

// Get returns the session with the given ID.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Close closes and removes a session. It reports whether the session existed.
func (st *SessionStore) Close(id string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return false
	}
	sess.Close()
	st.metrics.setSessions(n)
	return true
}

// Len returns the number of open sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Reap closes sessions idle for longer than the idle TTL and returns how many
// it closed. Sessions with a stream attached are never idle.
func (st *SessionStore) Reap() int {
	if st.idleTTL <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.idleTTL)

	st.mu.Lock()
	var idle []*Session
	for id, sess := range st.sessions {
		if sess.LastActive().Before(cutoff) && !sess.Watched() {
			idle = append(idle, sess)
			delete(st.sessions, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
	if len(idle) > 0 {
		st.metrics.setSessions(n)
		st.logger.Info("reaped idle sessions", zap.Int("count", len(idle)), zap.Int("remaining", n))
	}
	return len(idle)
}

// Run reaps idle sessions every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Reap()
		}
	}
}

// CloseAll closes every session.
func (st *SessionStore) CloseAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
	st.metrics.setSessions(0)
}

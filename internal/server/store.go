package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/wizard"
)

// Store holds live sessions keyed by UUID and expires idle ones
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// A zero ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session for def
func (st *Store) Create(def *wizard.Definition) (*Session, error) {
	s, err := newSession(uuid.NewString(), def, st.now())
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	logging.Info("Session created", zap.String("session", s.ID), zap.String("form", def.ID))
	return s, nil
}

// Get returns the session and marks it active
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		s.seen(st.now())
	}
	return s, ok
}

// Delete ends a session and disconnects its subscribers
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.close()
		logging.Info("Session deleted", zap.String("session", id))
	}
	return ok
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.close()
		logging.Debug("Session expired", zap.String("session", s.ID))
	}
	return len(expired)
}

// Run sweeps every interval until ctx ends
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				logging.Info("Expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// CloseAll ends every session
func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

var ErrSessionNotFound = errors.New("review session not found")

// Registry holds the review sessions mounted in this process.
type Registry struct {
	saver       repositories.QuestionSaver
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	lastUsed map[string]time.Time
}

type RegistryOption func(*Registry)

// WithIdleTimeout makes Sweep unmount sessions unused for longer than d.
// Zero keeps sessions until they are closed.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTimeout = d }
}

func withClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(saver repositories.QuestionSaver, opts ...RegistryOption) *Registry {
	r := &Registry{
		saver:    saver,
		now:      time.Now,
		sessions: make(map[string]*Session),
		lastUsed: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open mounts a new session over nodes with no drafts and nothing saving.
func (r *Registry) Open(paperID string, nodes []*models.QuestionNode, fallback bool) *Session {
	s := NewSession(uuid.NewString(), paperID, nodes, fallback, r.saver)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.lastUsed[s.ID] = r.now()
	r.mu.Unlock()
	return s
}

// Get returns a mounted session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	r.lastUsed[id] = r.now()
	return s, nil
}

// Close unmounts a session and discards all of its drafts. Saves still in
// flight complete against the detached session.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	delete(r.lastUsed, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.clear()
	return nil
}

// Len returns the number of mounted sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep unmounts every session idle for longer than the idle timeout and
// returns them. Sessions with a save in flight are kept until it settles.
func (r *Registry) Sweep() []*Session {
	if r.idleTimeout <= 0 {
		return nil
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if r.lastUsed[id].After(cutoff) || s.hasSaveInFlight() {
			continue
		}
		delete(r.sessions, id)
		delete(r.lastUsed, id)
		evicted = append(evicted, s)
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.clear()
	}
	return evicted
}

// RunJanitor sweeps every interval until ctx is done. onEvict, when set, is
// called for each unmounted session.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration, onEvict func(*Session)) {
	if r.idleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range r.Sweep() {
				if onEvict != nil {
					onEvict(s)
				}
			}
		}
	}
}

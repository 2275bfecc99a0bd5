package builder

import (
	"sync"

	"github.com/sirupsen/logrus"

	"transit_admin/internal/routing"
)

// Registry owns the open build sessions, one per operator drawing a route.
type Registry struct {
	router   routing.Router
	log      logrus.FieldLogger
	onChange func(Snapshot)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions route through router and
// report every change to onChange (which may be nil).
func NewRegistry(router routing.Router, log logrus.FieldLogger, onChange func(Snapshot)) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		router:   router,
		log:      log,
		onChange: onChange,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new empty session.
func (r *Registry) Create(opts ...Option) *Session {
	base := []Option{WithLogger(r.log)}
	if r.onChange != nil {
		base = append(base, WithOnChange(r.onChange))
	}
	s := NewSession(r.router, append(base, opts...)...)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.log.WithField("session_id", s.ID()).Info("Build session opened")
	return s
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Discard clears the session and forgets it. It reports whether it existed.
func (r *Registry) Discard(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.ClearAll()
	r.log.WithField("session_id", id).Info("Build session discarded")
	return true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

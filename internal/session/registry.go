// Package session connects bracket trackers to open documents.
//
// A Registry maps document handles to Sessions and remembers which document
// is current. Each Session owns the trackers for one document and two
// periodic timers: a recompute timer that drains a bounded batch of queued
// positions per kind, and a redraw timer that paints what changed. Timers of
// a document that is no longer current cancel themselves on their next tick;
// Activate schedules them again.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/bracketcolor/internal/bracket/tracker"
	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/sched"
)

// Handle identifies an open document.
type Handle string

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// String returns the handle text.
func (h Handle) String() string {
	return string(h)
}

// Registry owns the sessions of all open documents.
type Registry struct {
	mu       sync.RWMutex
	sessions map[Handle]*Session
	active   Handle

	sched    sched.Scheduler
	settings Settings
	metrics  *Metrics
	logger   *logging.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithSettings sets the initial settings.
func WithSettings(s Settings) RegistryOption {
	return func(r *Registry) {
		r.settings = s
	}
}

// NewRegistry creates an empty registry whose sessions schedule timers on s.
func NewRegistry(s sched.Scheduler, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[Handle]*Session),
		sched:    s,
		settings: DefaultSettings(),
		metrics:  NewMetrics(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("session")
	return r
}

// Open creates a session for a document, makes it current and starts its
// timers. The first recompute tick scans the whole buffer.
func (r *Registry) Open(name string, buf tracker.BufferAccess, renderer tracker.Renderer) (*Session, error) {
	if buf == nil || renderer == nil {
		return nil, NewOperationError("open", name, ErrInvalidDocument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h := NewHandle()
	s := newSession(r, h, name, buf, renderer)
	r.sessions[h] = s
	r.active = h
	s.start()

	r.logger.Debug("opened %s as %s", name, h)
	return s, nil
}

// Get returns the session for h.
func (r *Registry) Get(h Handle) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[h]
	if !ok {
		return nil, NewOperationError("get", h.String(), ErrDocumentNotFound)
	}
	return s, nil
}

// Active returns the current document's session.
func (r *Registry) Active() (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[r.active]
	return s, ok
}

// IsActive reports whether h is the current document.
func (r *Registry) IsActive(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active == h && r.sessions[h] != nil
}

// Activate makes h the current document and restarts its timers if they
// were suspended.
func (r *Registry) Activate(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[h]
	if !ok {
		return NewOperationError("activate", h.String(), ErrDocumentNotFound)
	}
	r.active = h
	s.start()
	return nil
}

// Close closes and forgets the session for h.
func (r *Registry) Close(h Handle) error {
	r.mu.Lock()
	s, ok := r.sessions[h]
	if !ok {
		r.mu.Unlock()
		return NewOperationError("close", h.String(), ErrDocumentNotFound)
	}
	delete(r.sessions, h)
	if r.active == h {
		r.active = ""
	}
	r.mu.Unlock()

	s.Close()
	return nil
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[Handle]*Session)
	r.active = ""
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	r.logger.Debug("closed %d sessions", len(sessions))
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Metrics returns the registry's metrics.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Settings returns the current settings.
func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// ApplySettings pushes new settings to every open session.
func (r *Registry) ApplySettings(settings Settings) {
	r.mu.Lock()
	r.settings = settings
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.apply(settings)
	}
}

// Apply converts cfg and pushes it to every open session. The log level is
// updated too. The current classifier is kept when its inputs did not
// change, so documents are only rescanned when classification can differ.
// A classifier script replaced by the new settings is closed.
func (r *Registry) Apply(cfg *config.Config) error {
	prev := r.Settings()
	settings, err := settingsFromConfig(cfg, r.logger, prev)
	if err != nil {
		return NewOperationError("apply", "config", err)
	}

	old := prev.Classifier
	r.ApplySettings(settings)
	r.logger.SetLevel(cfg.Level())

	if c, ok := old.(interface{ Close() }); ok && old != settings.Classifier {
		c.Close()
	}
	r.logger.Info("applied %s", cfg)
	return nil
}

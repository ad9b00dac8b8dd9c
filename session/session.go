// Package session implements session identity and watch-subscription
// plumbing, per spec.md §4.7: "A session has an identity, an output
// console handle, and lives independently of flows." Grounded on
// original_source's LocalEnvironment.java WatchRequest/session-id
// handling. github.com/google/uuid is wired here for non-local session
// ids — the original uses a fixed submitter session id of 0 for its
// local CLI session, which this package keeps as session.Local.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/radhaisme/flumebase/local"
)

// Local is the fixed id of the built-in local CLI session, matching the
// original's hardcoded submitter session id of 0.
const Local = "0"

// Console is the narrow output surface a UserSession delivers watched
// events to. package client's renderer implements this.
type Console interface {
	Deliver(flow local.FlowID, e local.Event)
}

// UserSession implements local.Subscriber: it carries an identity and a
// console handle, and lives independently of any particular flow's
// lifecycle, per spec.md §4.7.
type UserSession struct {
	id      string
	console Console
}

// New creates a session with a freshly generated UUID identity.
func New(console Console) *UserSession {
	return &UserSession{id: uuid.NewString(), console: console}
}

// NewWithID creates a session with an explicit identity, used for the
// fixed Local session id and in tests.
func NewWithID(id string, console Console) *UserSession {
	return &UserSession{id: id, console: console}
}

func (s *UserSession) ID() string           { return s.id }
func (s *UserSession) SubscriberID() string { return s.id }

func (s *UserSession) Deliver(flow local.FlowID, e local.Event) {
	if s.console != nil {
		s.console.Deliver(flow, e)
	}
}

// Registry tracks every connected session by id. Disconnect only removes
// a session from the registry; it does not drop the session's watch
// subscriptions on any flow.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*UserSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*UserSession)}
}

func (r *Registry) Connect(s *UserSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Disconnect removes s from the registry. Dropping its watch
// subscriptions on every flow is the caller's responsibility (the
// scheduler does not track "every flow a session watches" centrally;
// each ActiveFlowData only knows its own subscriber set), so callers
// should unwatch every flow id from Engine.ListWatched(s.ID()) before or
// after calling Disconnect.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Lookup(id string) (*UserSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

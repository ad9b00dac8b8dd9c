package ingest

import "sync"

// Subsystem is the embedded event-ingestion subsystem's start/stop and
// sink-binding surface, per spec.md §6: "exposes start, stop,
// bind_sink(name, context), drop_sink(name); the scheduler calls start
// lazily on the first flow whose source requires it and stop exactly once
// on worker exit." This core does not implement the listeners themselves
// (out of scope per spec.md §1); Subsystem only tracks whether the
// listener set is running and owns the Bindings registry the scheduler
// and physical builder consult.
type Subsystem struct {
	Bindings *Bindings

	mu      sync.Mutex
	running bool
}

func New() *Subsystem {
	return &Subsystem{Bindings: NewBindings()}
}

// Start is idempotent: only the first call (across the scheduler's
// lifetime, lazily triggered by the first AddFlow) has any effect.
func (s *Subsystem) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// Stop is called exactly once, on worker exit.
func (s *Subsystem) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *Subsystem) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Package ingest specifies the narrow contract the embedded
// event-ingestion subsystem implements: starting/stopping the external
// listener, and binding a declared stream's name to the local.Context
// that should receive its rows, per spec.md §6. The actual network/file
// listeners that would call Deliver in production are out of scope for
// this core (spec.md §1); this package owns only the contract and the
// sink-binding registry.
package ingest

import (
	"sync"

	"github.com/radhaisme/flumebase/local"
)

// Bindings is a process-wide name -> local.Context map, grounded on
// original_source's SinkContextBindings.java: ingestion callbacks are
// constructed outside the flow graph and need a name to look up the
// right context when an external event arrives. Reworked as a
// non-singleton struct injected into Subsystem rather than a
// package-level singleton, per idiomatic Go's avoidance of hidden global
// state, while preserving the bind/drop/lookup contract and internal
// locking the original provides.
type Bindings struct {
	mu    sync.Mutex
	table map[string]local.Context
}

func NewBindings() *Bindings {
	return &Bindings{table: make(map[string]local.Context)}
}

// Bind associates name (a declared stream's name) with the context that
// should receive rows delivered under that name.
func (b *Bindings) Bind(name string, ctx local.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.table[name] = ctx
}

// Drop removes name's binding, e.g. because its flow was canceled.
func (b *Bindings) Drop(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.table, name)
}

// Lookup returns the context bound to name, or nil if none is bound.
func (b *Bindings) Lookup(name string) local.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table[name]
}

// Deliver pushes one event into the flow bound to name, returning false
// if name has no binding (e.g. its flow was already canceled). This is
// the entry point a real listener implementation would call per received
// row.
func (b *Bindings) Deliver(name string, e local.Event) (bool, error) {
	ctx := b.Lookup(name)
	if ctx == nil {
		return false, nil
	}
	return true, ctx.Emit(e)
}

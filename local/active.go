package local

import "sync"

// FlowID identifies one deployed flow.
type FlowID string

// Subscriber is a session watching a flow's sink output. Defined here
// (rather than imported from package session) so that local has no
// dependency on session; session.UserSession implements this interface
// structurally, per spec.md §4.7's "sinks iterate subscribers... and send
// events to each subscriber's console."
type Subscriber interface {
	SubscriberID() string
	Deliver(flow FlowID, e Event)
}

// ActiveFlowData is a flow's runtime record: its id, its LocalFlow, its
// subscriber set, and its join-waiters, per spec.md §3.
type ActiveFlowData struct {
	ID   FlowID
	Flow *LocalFlow

	mu          sync.Mutex
	subscribers map[string]Subscriber
	waiters     []chan struct{}
	closed      bool

	pendingSinks int // decremented on each Sink's ElementComplete; see DESIGN.md
}

func NewActiveFlowData(id FlowID, flow *LocalFlow, sinkCount int) *ActiveFlowData {
	return &ActiveFlowData{
		ID:           id,
		Flow:         flow,
		subscribers:  make(map[string]Subscriber),
		pendingSinks: sinkCount,
	}
}

// Watch and Unwatch mutate the subscriber set. The control thread is the
// only caller (spec.md §5: "mutations are serialized through the control
// thread"), but the mutex also protects Broadcast, called from whatever
// goroutine is draining the sink's context.
func (a *ActiveFlowData) Watch(s Subscriber) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers[s.SubscriberID()] = s
}

func (a *ActiveFlowData) Unwatch(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.subscribers, id)
}

func (a *ActiveFlowData) Watched(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.subscribers[id]
	return ok
}

func (a *ActiveFlowData) WatchList() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.subscribers))
	for id := range a.subscribers {
		out = append(out, id)
	}
	return out
}

func (a *ActiveFlowData) Broadcast(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.subscribers {
		s.Deliver(a.ID, e)
	}
}

// AddWaiter registers a channel to be closed when this flow reaches
// CLOSED, per spec.md §4.5's Join handler. If the flow has already
// closed, the channel is closed immediately so the caller never blocks.
func (a *ActiveFlowData) AddWaiter(w chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		close(w)
		return
	}
	a.waiters = append(a.waiters, w)
}

// SignalClosed marks the flow closed and wakes every registered waiter,
// per spec.md §3's "On CLOSED all join-waiters are signaled."
func (a *ActiveFlowData) SignalClosed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for _, w := range a.waiters {
		close(w)
	}
	a.waiters = nil
}

// SinkCompleted decrements the pending-sink counter and reports whether
// every sink registered at deployment time has now completed — per
// spec.md §9's resolution of "may a flow have multiple sinks?", flow
// termination is signaled only once every sink has reported
// ElementComplete.
func (a *ActiveFlowData) SinkCompleted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingSinks--
	return a.pendingSinks <= 0
}

package local

import "github.com/radhaisme/flumebase/exec"

// QueueCapacity bounds every QueueBacked context's pending-event queue.
const QueueCapacity = 256

// Context is the per-operator object holding its output-routing policy
// and scheduler hooks, per spec.md §3. Every context also carries the
// flow's completion callback (standing in for "a shared control queue"
// per spec.md §4.4) and its flow's id; only a SinkContext holds the
// flow's live-data record.
type Context interface {
	Emit(e Event) error
	FlowOf() FlowID
	notifyComplete()
}

type contextBase struct {
	onComplete func()
	flowID     FlowID
}

func (c *contextBase) notifyComplete() {
	if c.onComplete != nil {
		c.onComplete()
	}
}

func (c *contextBase) FlowOf() FlowID { return c.flowID }

// DirectContext is a synchronous handoff: Emit calls the downstream
// operator's TakeEvent inline, on the caller's goroutine.
type DirectContext struct {
	contextBase
	Downstream Operator
}

func (c *DirectContext) Emit(e Event) error {
	if c.Downstream == nil || c.Downstream.IsClosed() {
		return nil
	}
	return c.Downstream.TakeEvent(e)
}

// QueueContext appends to an operator-owned bounded queue; the scheduler
// dequeues from Queue in its data-processing loop and calls Downstream's
// TakeEvent for each entry.
type QueueContext struct {
	contextBase
	Downstream Operator
	Queue      chan Event
}

func NewQueueContext(downstream Operator, onComplete func()) *QueueContext {
	return &QueueContext{
		contextBase: contextBase{onComplete: onComplete},
		Downstream:  downstream,
		Queue:       make(chan Event, QueueCapacity),
	}
}

func (c *QueueContext) Emit(e Event) error {
	select {
	case c.Queue <- e:
		return nil
	default:
		return &exec.RuntimeError{Operator: "queue", Cause: errQueueFull}
	}
}

// Drain pulls up to max pending events off the queue, feeding each to
// Downstream.TakeEvent, stopping early on the first error. It reports how
// many events it actually processed, the budget the scheduler's step
// counter consumes.
func (c *QueueContext) Drain(max int) (int, error) {
	n := 0
	for n < max {
		select {
		case e := <-c.Queue:
			if c.Downstream == nil || c.Downstream.IsClosed() {
				n++
				continue
			}
			if err := c.Downstream.TakeEvent(e); err != nil {
				return n, err
			}
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Pending reports whether the queue has events ready to drain, used as
// the loop condition of the scheduler's data-work pass over each queue.
func (c *QueueContext) Pending() bool { return len(c.Queue) > 0 }

var errQueueFull = &queueFullError{}

type queueFullError struct{}

func (e *queueFullError) Error() string { return "operator queue is full" }

// joinSideKey marks which parent of a JoinOperator an event arrived from.
// sideTagContext wraps whichever context a join's left or right parent
// would otherwise use, stamping the tag before delegating, since the
// uniform Operator.TakeEvent(Event) contract carries no side channel of
// its own.
const joinSideKey = "__join_side"

type sideTagContext struct {
	side  string
	inner Context
}

func newSideTagContext(side string, inner Context) Context {
	return &sideTagContext{side: side, inner: inner}
}

func (c *sideTagContext) Emit(e Event) error {
	tagged := e.Clone()
	tagged[joinSideKey] = c.side
	return c.inner.Emit(tagged)
}

func (c *sideTagContext) notifyComplete() { c.inner.notifyComplete() }
func (c *sideTagContext) FlowOf() FlowID  { return c.inner.FlowOf() }

// asQueueContext returns ctx's underlying *QueueContext, unwrapping a
// sideTagContext if present, or nil if ctx isn't queue-backed. Used by
// LocalFlow.QueueContexts to find every context the scheduler must
// register in its active-queue set, regardless of join-side tagging.
func asQueueContext(ctx Context) *QueueContext {
	switch c := ctx.(type) {
	case *QueueContext:
		return c
	case *sideTagContext:
		return asQueueContext(c.inner)
	default:
		return nil
	}
}

// AsQueueContext exposes asQueueContext to other packages (the scheduler)
// that need to find the underlying queue of a context reported via
// ElementComplete, regardless of join-side tagging.
func AsQueueContext(ctx Context) *QueueContext { return asQueueContext(ctx) }

// Downstream returns the operator ctx would forward events to: nil for a
// terminal SinkContext, or for any context with no wired downstream.
func Downstream(ctx Context) Operator {
	switch c := ctx.(type) {
	case *DirectContext:
		return c.Downstream
	case *QueueContext:
		return c.Downstream
	case *sideTagContext:
		return Downstream(c.inner)
	default:
		return nil
	}
}

// IsSink reports whether ctx is a terminal SinkContext.
func IsSink(ctx Context) bool {
	_, ok := ctx.(*SinkContext)
	return ok
}

// SinkContext is terminal: Emit routes to the owning flow's subscriber
// set, a named memory output, or both, per spec.md §3. Exactly one of
// Flow/Memory is non-nil for a console-output vs. memory-output sink in
// practice, but both may be set (e.g. a memory output whose flow is also
// watched for debugging).
type SinkContext struct {
	contextBase
	Flow   *ActiveFlowData
	Memory *MemoryTable
}

func (c *SinkContext) Emit(e Event) error {
	if c.Flow != nil {
		c.Flow.Broadcast(e)
	}
	if c.Memory != nil {
		c.Memory.Append(e)
	}
	return nil
}

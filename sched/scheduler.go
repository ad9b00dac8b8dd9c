package sched

import (
	"go.uber.org/zap"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/ingest"
	"github.com/radhaisme/flumebase/local"
	"github.com/radhaisme/flumebase/metrics"
)

// ControlQueueCapacity bounds the scheduler's control queue, per
// spec.md §4.5: "A bounded (capacity 100) single-consumer multi-producer
// queue." A Go buffered channel gives this for free: a send blocks once
// the channel is full, which is exactly the backpressure-on-submitters
// policy spec.md §5 calls for.
const ControlQueueCapacity = 100

// MaxSteps bounds how many take_event calls the data-work loop performs
// between successive control-queue inspections, per spec.md §4.5.
const MaxSteps = 250

type flowEntry struct {
	id     local.FlowID
	flow   *local.LocalFlow
	active *local.ActiveFlowData
	state  FlowState
	query  string
}

// Scheduler is the local execution environment: the single worker thread
// that owns every active flow's lifecycle and drains its operators'
// pending-event queues, per spec.md §4.5.
type Scheduler struct {
	control chan *ControlOp
	active  map[local.FlowID]*flowEntry
	queues  []*local.QueueContext

	ingest *ingest.Subsystem
	log    *zap.Logger

	shuttingDown bool
	done         chan struct{}
}

// New constructs a Scheduler. A nil logger defaults to zap's production
// JSON logger, matching the teacher's pattern of injecting a *Config
// through constructors rather than reaching for package-level globals.
func New(ing *ingest.Subsystem, log *zap.Logger) *Scheduler {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return &Scheduler{
		control: make(chan *ControlOp, ControlQueueCapacity),
		active:  make(map[local.FlowID]*flowEntry),
		ingest:  ing,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Post enqueues op onto the control queue, blocking if it is full — the
// backpressure-on-control-operations policy of spec.md §5.
func (s *Scheduler) Post(op *ControlOp) {
	s.control <- op
}

// Run is the scheduler's main loop: block on the control queue, dispatch
// the op that woke it, then drain pending operator queues under the
// MAX_STEPS budget before returning to wait, per spec.md §4.5's
// pseudocode. Run returns once ShutdownThread has been dispatched.
func (s *Scheduler) Run() {
	defer close(s.done)
	for {
		op := <-s.control
		metrics.ControlQueueDepth.Set(float64(len(s.control)))
		s.dispatch(op)
		if s.shuttingDown {
			return
		}
		s.drainData()
	}
}

// Done reports when Run has returned, for callers that enqueued Shutdown
// and want to know the worker thread has actually stopped.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) dispatch(op *ControlOp) {
	switch op.Kind {
	case OpAddFlow:
		s.handleAddFlow(op)
	case OpCancelFlow:
		s.handleCancelFlow(op.FlowID)
		if op.CancelResult != nil {
			close(op.CancelResult)
		}
	case OpCancelAll:
		for id := range s.active {
			s.handleCancelFlow(id)
		}
	case OpShutdownThread:
		s.shuttingDown = true
		if s.ingest != nil {
			s.ingest.Stop()
		}
	case OpNoop:
	case OpElementComplete:
		s.handleElementComplete(op.Ctx)
	case OpJoin:
		s.handleJoin(op.FlowID, op.Waiter)
	case OpListFlows:
		s.handleListFlows(op.FlowsOut)
	case OpWatchFlow:
		s.handleWatchFlow(op.FlowID, op.Subscriber)
	case OpUnwatchFlow:
		s.handleUnwatchFlow(op.FlowID, op.SessionID)
	case OpGetWatchList:
		s.handleGetWatchList(op.SessionID, op.WatchOut)
	default:
		s.log.Warn("unknown control op", zap.String("kind", op.Kind.String()))
	}
}

// handleAddFlow opens every operator in flow in reverse-BFS order (sinks
// first), registers its queues in the active set, and inserts it into the
// active-flows map, per spec.md §4.5. AddFlow with zero operators is a
// no-op; an open error closes whatever was already opened (best-effort)
// and leaves no active-flows entry, per spec.md §7.
func (s *Scheduler) handleAddFlow(op *ControlOp) {
	if op.Flow == nil || len(op.Flow.DAG.Roots()) == 0 {
		if op.Result != nil {
			op.Result <- nil
		}
		return
	}

	if err := op.Flow.Open(); err != nil {
		s.log.Warn("flow failed to open", zap.String("flow", string(op.FlowID)), zap.Error(err))
		if op.Result != nil {
			op.Result <- &exec.OpenError{Operator: string(op.FlowID), Cause: err}
		}
		return
	}

	if s.ingest != nil {
		s.ingest.Start()
	}

	s.queues = append(s.queues, op.Flow.QueueContexts()...)
	s.active[op.FlowID] = &flowEntry{id: op.FlowID, flow: op.Flow, active: op.Active, state: Running, query: op.Query}
	metrics.ActiveFlows.Set(float64(len(s.active)))
	s.log.Info("flow deployed", zap.String("flow", string(op.FlowID)))
	if op.Result != nil {
		op.Result <- nil
	}
}

// handleCancelFlow closes every operator of the named flow in BFS order
// (sources first), removes its queues from the active set, signals every
// registered join-waiter, and drops it from the active-flows map.
// Unknown flow ids are logged and ignored — cancel is idempotent.
func (s *Scheduler) handleCancelFlow(id local.FlowID) {
	entry, ok := s.active[id]
	if !ok {
		s.log.Info("cancel of unknown or already-closed flow", zap.String("flow", string(id)))
		return
	}
	entry.state = Canceling
	for _, err := range entry.flow.Close() {
		s.log.Warn("error closing operator during cancel", zap.String("flow", string(id)), zap.Error(err))
	}
	s.removeQueuesOf(entry.flow)
	delete(s.active, id)
	metrics.ActiveFlows.Set(float64(len(s.active)))
	entry.state = Closed
	entry.active.SignalClosed()
	s.log.Info("flow canceled", zap.String("flow", string(id)))
}

func (s *Scheduler) removeQueuesOf(flow *local.LocalFlow) {
	dead := make(map[*local.QueueContext]bool)
	for _, q := range flow.QueueContexts() {
		dead[q] = true
	}
	s.removeQueuesWhere(func(q *local.QueueContext) bool { return dead[q] })
}

func (s *Scheduler) removeQueuesWhere(match func(*local.QueueContext) bool) {
	kept := s.queues[:0]
	for _, q := range s.queues {
		if !match(q) {
			kept = append(kept, q)
		}
	}
	s.queues = kept
}

// handleElementComplete implements spec.md §4.5's ElementComplete
// handler: an operator has run to natural end. Its queue (if any) is
// removed from the active set; a DirectCoupled or QueueBacked context
// propagates completion downstream via CompleteWindow then CloseUpstream;
// a Sink context counts toward the flow's pending-sink total (spec.md §9)
// and cancels the flow once every sink has reported completion.
func (s *Scheduler) handleElementComplete(ctx local.Context) {
	if ctx == nil {
		return
	}
	if qc := local.AsQueueContext(ctx); qc != nil {
		s.removeQueuesWhere(func(q *local.QueueContext) bool { return q == qc })
	}

	if local.IsSink(ctx) {
		flowID := ctx.FlowOf()
		entry, ok := s.active[flowID]
		if !ok {
			return
		}
		if entry.active.SinkCompleted() {
			s.handleCancelFlow(flowID)
		}
		return
	}

	if downstream := local.Downstream(ctx); downstream != nil {
		if err := downstream.CompleteWindow(); err != nil {
			s.log.Warn("complete_window failed", zap.Error(err))
		}
		if err := downstream.CloseUpstream(); err != nil {
			s.log.Warn("close_upstream failed", zap.Error(err))
		}
	}
}

// handleJoin records waiter on the flow so CancelFlow signals it, or
// signals it immediately if the flow is already gone, per spec.md §4.5.
func (s *Scheduler) handleJoin(id local.FlowID, waiter chan struct{}) {
	entry, ok := s.active[id]
	if !ok {
		close(waiter)
		return
	}
	entry.active.AddWaiter(waiter)
}

func (s *Scheduler) handleListFlows(out chan map[local.FlowID]*FlowInfo) {
	result := make(map[local.FlowID]*FlowInfo, len(s.active))
	for id, entry := range s.active {
		result[id] = &FlowInfo{ID: id, State: entry.state, Query: entry.query}
	}
	out <- result
}

func (s *Scheduler) handleWatchFlow(id local.FlowID, sub local.Subscriber) {
	entry, ok := s.active[id]
	if !ok {
		s.log.Info("watch of unknown flow", zap.String("flow", string(id)))
		return
	}
	entry.active.Watch(sub)
}

func (s *Scheduler) handleUnwatchFlow(id local.FlowID, sessionID string) {
	entry, ok := s.active[id]
	if !ok {
		s.log.Info("unwatch of unknown flow", zap.String("flow", string(id)))
		return
	}
	entry.active.Unwatch(sessionID)
}

func (s *Scheduler) handleGetWatchList(sessionID string, out chan []local.FlowID) {
	var watched []local.FlowID
	for id, entry := range s.active {
		if entry.active.Watched(sessionID) {
			watched = append(watched, id)
		}
	}
	out <- watched
}

// drainData executes a bounded run of data work, per spec.md §4.5's
// pseudocode: iterate every active queue, popping and processing one
// event at a time, until a full pass makes no progress or MAX_STEPS is
// exceeded while the control queue has work waiting.
func (s *Scheduler) drainData() {
	for {
		steps := 0
		anyProgress := false
		for _, q := range s.queues {
			for q.Pending() {
				n, err := q.Drain(1)
				if n == 0 && err == nil {
					break
				}
				anyProgress = true
				steps++
				metrics.StepsTotal.Inc()
				if err != nil {
					s.handleRuntimeError(q, err)
				}
				if steps > MaxSteps {
					if len(s.control) > 0 {
						return
					}
					steps = 0
				}
			}
		}
		if !anyProgress {
			return
		}
	}
}

// handleRuntimeError implements spec.md §7's RuntimeError policy: log and
// drop the offending event, leave the operator open. Whether a recurring
// RuntimeError should instead cancel the flow is an open question the
// spec explicitly declines to resolve; this scheduler preserves the
// source policy of logging and continuing.
func (s *Scheduler) handleRuntimeError(q *local.QueueContext, err error) {
	flowID := q.FlowOf()
	metrics.RuntimeErrorsTotal.WithLabelValues(string(flowID)).Inc()
	s.log.Warn("runtime error processing event", zap.String("flow", string(flowID)), zap.Error(err))
}

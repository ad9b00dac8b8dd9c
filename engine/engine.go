// Package engine wires the compiler front-end (package sql, package
// exec, package plan) to the local execution environment (package sched,
// package local) behind the external interface spec.md §6 names:
// submit, add_flow, cancel_flow, join_flow, list_flows, watch_flow,
// unwatch_flow, list_watched, shutdown.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radhaisme/flumebase/config"
	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/ingest"
	"github.com/radhaisme/flumebase/local"
	"github.com/radhaisme/flumebase/plan"
	"github.com/radhaisme/flumebase/sched"
	"github.com/radhaisme/flumebase/session"
	"github.com/radhaisme/flumebase/sql"
)

// Engine is the process's single continuous-query engine instance: one
// root symbol table, one scheduler/worker thread, one memory-output
// store, one ingestion subsystem, and one session registry.
type Engine struct {
	Root     *exec.SymbolTable
	Config   *config.Config
	Memory   *local.MemoryStore
	Ingest   *ingest.Subsystem
	Sessions *session.Registry
	sched    *sched.Scheduler
	log      *zap.Logger
}

// New constructs an Engine with the built-in symbol table as its root and
// starts the scheduler's worker loop in the background. A nil logger
// defaults to zap's production JSON logger.
func New(cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log, _ = zap.NewProduction()
	}
	ing := ingest.New()
	e := &Engine{
		Root:     exec.BuiltInSymbolTable(),
		Config:   cfg,
		Memory:   local.NewMemoryStore(),
		Ingest:   ing,
		Sessions: session.NewRegistry(),
		sched:    sched.New(ing, log),
		log:      log,
	}
	go e.sched.Run()
	return e
}

// SubmitResult is what Submit hands back to a caller, per spec.md §6's
// submit(query, options) -> (messages, flow_id?).
type SubmitResult struct {
	Messages string
	FlowID   local.FlowID // "" if no flow was deployed
}

// Submit parses, elaborates, plans, and (for a deployable SELECT) builds
// and deploys one statement, per spec.md §4.3 and §7's message-buffer
// accumulation: parse errors, visitor errors, and plan errors are all
// appended to the same message buffer rather than the first short-
// circuiting silently.
func (e *Engine) Submit(query string, options map[string]string) *SubmitResult {
	var errBuf bytes.Buffer
	stmt := sql.Generate(query, &errBuf)
	if stmt == nil {
		return &SubmitResult{Messages: errBuf.String()}
	}

	cfg := e.Config.Overlay(options)
	ctx := plan.NewPlanContext(e.Root, options)
	spec, err := plan.CreateExecPlan(stmt, ctx)
	if err != nil {
		ctx.MsgBuilder.WriteString(err.Error())
		ctx.MsgBuilder.WriteString("\n")
		return &SubmitResult{Messages: ctx.MsgBuilder.String()}
	}

	if ctx.Explain || len(spec.Roots()) == 0 {
		return &SubmitResult{Messages: ctx.MsgBuilder.String()}
	}

	flowID := local.FlowID(uuid.NewString())
	if err := e.deploy(flowID, query, spec); err != nil {
		ctx.MsgBuilder.WriteString(err.Error())
		ctx.MsgBuilder.WriteString("\n")
		return &SubmitResult{Messages: ctx.MsgBuilder.String()}
	}
	fmt.Fprintf(ctx.MsgBuilder, "Flow %s deployed.\n", flowID)

	if cfg.AutoWatch() {
		sid := cfg.SubmitterSessionID()
		if sid == "" || sid == "0" {
			sid = session.Local
		}
		if _, ok := e.Sessions.Lookup(sid); !ok {
			e.Sessions.Connect(session.NewWithID(sid, nil))
		}
		sess, _ := e.Sessions.Lookup(sid)
		e.WatchFlow(sid, flowID)
		_ = sess
	}

	return &SubmitResult{Messages: ctx.MsgBuilder.String(), FlowID: flowID}
}

// deploy builds spec into a LocalFlow, registers every source's binding
// with the ingestion subsystem, and enqueues AddFlow, returning the
// scheduler's open result (nil on success, *exec.OpenError on failure).
func (e *Engine) deploy(id local.FlowID, query string, spec *plan.FlowSpecification) error {
	sinkCount := countSinks(spec)
	afd := local.NewActiveFlowData(id, nil, sinkCount)

	result := make(chan error, 1)
	deps := local.BuildDeps{
		FlowID:      id,
		ActiveFlow:  afd,
		MemoryStore: e.Memory,
		OnComplete: func(ctx local.Context) {
			e.sched.Post(&sched.ControlOp{Kind: sched.OpElementComplete, Ctx: ctx})
		},
	}
	flow, _, sources, err := local.Build(spec, deps)
	if err != nil {
		return &exec.OpenError{Operator: string(id), Cause: err}
	}
	afd.Flow = flow

	for _, src := range sources {
		e.Ingest.Bindings.Bind(src.StreamName, src.Context)
	}

	e.sched.Post(&sched.ControlOp{Kind: sched.OpAddFlow, FlowID: id, Flow: flow, Active: afd, Query: query, Result: result})
	if err := <-result; err != nil {
		for _, src := range sources {
			e.Ingest.Bindings.Drop(src.StreamName)
		}
		return err
	}
	return nil
}

func countSinks(spec *plan.FlowSpecification) int {
	n := 0
	_ = spec.BFS(func(node *plan.Node) error {
		if node.Kind == plan.NodeConsoleOutput || node.Kind == plan.NodeMemoryOutput {
			n++
		}
		return nil
	})
	return n
}

// CancelFlow is spec.md §6's cancel_flow(id): cooperative, asynchronous
// from the caller's perspective — the control op is enqueued and this
// call returns once the scheduler has processed it.
func (e *Engine) CancelFlow(id local.FlowID) {
	done := make(chan struct{})
	e.sched.Post(&sched.ControlOp{Kind: sched.OpCancelFlow, FlowID: id, CancelResult: done})
	<-done
}

// CancelAll cancels every active flow.
func (e *Engine) CancelAll() {
	e.sched.Post(&sched.ControlOp{Kind: sched.OpCancelAll})
}

// JoinFlow blocks until id reaches CLOSED, or timeout elapses first, per
// spec.md §6's join_flow(id, timeout?). A zero timeout waits forever.
func (e *Engine) JoinFlow(id local.FlowID, timeout time.Duration) bool {
	waiter := make(chan struct{})
	e.sched.Post(&sched.ControlOp{Kind: sched.OpJoin, FlowID: id, Waiter: waiter})
	if timeout <= 0 {
		<-waiter
		return true
	}
	select {
	case <-waiter:
		return true
	case <-time.After(timeout):
		return false
	}
}

// ListFlows returns every currently active flow's info, per spec.md §6's
// list_flows() -> map<flow_id, flow_info>.
func (e *Engine) ListFlows() map[local.FlowID]*sched.FlowInfo {
	out := make(chan map[local.FlowID]*sched.FlowInfo, 1)
	e.sched.Post(&sched.ControlOp{Kind: sched.OpListFlows, FlowsOut: out})
	return <-out
}

// WatchFlow subscribes sessionID's session to flowID's sink output.
func (e *Engine) WatchFlow(sessionID string, flowID local.FlowID) {
	sess, ok := e.Sessions.Lookup(sessionID)
	if !ok {
		return
	}
	e.sched.Post(&sched.ControlOp{Kind: sched.OpWatchFlow, FlowID: flowID, Subscriber: sess})
}

// UnwatchFlow drops sessionID's subscription to flowID.
func (e *Engine) UnwatchFlow(sessionID string, flowID local.FlowID) {
	e.sched.Post(&sched.ControlOp{Kind: sched.OpUnwatchFlow, FlowID: flowID, SessionID: sessionID})
}

// ListWatched returns every flow id sessionID currently watches, per
// spec.md §6's list_watched(sid) -> list<flow_id>.
func (e *Engine) ListWatched(sessionID string) []local.FlowID {
	out := make(chan []local.FlowID, 1)
	e.sched.Post(&sched.ControlOp{Kind: sched.OpGetWatchList, SessionID: sessionID, WatchOut: out})
	return <-out
}

// Shutdown enqueues CancelAll followed by ShutdownThread, then blocks
// until the worker thread has actually exited, per spec.md §4.5.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.sched.Post(&sched.ControlOp{Kind: sched.OpCancelAll})
	e.sched.Post(&sched.ControlOp{Kind: sched.OpShutdownThread})
	select {
	case <-e.sched.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package sched implements the local execution environment: the
// single-threaded cooperative scheduler that owns every active flow,
// multiplexing control requests (submit, cancel, join, list, watch,
// element-complete) against continuous per-operator event processing, per
// spec.md §4.5. Grounded, near line-for-line in control flow, on
// original_source's exec/local/LocalEnvironment.java: ControlOp, the
// bounded control queue, MAX_STEPS, and the per-op handlers. Per
// spec.md §9's design note, the mutex+condition cross-thread delivery
// pattern is replaced with one-shot completion channels.
package sched

import (
	"github.com/radhaisme/flumebase/local"
)

// ControlKind tags a ControlOp, following the flat-struct-with-explicit-tag
// style plan.Node and local.OpNode use in preference to a deep type
// hierarchy.
type ControlKind int

const (
	OpAddFlow ControlKind = iota
	OpCancelFlow
	OpCancelAll
	OpShutdownThread
	OpNoop
	OpElementComplete
	OpJoin
	OpListFlows
	OpWatchFlow
	OpUnwatchFlow
	OpGetWatchList
)

func (k ControlKind) String() string {
	switch k {
	case OpAddFlow:
		return "AddFlow"
	case OpCancelFlow:
		return "CancelFlow"
	case OpCancelAll:
		return "CancelAll"
	case OpShutdownThread:
		return "ShutdownThread"
	case OpNoop:
		return "Noop"
	case OpElementComplete:
		return "ElementComplete"
	case OpJoin:
		return "Join"
	case OpListFlows:
		return "ListFlows"
	case OpWatchFlow:
		return "WatchFlow"
	case OpUnwatchFlow:
		return "UnwatchFlow"
	case OpGetWatchList:
		return "GetWatchList"
	default:
		return "Unknown"
	}
}

// ControlOp carries one control-plane request onto the bounded control
// queue (capacity 100, per spec.md §4.5). Only the fields relevant to Kind
// are populated; this mirrors the teacher's own preference (plan.Node,
// local.OpNode) for one flat struct with an explicit tag over a type per
// variant.
type ControlOp struct {
	Kind ControlKind

	// AddFlow
	FlowID local.FlowID
	Flow   *local.LocalFlow
	Active *local.ActiveFlowData
	Query  string
	Result chan error

	// CancelFlow
	CancelResult chan struct{}

	// ElementComplete
	Ctx local.Context

	// Join
	Waiter chan struct{}

	// WatchFlow / UnwatchFlow / GetWatchList
	SessionID  string
	Subscriber local.Subscriber

	// ListFlows
	FlowsOut chan map[local.FlowID]*FlowInfo

	// GetWatchList
	WatchOut chan []local.FlowID
}

// FlowInfo is the per-flow snapshot ListFlows hands back to a caller, per
// spec.md §6's list_flows() -> map<flow_id, flow_info>.
type FlowInfo struct {
	ID    local.FlowID
	State FlowState
	Query string
}

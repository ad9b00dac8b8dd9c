package local

import (
	"github.com/radhaisme/flumebase/plan"
)

// BuildDeps carries everything the physical builder needs that is not
// derivable from the FlowSpecification itself: the flow's runtime record
// (so Sink contexts can route to its subscriber set), the memory store
// (so a NodeMemoryOutput's Sink context can route into the right table),
// and the completion callback every context's onComplete hook invokes,
// standing in for "a reference to the scheduler's shared control queue"
// per spec.md §4.4.
type BuildDeps struct {
	FlowID      FlowID
	ActiveFlow  *ActiveFlowData
	MemoryStore *MemoryStore
	OnComplete  func(ctx Context)
}

// SourceBinding names the stream a NodeSource operator was built for and
// its entry context, for the caller to register with the ingestion
// subsystem's sink-binding registry (package ingest) so external rows
// delivered under that stream name reach this flow.
type SourceBinding struct {
	StreamName string
	Context    Context
}

// Build lowers a plan.FlowSpecification into a LocalFlow, walking the
// spec in reverse topological order (sinks before sources) and wiring
// each node's context according to spec.md §4.4's policy: a single
// downstream with no fan-out gets a DirectContext; fan-out gets a
// QueueContext; a terminal node gets a SinkContext. It returns the built
// flow, the number of sink operators it contains (used to seed
// ActiveFlowData's pending-sink counter before the flow is registered),
// and every source operator's stream-name/context binding.
func Build(spec *plan.FlowSpecification, deps BuildDeps) (*LocalFlow, int, []SourceBinding, error) {
	flow := NewLocalFlow()
	built := make(map[*plan.Node]*OpNode)
	sinks := 0
	var sources []SourceBinding

	err := spec.ReverseBFS(func(n *plan.Node) error {
		op, err := nodeOperator(n)
		if err != nil {
			return err
		}
		node := &OpNode{Operator: op, Name: n.Kind.String()}
		built[n] = node

		ctx, err := buildContext(n, node, built, deps)
		if err != nil {
			return err
		}
		op.SetContext(ctx)

		switch n.Kind {
		case plan.NodeConsoleOutput, plan.NodeMemoryOutput:
			sinks++
		case plan.NodeSource:
			sources = append(sources, SourceBinding{StreamName: n.StreamName, Context: ctx})
		}
		return nil
	})
	if err != nil {
		return nil, 0, nil, err
	}

	// Re-derive parent/child edges on the OpNode graph from the plan
	// graph's edges, then seed LocalFlow's roots with the OpNodes
	// matching the spec's roots.
	for planNode, opNode := range built {
		for _, child := range planNode.Children() {
			opNode.AddChild(built[child])
		}
	}
	for _, root := range spec.Roots() {
		flow.DAG.AddRoot(built[root])
	}
	return flow, sinks, sources, nil
}

// buildContext picks the context variant for n's operator based on its
// fan-out in the plan, wiring Downstream to the already-built OpNode for
// n's single child (reverse-BFS guarantees children are built first).
func buildContext(n *plan.Node, node *OpNode, built map[*plan.Node]*OpNode, deps BuildDeps) (Context, error) {
	children := n.Children()

	onComplete := func() {
		if deps.OnComplete != nil {
			deps.OnComplete(node.Context())
		}
	}
	cb := contextBase{onComplete: onComplete, flowID: deps.FlowID}

	switch n.Kind {
	case plan.NodeConsoleOutput:
		return &SinkContext{contextBase: cb, Flow: deps.ActiveFlow}, nil
	case plan.NodeMemoryOutput:
		var table *MemoryTable
		if deps.MemoryStore != nil {
			table = deps.MemoryStore.Table(n.MemoryName)
		}
		return &SinkContext{contextBase: cb, Memory: table}, nil
	}

	if len(children) == 0 {
		// A non-terminal node with no children is a malformed spec; treat
		// it as a dead-end DirectContext with no downstream rather than
		// failing construction, matching the scheduler's tolerance for
		// AddFlow edge cases (spec.md §4.5).
		return &DirectContext{contextBase: cb}, nil
	}

	if len(children) == 1 && !hasMultipleParents(children[0]) {
		downstream := built[children[0]].Operator
		ctx := &DirectContext{contextBase: cb, Downstream: downstream}
		return wireJoinSide(n, children[0], ctx), nil
	}

	// Fan-out, or the sole child also receives from another parent (a
	// join's two sides reconverge there) — use a QueueContext so the
	// scheduler's active-queue set, not a synchronous call stack, governs
	// delivery order.
	downstream := built[children[0]].Operator
	ctx := NewQueueContext(downstream, onComplete)
	ctx.contextBase.flowID = deps.FlowID
	return wireJoinSide(n, children[0], ctx), nil
}

func hasMultipleParents(n *plan.Node) bool {
	return len(n.Parents()) > 1
}

// wireJoinSide wraps ctx in a side-tagging context when its downstream is
// a join with two parents, so JoinOperator.TakeEvent can tell which side
// of the join an event arrived from (see context.go's sideTagContext).
func wireJoinSide(n, child *plan.Node, ctx Context) Context {
	if child.Kind != plan.NodeJoin || len(child.Parents()) < 2 {
		return ctx
	}
	if child.Parents()[0] == n {
		return newSideTagContext("left", ctx)
	}
	return newSideTagContext("right", ctx)
}

package local

import "github.com/radhaisme/flumebase/dag"

// OpNode is one node of a LocalFlow's runtime DAG: an Operator plus the
// graph-traversal bookkeeping dag.Node requires.
type OpNode struct {
	Operator
	Name string // diagnostic label, e.g. "Filter", "ConsoleOutput"

	children []*OpNode
	parents  []*OpNode
	seen     bool
}

func (n *OpNode) Children() []*OpNode { return n.children }
func (n *OpNode) Parents() []*OpNode  { return n.parents }
func (n *OpNode) AddChild(c *OpNode) {
	n.children = append(n.children, c)
	c.parents = append(c.parents, n)
}
func (n *OpNode) AddParent(p *OpNode) {
	n.parents = append(n.parents, p)
	p.children = append(p.children, n)
}
func (n *OpNode) Seen() bool    { return n.seen }
func (n *OpNode) MarkSeen()     { n.seen = true }
func (n *OpNode) ClearSeen()    { n.seen = false }

// LocalFlow is a DAG of runtime operator nodes; it exclusively owns its
// operators, per spec.md §3's ownership invariant.
type LocalFlow struct {
	DAG *dag.DAG[*OpNode]
}

func NewLocalFlow() *LocalFlow {
	return &LocalFlow{DAG: dag.New[*OpNode]()}
}

// Open opens every reachable operator in reverse-BFS order (sinks before
// sources), per spec.md §4.5's AddFlow handler. On the first failure,
// every operator already opened for this flow is closed best-effort and
// the error is returned, leaving no operator registered for the caller.
func (f *LocalFlow) Open() error {
	var opened []*OpNode
	err := f.DAG.ReverseBFS(func(n *OpNode) error {
		if err := n.Open(); err != nil {
			return err
		}
		opened = append(opened, n)
		return nil
	})
	if err != nil {
		for _, n := range opened {
			_ = n.Close()
		}
		return err
	}
	return nil
}

// Close closes every reachable operator in BFS order (sources before
// sinks, so upstream stops emitting before downstream closes), per
// spec.md §4.5's CancelFlow handler. Close is best-effort: a per-operator
// error is collected but does not stop the walk.
func (f *LocalFlow) Close() []error {
	var errs []error
	_ = f.DAG.BFS(func(n *OpNode) error {
		if n.IsClosed() {
			return nil
		}
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	return errs
}

// QueueContexts returns every QueueContext reachable in the flow, used by
// the scheduler to populate its active-queue set on AddFlow.
func (f *LocalFlow) QueueContexts() []*QueueContext {
	var out []*QueueContext
	_ = f.DAG.BFS(func(n *OpNode) error {
		if qc := asQueueContext(n.Context()); qc != nil {
			out = append(out, qc)
		}
		return nil
	})
	return out
}

package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	id       string
	children []*testNode
	parents  []*testNode
	seen     bool
}

func (n *testNode) Children() []*testNode   { return n.children }
func (n *testNode) Parents() []*testNode    { return n.parents }
func (n *testNode) AddChild(c *testNode)    { n.children = append(n.children, c) }
func (n *testNode) AddParent(p *testNode)   { n.parents = append(n.parents, p) }
func (n *testNode) Seen() bool              { return n.seen }
func (n *testNode) MarkSeen()               { n.seen = true }
func (n *testNode) ClearSeen()              { n.seen = false }

func link(parent, child *testNode) {
	parent.AddChild(child)
	child.AddParent(parent)
}

// buildDiamond produces root -> {a, b} -> sink, a shared-descendant shape
// that would be visited twice without the seen-bit discipline.
func buildDiamond() (root, a, b, sink *testNode) {
	root = &testNode{id: "root"}
	a = &testNode{id: "a"}
	b = &testNode{id: "b"}
	sink = &testNode{id: "sink"}
	link(root, a)
	link(root, b)
	link(a, sink)
	link(b, sink)
	return
}

func TestBFSVisitsEachNodeOnce(t *testing.T) {
	root, _, _, _ := buildDiamond()
	d := New[*testNode]()
	d.AddRoot(root)

	var order []string
	err := d.BFS(func(n *testNode) error {
		order = append(order, n.id)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, order, 4)
	assert.Equal(t, "root", order[0])
}

func TestReverseBFSStartsFromSinks(t *testing.T) {
	root, _, _, _ := buildDiamond()
	d := New[*testNode]()
	d.AddRoot(root)

	var order []string
	err := d.ReverseBFS(func(n *testNode) error {
		order = append(order, n.id)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, order, 4)
	assert.Equal(t, "sink", order[0])
	assert.Equal(t, "root", order[len(order)-1])
}

func TestDFSVisitsEachNodeOnce(t *testing.T) {
	root, _, _, _ := buildDiamond()
	d := New[*testNode]()
	d.AddRoot(root)

	var count int
	err := d.DFS(func(n *testNode) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestOperatorErrorAbortsTraversal(t *testing.T) {
	root, _, _, _ := buildDiamond()
	d := New[*testNode]()
	d.AddRoot(root)

	boom := assert.AnError
	err := d.BFS(func(n *testNode) error {
		return boom
	})
	require.Error(t, err)
	opErr, ok := err.(*OperatorError)
	require.True(t, ok)
	assert.ErrorIs(t, opErr, boom)
}

func TestAttachToLastLayer(t *testing.T) {
	root, _, _, sink := buildDiamond()
	d := New[*testNode]()
	d.AddRoot(root)

	tail := &testNode{id: "tail"}
	d.AttachToLastLayer(tail)

	assert.Contains(t, sink.Children(), tail)
}

func TestAddNodesFromDAG(t *testing.T) {
	root1 := &testNode{id: "r1"}
	root2 := &testNode{id: "r2"}
	d1 := New[*testNode]()
	d1.AddRoot(root1)
	d2 := New[*testNode]()
	d2.AddRoot(root2)

	d1.AddNodesFromDAG(d2)
	assert.Len(t, d1.Roots(), 2)
}

package plan

import (
	"bytes"
	"testing"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootWithStream(name string, fields map[string]lang.Type) *exec.SymbolTable {
	root := exec.BuiltInSymbolTable()
	ft := exec.NewSymbolTable(nil)
	for n, t := range fields {
		ft.Define(&exec.Symbol{Name: n, Kind: exec.SymField, Type: t})
	}
	root.Define(&exec.Symbol{Name: name, Kind: exec.SymStream, Fields: ft})
	return root
}

func parse(t *testing.T, src string) sql.Statement {
	var errBuf bytes.Buffer
	stmt := sql.Generate(src, &errBuf)
	require.Empty(t, errBuf.String())
	require.NotNil(t, stmt)
	return stmt
}

func TestCreateExecPlanSimpleSelect(t *testing.T) {
	root := newRootWithStream("s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})
	ctx := NewPlanContext(root, nil)

	spec, err := CreateExecPlan(parse(t, "SELECT a FROM s"), ctx)
	require.NoError(t, err)
	require.Len(t, spec.Roots(), 1)

	var kinds []NodeKind
	require.NoError(t, spec.BFS(func(n *Node) error {
		kinds = append(kinds, n.Kind)
		return nil
	}))
	assert.Equal(t, []NodeKind{NodeSource, NodeProject, NodeConsoleOutput}, kinds)
}

func TestCreateExecPlanWithFilterAndAggregate(t *testing.T) {
	root := newRootWithStream("s", map[string]lang.Type{
		"k": lang.Primitive(lang.INT),
		"v": lang.Primitive(lang.INT),
	})
	ctx := NewPlanContext(root, nil)

	spec, err := CreateExecPlan(parse(t, "SELECT k, sum(v) FROM s WHERE v > 0 GROUP BY k"), ctx)
	require.NoError(t, err)

	var kinds []NodeKind
	require.NoError(t, spec.BFS(func(n *Node) error {
		kinds = append(kinds, n.Kind)
		return nil
	}))
	assert.Equal(t, []NodeKind{NodeSource, NodeFilter, NodeAggregate, NodeProject, NodeConsoleOutput}, kinds)
}

func TestCreateExecPlanJoin(t *testing.T) {
	root := newRootWithStream("s1", map[string]lang.Type{"k": lang.Primitive(lang.INT)})
	ft := exec.NewSymbolTable(nil)
	ft.Define(&exec.Symbol{Name: "k", Kind: exec.SymField, Type: lang.Primitive(lang.INT)})
	root.Define(&exec.Symbol{Name: "s2", Kind: exec.SymStream, Fields: ft})
	ctx := NewPlanContext(root, nil)

	spec, err := CreateExecPlan(parse(t, "SELECT s1.k FROM s1 JOIN s2 ON s1.k = s2.k"), ctx)
	require.NoError(t, err)
	assert.Len(t, spec.Roots(), 2)
}

func TestPropagateSchemasFailsOnUnresolvedType(t *testing.T) {
	n := &Node{Kind: NodeProject, ProjectItems: []*sql.SelectItem{
		{Expr: &sql.IdentExpr{}, Label: "x"},
	}}
	spec := NewFlowSpecification()
	spec.AddRoot(n)
	err := PropagateSchemas(spec)
	assert.Error(t, err)
}

func TestExplainProducesParseTreeAndExecutionPlan(t *testing.T) {
	root := newRootWithStream("s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})
	ctx := NewPlanContext(root, nil)

	_, err := CreateExecPlan(parse(t, "EXPLAIN SELECT a FROM s"), ctx)
	require.NoError(t, err)
	assert.True(t, ctx.Explain)
	msg := ctx.MsgBuilder.String()
	assert.Contains(t, msg, "Parse tree:")
	assert.Contains(t, msg, "Execution plan:")
}

func TestCreateStreamThenDescribe(t *testing.T) {
	root := exec.BuiltInSymbolTable()
	ctx := NewPlanContext(root, nil)

	_, err := CreateExecPlan(parse(t, "CREATE STREAM s (a int, b string)"), ctx)
	require.NoError(t, err)

	ctx2 := NewPlanContext(root, nil)
	_, err = CreateExecPlan(parse(t, "DESCRIBE s"), ctx2)
	require.NoError(t, err)
	assert.Contains(t, ctx2.MsgBuilder.String(), "a")
}

func TestShowStreamsListsDeclaredStreams(t *testing.T) {
	root := newRootWithStream("s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})
	ctx := NewPlanContext(root, nil)

	_, err := CreateExecPlan(parse(t, "SHOW STREAMS"), ctx)
	require.NoError(t, err)
	assert.Contains(t, ctx.MsgBuilder.String(), "s")
}

package local

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/plan"
	"github.com/radhaisme/flumebase/sql"
)

func parseAndPlan(t *testing.T, query string) *plan.FlowSpecification {
	t.Helper()
	root := exec.BuiltInSymbolTable()
	fields := exec.NewSymbolTable(nil)
	fields.Define(&exec.Symbol{Name: "a", Kind: exec.SymField, Type: lang.Primitive(lang.INT)})
	root.Define(&exec.Symbol{Name: "s", Kind: exec.SymStream, Fields: fields})

	var errBuf bytes.Buffer
	stmt := sql.Generate(query, &errBuf)
	require.Empty(t, errBuf.String())
	require.NotNil(t, stmt)

	ctx := plan.NewPlanContext(root, nil)
	spec, err := plan.CreateExecPlan(stmt, ctx)
	require.NoError(t, err)
	return spec
}

func TestBuildWiresSourceThroughToConsoleSink(t *testing.T) {
	spec := parseAndPlan(t, "SELECT a FROM s WHERE a > 1")

	afd := NewActiveFlowData(FlowID("f1"), nil, 1)
	flow, sinkCount, sources, err := Build(spec, BuildDeps{FlowID: "f1", ActiveFlow: afd})
	require.NoError(t, err)
	assert.Equal(t, 1, sinkCount)
	require.Len(t, sources, 1)
	assert.Equal(t, "s", sources[0].StreamName)

	afd.Flow = flow
	require.NoError(t, flow.Open())

	var received []Event
	afd.Watch(testSubscriber{fn: func(e Event) { received = append(received, e) }})

	require.NoError(t, sources[0].Context.Emit(Event{"a": int64(1)}))
	require.NoError(t, sources[0].Context.Emit(Event{"a": int64(5)}))

	require.Len(t, received, 1)
	assert.Equal(t, int64(5), received[0]["a"])
}

func TestBuildWiresMemoryOutput(t *testing.T) {
	source := &plan.Node{Kind: plan.NodeSource, StreamName: "s"}
	sink := &plan.Node{Kind: plan.NodeMemoryOutput, MemoryName: "m"}
	source.AddChild(sink)

	spec := plan.NewFlowSpecification()
	spec.AddRoot(source)

	store := NewMemoryStore()
	flow, sinkCount, sources, err := Build(spec, BuildDeps{FlowID: "f2", MemoryStore: store})
	require.NoError(t, err)
	assert.Equal(t, 1, sinkCount)
	require.NoError(t, flow.Open())

	require.NoError(t, sources[0].Context.Emit(Event{"a": int64(7)}))
	rows := store.Table("m").Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0]["a"])
}

type testSubscriber struct {
	fn func(Event)
}

func (s testSubscriber) SubscriberID() string       { return "test" }
func (s testSubscriber) Deliver(flow FlowID, e Event) { s.fn(e) }

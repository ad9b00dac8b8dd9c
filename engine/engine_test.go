package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radhaisme/flumebase/config"
	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/local"
)

func newTestEngine(t *testing.T) *Engine {
	e := New(config.New(), zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	})
	declareStream(t, e, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})
	return e
}

func declareStream(t *testing.T, e *Engine, name string, fields map[string]lang.Type) {
	ft := exec.NewSymbolTable(nil)
	for n, typ := range fields {
		ft.Define(&exec.Symbol{Name: n, Kind: exec.SymField, Type: typ})
	}
	e.Root.Define(&exec.Symbol{Name: name, Kind: exec.SymStream, Fields: ft})
}

func TestSubmitParseFailureReturnsMessageNoFlow(t *testing.T) {
	e := newTestEngine(t)
	result := e.Submit("SELEKT 1", nil)
	assert.NotEmpty(t, result.Messages)
	assert.Equal(t, local.FlowID(""), result.FlowID)
}

func TestSubmitExplainProducesPlanNoDeployment(t *testing.T) {
	e := newTestEngine(t)
	result := e.Submit("EXPLAIN SELECT a FROM s", nil)
	assert.Contains(t, result.Messages, "Parse tree:")
	assert.Contains(t, result.Messages, "Execution plan:")
	assert.Equal(t, local.FlowID(""), result.FlowID)
}

func TestSubmitLifecycleJoinAndCancel(t *testing.T) {
	e := newTestEngine(t)
	result := e.Submit("SELECT a FROM s", map[string]string{"rtengine.flow.autowatch": "false"})
	require.NotEmpty(t, result.FlowID)

	closed := e.JoinFlow(result.FlowID, 50*time.Millisecond)
	assert.False(t, closed, "flow should still be running")

	flows := e.ListFlows()
	_, present := flows[result.FlowID]
	assert.True(t, present)

	e.CancelFlow(result.FlowID)
	closed = e.JoinFlow(result.FlowID, 500*time.Millisecond)
	assert.True(t, closed, "flow should be closed after cancel")

	flows = e.ListFlows()
	_, present = flows[result.FlowID]
	assert.False(t, present, "canceled flow should be removed from list_flows")
}

func TestSubmitCreateStreamThenQuery(t *testing.T) {
	e := New(config.New(), zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	})

	create := e.Submit("CREATE STREAM t (x int, y string)", nil)
	assert.Contains(t, create.Messages, "created")

	result := e.Submit("SELECT x FROM t", map[string]string{"rtengine.flow.autowatch": "false"})
	require.NotEmpty(t, result.FlowID)
	e.CancelFlow(result.FlowID)
}

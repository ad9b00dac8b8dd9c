package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radhaisme/flumebase/ingest"
	"github.com/radhaisme/flumebase/local"
)

// buildSourceToSinkFlow wires a minimal one-hop flow: a SourceOperator
// feeding directly into a ConsoleOutputOperator via a DirectContext, with
// the sink's context routing into afd's subscriber set.
func buildSourceToSinkFlow(t *testing.T, afd *local.ActiveFlowData) (*local.LocalFlow, local.Context) {
	t.Helper()
	flow := local.NewLocalFlow()

	sink := local.NewConsoleOutputOperator([]string{"a"})
	sinkNode := &local.OpNode{Operator: sink, Name: "ConsoleOutput"}
	sink.SetContext(&local.SinkContext{Flow: afd})

	source := local.NewSourceOperator("s")
	sourceNode := &local.OpNode{Operator: source, Name: "Source"}
	source.SetContext(&local.DirectContext{Downstream: sink})

	sourceNode.AddChild(sinkNode)
	flow.DAG.AddRoot(sourceNode)
	return flow, source.Context()
}

func TestSchedulerAddFlowListCancelJoin(t *testing.T) {
	sch := New(ingest.New(), zap.NewNop())
	go sch.Run()
	defer func() {
		sch.Post(&ControlOp{Kind: OpShutdownThread})
		<-sch.Done()
	}()

	id := local.FlowID("flow-1")
	afd := local.NewActiveFlowData(id, nil, 1)
	flow, sourceCtx := buildSourceToSinkFlow(t, afd)
	afd.Flow = flow

	result := make(chan error, 1)
	sch.Post(&ControlOp{Kind: OpAddFlow, FlowID: id, Flow: flow, Active: afd, Query: "SELECT a FROM s", Result: result})
	require.NoError(t, <-result)

	flowsOut := make(chan map[local.FlowID]*FlowInfo, 1)
	sch.Post(&ControlOp{Kind: OpListFlows, FlowsOut: flowsOut})
	flows := <-flowsOut
	require.Contains(t, flows, id)
	assert.Equal(t, Running, flows[id].State)

	var received []local.Event
	collect := collectorSubscriber{id: "collector", fn: func(e local.Event) { received = append(received, e) }}
	sch.Post(&ControlOp{Kind: OpWatchFlow, FlowID: id, Subscriber: collect})

	require.NoError(t, sourceCtx.Emit(local.Event{"a": 1}))
	time.Sleep(20 * time.Millisecond)

	waiter := make(chan struct{})
	sch.Post(&ControlOp{Kind: OpJoin, FlowID: id, Waiter: waiter})
	select {
	case <-waiter:
		t.Fatal("join should not fire before cancel")
	case <-time.After(30 * time.Millisecond):
	}

	cancelDone := make(chan struct{})
	sch.Post(&ControlOp{Kind: OpCancelFlow, FlowID: id, CancelResult: cancelDone})
	<-cancelDone

	select {
	case <-waiter:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("join should fire after cancel")
	}

	sch.Post(&ControlOp{Kind: OpListFlows, FlowsOut: flowsOut})
	flows = <-flowsOut
	assert.NotContains(t, flows, id)
}

type collectorSubscriber struct {
	id string
	fn func(local.Event)
}

func (c collectorSubscriber) SubscriberID() string { return c.id }
func (c collectorSubscriber) Deliver(flow local.FlowID, e local.Event) {
	c.fn(e)
}

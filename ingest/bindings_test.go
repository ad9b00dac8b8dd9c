package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhaisme/flumebase/local"
)

// boundContext wires directly into a MemoryTable via a SinkContext, so
// tests can observe delivered events without constructing a full flow.
func boundContext(table *local.MemoryTable) local.Context {
	return &local.SinkContext{Memory: table}
}

func TestBindingsDeliverRoutesToBoundContext(t *testing.T) {
	b := NewBindings()
	table := local.NewMemoryStore().Table("t")
	b.Bind("s", boundContext(table))

	delivered, err := b.Deliver("s", local.Event{"a": 1})
	require.NoError(t, err)
	assert.True(t, delivered)

	rows := table.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0]["a"])
}

func TestBindingsDeliverToUnknownNameIsNoop(t *testing.T) {
	b := NewBindings()
	delivered, err := b.Deliver("missing", local.Event{"a": 1})
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestBindingsDropRemovesBinding(t *testing.T) {
	b := NewBindings()
	table := local.NewMemoryStore().Table("t")
	b.Bind("s", boundContext(table))
	b.Drop("s")

	delivered, err := b.Deliver("s", local.Event{"a": 1})
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, table.Snapshot())
}

func TestSubsystemStartStopIdempotent(t *testing.T) {
	s := New()
	assert.False(t, s.Running())
	s.Start()
	s.Start()
	assert.True(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())
}

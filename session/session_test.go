package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhaisme/flumebase/local"
)

type recordingConsole struct {
	delivered []local.Event
}

func (c *recordingConsole) Deliver(flow local.FlowID, e local.Event) {
	c.delivered = append(c.delivered, e)
}

func TestNewWithIDUsesExplicitIdentity(t *testing.T) {
	s := NewWithID(Local, nil)
	assert.Equal(t, Local, s.ID())
	assert.Equal(t, Local, s.SubscriberID())
}

func TestNewGeneratesUniqueIdentities(t *testing.T) {
	a := New(nil)
	b := New(nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestDeliverForwardsToConsole(t *testing.T) {
	console := &recordingConsole{}
	s := New(console)
	s.Deliver(local.FlowID("f1"), local.Event{"a": 1})
	require.Len(t, console.delivered, 1)
	assert.Equal(t, 1, console.delivered[0]["a"])
}

func TestDeliverWithNilConsoleIsNoop(t *testing.T) {
	s := New(nil)
	assert.NotPanics(t, func() {
		s.Deliver(local.FlowID("f1"), local.Event{"a": 1})
	})
}

func TestRegistryConnectLookupDisconnect(t *testing.T) {
	r := NewRegistry()
	s := NewWithID("sess-1", nil)
	r.Connect(s)

	found, ok := r.Lookup("sess-1")
	require.True(t, ok)
	assert.Same(t, s, found)

	r.Disconnect("sess-1")
	_, ok = r.Lookup("sess-1")
	assert.False(t, ok)
}

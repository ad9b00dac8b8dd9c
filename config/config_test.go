package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAutoWatchTrue(t *testing.T) {
	c := New()
	assert.True(t, c.AutoWatch())
	assert.Equal(t, "0", c.SubmitterSessionID())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	restore := viperEnviron
	viperEnviron = func() []string {
		return []string{"RTENGINE_FLOW_AUTOWATCH=false", "UNRELATED=1"}
	}
	defer func() { viperEnviron = restore }()

	c := New()
	assert.False(t, c.AutoWatch())
}

func TestOverlayOptionsTakePrecedenceWithoutMutatingBase(t *testing.T) {
	base := New()
	overlaid := base.Overlay(map[string]string{"rtengine.flow.autowatch": "false"})

	assert.False(t, overlaid.AutoWatch())
	assert.True(t, base.AutoWatch())
}

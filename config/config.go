// Package config wraps github.com/spf13/viper to back the Engine's
// rtengine.* options, grounded on KartikBazzad-bunbase's pkg/config
// package (environment-prefixed viper loading unmarshaled into a target
// struct). spec.md §6 names the per-submission options_map keys this
// backs: rtengine.flow.autowatch and
// rtengine.query.submitter.session.id.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the engine-wide defaults every query submission's
// per-call options map overlays, mirroring
// `Configuration planConf = new Configuration(mConf)` in the original's
// LocalEnvironment.submitQuery.
type Config struct {
	v *viper.Viper
}

// New builds a Config with spec.md §6's documented defaults, then
// overlays any RTENGINE_-prefixed environment variables (e.g.
// RTENGINE_FLOW_AUTOWATCH=false maps to rtengine.flow.autowatch).
func New() *Config {
	v := viper.New()
	v.SetDefault("rtengine.flow.autowatch", true)
	v.SetDefault("rtengine.query.submitter.session.id", 0)

	prefix := "RTENGINE_"
	for _, kv := range viperEnviron() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		propKey := strings.TrimPrefix(key, prefix)
		propKey = "rtengine." + strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		v.Set(propKey, value)
	}
	return &Config{v: v}
}

// Overlay returns a per-submission view of cfg where options (spec.md
// §6's options_map, with plain string keys/values) take precedence over
// the base config, without mutating cfg itself.
func (c *Config) Overlay(options map[string]string) *Config {
	overlaid := viper.New()
	for k, v := range c.v.AllSettings() {
		overlaid.SetDefault(k, v)
	}
	for k, v := range options {
		overlaid.Set(k, v)
	}
	return &Config{v: overlaid}
}

func (c *Config) AutoWatch() bool {
	return c.v.GetBool("rtengine.flow.autowatch")
}

func (c *Config) SubmitterSessionID() string {
	return c.v.GetString("rtengine.query.submitter.session.id")
}

// viperEnviron is split out so tests can stub the environment without
// touching the real process environment.
var viperEnviron = defaultEnviron

func defaultEnviron() []string { return os.Environ() }

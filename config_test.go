package depsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IncludeOwned)
	assert.True(t, cfg.ResolveReferences)
	assert.True(t, cfg.SkipExisting)
	assert.False(t, cfg.AllowCycles)
	assert.Zero(t, cfg.MaxOwnedDepth)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "negative owned depth", modify: func(c *Config) { c.MaxOwnedDepth = -1 }},
		{name: "negative reference depth", modify: func(c *Config) { c.MaxReferenceDepth = -2 }},
		{name: "negative cycle breaks", modify: func(c *Config) { c.MaxCycleBreaks = -1 }},
		{name: "no traversal at all", modify: func(c *Config) {
			c.IncludeOwned = false
			c.ResolveReferences = false
		}},
		{name: "owned only", modify: func(c *Config) { c.ResolveReferences = false }, valid: true},
		{name: "references only", modify: func(c *Config) { c.IncludeOwned = false }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestConfig_CycleBreakBudget(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultMaxCycleBreaks, cfg.CycleBreakBudget())

	cfg.MaxCycleBreaks = 3
	assert.Equal(t, 3, cfg.CycleBreakBudget())
}

func TestTraversesType(t *testing.T) {
	assert.True(t, TraversesType(nil, "entry"))
	assert.True(t, TraversesType([]string{}, "entry"))
	assert.True(t, TraversesType([]string{"entry", "sense"}, "sense"))
	assert.False(t, TraversesType([]string{"entry"}, "sense"))
}

package depsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord("e1", "entry")

	assert.Equal(t, "e1", r.ID)
	assert.Equal(t, "entry", r.Type)
	require.NoError(t, r.Validate())
}

func TestRecord_Validate(t *testing.T) {
	assert.Error(t, (&Record{Type: "entry"}).Validate())
	assert.Error(t, (&Record{ID: "e1"}).Validate())
	assert.NoError(t, (&Record{ID: "e1", Type: "entry"}).Validate())
}

func TestRecord_WithProperty(t *testing.T) {
	r := NewRecord("e1", "entry").
		WithProperty("headword", "run").
		WithProperty("senses", []string{"s1", "s2"})

	assert.Equal(t, "run", r.Properties["headword"])
	assert.Len(t, r.Properties["senses"], 2)
}

func TestRecord_WithProperties(t *testing.T) {
	r := NewRecord("e1", "entry").WithProperties(map[string]any{
		"headword": "run",
		"pos":      "verb",
	})

	assert.Equal(t, "verb", r.Properties["pos"])

	// WithProperties replaces the whole map.
	r = r.WithProperties(map[string]any{"pos": "noun"})
	assert.Equal(t, "noun", r.Properties["pos"])
	assert.NotContains(t, r.Properties, "headword")
}

package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResult_Summary(t *testing.T) {
	r := &Result{
		RunID:    "run-1",
		Created:  2,
		Updated:  1,
		Skipped:  1,
		Duration: 250 * time.Millisecond,
	}
	r.Errors = append(r.Errors, ImportError{RecordID: "x", Err: errors.New("boom")})
	r.Warnings = append(r.Warnings, "y: lookup failed")

	s := r.Summary()
	assert.Contains(t, s, "run-1")
	assert.Contains(t, s, "2 created")
	assert.Contains(t, s, "1 failed")
	assert.Contains(t, s, "x: boom")
	assert.Contains(t, s, "y: lookup failed")
}

func TestResult_RecordBumpsCounters(t *testing.T) {
	r := &Result{}
	r.record(0, "a", "entry", OutcomeCreated, "")
	r.record(1, "b", "entry", OutcomeUpdated, "")
	r.record(2, "c", "entry", OutcomeSkippedExisting, "")
	r.record(3, "d", "entry", OutcomeSkippedDependency, "dependency c failed")
	r.record(4, "e", "entry", OutcomeFailed, "boom")

	assert.Equal(t, 1, r.Created)
	assert.Equal(t, 1, r.Updated)
	assert.Equal(t, 2, r.Skipped)
	assert.Len(t, r.Changes, 5)
	assert.False(t, r.Failed() > 0, "failure count comes from Errors, not the change log")
}

func TestImportError_Unwrap(t *testing.T) {
	underlying := errors.New("store unavailable")
	err := ImportError{RecordID: "a", Err: underlying}

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "a")
}

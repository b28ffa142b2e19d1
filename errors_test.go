package depsync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncError_Error(t *testing.T) {
	err := NewCycleError("Importer.ImportWithDependencies", errors.New("a -> b -> a"))
	msg := err.Error()

	assert.Contains(t, msg, "Importer.ImportWithDependencies")
	assert.Contains(t, msg, KindCycle)
	assert.Contains(t, msg, "a -> b -> a")
}

func TestSyncError_UnwrapReachesSentinel(t *testing.T) {
	err := NewValidationError("op", fmt.Errorf("%w: 2 critical issues", ErrValidationBlocked))

	assert.ErrorIs(t, err, ErrValidationBlocked)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, KindValidation, syncErr.Kind)
}

func TestSyncError_IsMatchesKindTemplate(t *testing.T) {
	err := NewNotFoundError("Resolver.Resolve", ErrRecordNotFound)

	assert.ErrorIs(t, err, &SyncError{Kind: KindNotFound})
	assert.NotErrorIs(t, err, &SyncError{Kind: KindCycle})
	assert.ErrorIs(t, err, &SyncError{Kind: KindNotFound, Op: "Resolver.Resolve"})
	assert.NotErrorIs(t, err, &SyncError{Kind: KindNotFound, Op: "other"})
}

func TestSyncError_WithContext(t *testing.T) {
	base := NewCreationError("op", ErrCreationFailed)
	withCtx := base.WithContext(map[string]any{"record_id": "a", "type": "entry"})

	assert.Contains(t, withCtx.Error(), "record_id")
	assert.Nil(t, base.Context, "the original error is not mutated")
	assert.ErrorIs(t, withCtx, ErrCreationFailed)
}

func TestErrorConstructors_SetKinds(t *testing.T) {
	underlying := errors.New("boom")
	tests := []struct {
		name string
		err  *SyncError
		kind string
	}{
		{name: "conflict", err: NewConflictError("op", underlying), kind: KindConflict},
		{name: "not found", err: NewNotFoundError("op", underlying), kind: KindNotFound},
		{name: "cycle", err: NewCycleError("op", underlying), kind: KindCycle},
		{name: "lookup", err: NewLookupError("op", underlying), kind: KindLookup},
		{name: "validation", err: NewValidationError("op", underlying), kind: KindValidation},
		{name: "creation", err: NewCreationError("op", underlying), kind: KindCreation},
		{name: "configuration", err: NewConfigurationError("op", underlying), kind: KindConfiguration},
		{name: "aborted", err: NewAbortedError("op", underlying), kind: KindAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.ErrorIs(t, tt.err, underlying)
		})
	}
}

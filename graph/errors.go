package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph operations.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrTypeConflict indicates that a node id was re-registered with a
	// different type. Re-adding a node with the same type is a no-op;
	// re-adding it with a different type is a programmer error.
	ErrTypeConflict = errors.New("node type conflict")

	// ErrUnknownNode indicates that an edge references an id that has not
	// been registered with AddNode.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfReference indicates an ordering edge from a node to itself,
	// which would be a trivial unbreakable cycle.
	ErrSelfReference = errors.New("self-referential ordering edge")

	// ErrEdgeNotBreakable indicates that no ordering edge between the given
	// pair can be removed from ordering: either no such edge exists or the
	// only candidate is an Ownership edge, which is never demoted because
	// breaking one would orphan a record.
	ErrEdgeNotBreakable = errors.New("edge not breakable")
)

// CycleError is returned by TopologicalOrder when the ordering edges of the
// graph contain at least one cycle. Cycles lists each detected cycle as a
// node-id sequence whose first and last elements are the same id.
type CycleError struct {
	Cycles [][]string
}

// Error implements the error interface with a rendering of every cycle.
func (e *CycleError) Error() string {
	if len(e.Cycles) == 0 {
		return "circular dependency detected"
	}

	rendered := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		rendered[i] = strings.Join(cycle, " -> ")
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(rendered, "; "))
}

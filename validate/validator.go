package validate

import (
	"context"
	"fmt"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
)

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityCritical blocks execution entirely: the import aborts before
	// any write is performed.
	SeverityCritical Severity = "critical"

	// SeverityWarning is recorded on the result; execution proceeds.
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding for one node.
type Issue struct {
	// NodeID is the id of the node the issue concerns.
	NodeID string

	// Severity is the issue's severity.
	Severity Severity

	// Message describes the problem.
	Message string
}

// String renders the issue for logs and result summaries.
func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.NodeID, i.Message)
}

// Validator checks a single node of a resolved graph before execution.
//
// Implementations must be read-only: validation runs against the graph and
// the target store before the first write, and a dry run relies on it
// having no side effects. Problems with the validator itself (a failing
// store lookup, an expression that will not evaluate) are reported as
// warning issues rather than panics or dropped checks.
type Validator interface {
	Check(ctx context.Context, node *graph.Node, g *graph.Graph) []Issue
}

// Multi fans a check out to several validators and concatenates their
// issues in order.
type Multi []Validator

// Check implements Validator.
func (m Multi) Check(ctx context.Context, node *graph.Node, g *graph.Graph) []Issue {
	var issues []Issue
	for _, v := range m {
		issues = append(issues, v.Check(ctx, node, g)...)
	}
	return issues
}

// DependencyValidator checks that a node's dependencies will be satisfiable
// at creation time. A dependency is satisfiable if it carries a source
// record (it will be created earlier in the order) or if it already exists
// in the target store.
type DependencyValidator struct {
	target depsync.TargetStore
}

// NewDependencyValidator creates a DependencyValidator over the given
// target store.
func NewDependencyValidator(target depsync.TargetStore) *DependencyValidator {
	return &DependencyValidator{target: target}
}

// Check implements Validator.
func (v *DependencyValidator) Check(ctx context.Context, node *graph.Node, g *graph.Graph) []Issue {
	var issues []Issue

	if issue, ok := v.checkCreatable(ctx, node.ID, node); ok {
		issues = append(issues, issue)
	}

	for _, depID := range g.Dependencies(node.ID) {
		dep, ok := g.Node(depID)
		if !ok {
			issues = append(issues, Issue{
				NodeID:   node.ID,
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("dependency %q is not part of the graph", depID),
			})
			continue
		}
		if issue, ok := v.checkCreatable(ctx, node.ID, dep); ok {
			issues = append(issues, issue)
		}
	}

	return issues
}

// checkCreatable reports an issue when the given node can neither be
// created (no source record) nor found in the target store.
func (v *DependencyValidator) checkCreatable(ctx context.Context, forID string, node *graph.Node) (Issue, bool) {
	record, _ := node.Payload.(*depsync.Record)
	if record != nil && record.Validate() == nil {
		return Issue{}, false
	}

	exists, err := v.target.Exists(ctx, node.ID)
	if err != nil {
		return Issue{
			NodeID:   forID,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("could not check target for %q: %v", node.ID, err),
		}, true
	}
	if exists {
		return Issue{}, false
	}

	return Issue{
		NodeID:   forID,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("record %q has no source record and is absent from the target", node.ID),
	}, true
}

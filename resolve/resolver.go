package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
)

// Warning records a non-fatal problem encountered while resolving one
// branch of the walk. The branch is abandoned; the rest of the walk
// continues.
type Warning struct {
	// RecordID is the record whose expansion failed.
	RecordID string

	// Message describes what went wrong.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// String renders the warning for logs and result summaries.
func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.RecordID, w.Message, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.RecordID, w.Message)
}

// Resolution is the output of a resolve operation: the dependency graph
// plus any per-branch warnings collected along the way.
type Resolution struct {
	// Graph holds every discovered record and relationship.
	Graph *graph.Graph

	// RootIDs is the deduplicated root set the walk started from.
	RootIDs []string

	// Warnings lists branches that could not be fully expanded.
	Warnings []Warning
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver discovers the prerequisite graph for root records. It is
// stateless across calls: each Resolve builds a fresh graph.
type Resolver struct {
	intro  depsync.RecordIntrospector
	target depsync.TargetStore
	logger *slog.Logger
}

// New creates a resolver over the given collaborators. The target store is
// consulted only for SkipExisting pruning; it may be nil if the
// configuration never sets SkipExisting.
func New(intro depsync.RecordIntrospector, target depsync.TargetStore, opts ...Option) *Resolver {
	r := &Resolver{
		intro:  intro,
		target: target,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// visit is one pending breadth-first expansion.
type visit struct {
	record *depsync.Record
	depth  int
}

// Resolve walks the given roots and builds their dependency graph.
// Resolving the same roots twice with an identical configuration produces
// identical node and edge sets.
//
// A root that cannot be looked up is a fatal error: the caller asked for a
// record that does not exist, and an import of nothing would be misleading.
// Failures below the roots are recorded as warnings instead.
func (r *Resolver) Resolve(ctx context.Context, rootIDs []string, cfg depsync.Config) (*Resolution, error) {
	const op = "Resolver.Resolve"

	if err := cfg.Validate(); err != nil {
		return nil, depsync.NewConfigurationError(op, err)
	}
	if cfg.SkipExisting && r.target == nil {
		return nil, depsync.NewConfigurationError(op,
			fmt.Errorf("%w: skip_existing requires a target store", depsync.ErrInvalidConfig))
	}

	res := &Resolution{Graph: graph.New()}
	visited := make(map[string]bool)
	var queue []visit

	for _, id := range rootIDs {
		if visited[id] {
			continue
		}
		record, err := r.intro.Lookup(ctx, id)
		if err != nil {
			return nil, depsync.NewNotFoundError(op, fmt.Errorf("root %q: %w", id, err))
		}
		visited[id] = true
		res.RootIDs = append(res.RootIDs, id)
		if err := res.Graph.AddNode(record.ID, record.Type, record); err != nil {
			return nil, depsync.NewConflictError(op, err)
		}
		queue = append(queue, visit{record: record})
	}

	r.logger.Debug("resolving dependency graph",
		"roots", len(res.RootIDs),
		"include_owned", cfg.IncludeOwned,
		"resolve_references", cfg.ResolveReferences)

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		if err := ctx.Err(); err != nil {
			return nil, depsync.NewAbortedError(op, err)
		}

		if cfg.SkipExisting {
			exists, err := r.target.Exists(ctx, v.record.ID)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{
					RecordID: v.record.ID,
					Message:  "existence check failed, expanding anyway",
					Err:      err,
				})
			} else if exists {
				// Already present in the target: its dependency subtree is
				// assumed complete and is not expanded.
				continue
			}
		}

		if cfg.IncludeOwned && withinDepth(v.depth, cfg.MaxOwnedDepth) {
			children, err := r.intro.OwnedChildren(ctx, v.record)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{
					RecordID: v.record.ID,
					Message:  "owned-children lookup failed",
					Err:      err,
				})
			} else {
				if err := r.expand(res, visited, &queue, v, children, graph.Ownership, cfg.OwnedTypes); err != nil {
					return nil, err
				}
			}
		}

		if cfg.ResolveReferences && withinDepth(v.depth, cfg.MaxReferenceDepth) {
			refs, err := r.intro.Referenced(ctx, v.record)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{
					RecordID: v.record.ID,
					Message:  "reference lookup failed",
					Err:      err,
				})
			} else {
				if err := r.expand(res, visited, &queue, v, refs, graph.Reference, cfg.ReferenceTypes); err != nil {
					return nil, err
				}
			}

			if cross, ok := r.intro.(depsync.CrossIntrospector); ok {
				related, err := cross.CrossReferenced(ctx, v.record)
				if err != nil {
					res.Warnings = append(res.Warnings, Warning{
						RecordID: v.record.ID,
						Message:  "cross-reference lookup failed",
						Err:      err,
					})
				} else {
					if err := r.expand(res, visited, &queue, v, related, graph.CrossReference, cfg.ReferenceTypes); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	stats := res.Graph.Stats()
	r.logger.Debug("dependency graph resolved",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"warnings", len(res.Warnings))

	return res, nil
}

// ResolveRelated resolves the given root together with every record that
// refers to it, restricted to referringTypes (empty means all types). The
// introspector must implement depsync.ReverseIntrospector.
func (r *Resolver) ResolveRelated(ctx context.Context, rootID string, referringTypes []string, cfg depsync.Config) (*Resolution, error) {
	const op = "Resolver.ResolveRelated"

	reverse, ok := r.intro.(depsync.ReverseIntrospector)
	if !ok {
		return nil, depsync.NewConfigurationError(op,
			fmt.Errorf("%w: introspector does not support reverse lookup", depsync.ErrInvalidConfig))
	}

	root, err := r.intro.Lookup(ctx, rootID)
	if err != nil {
		return nil, depsync.NewNotFoundError(op, fmt.Errorf("root %q: %w", rootID, err))
	}

	referrers, err := reverse.Referrers(ctx, root, referringTypes)
	if err != nil {
		return nil, depsync.NewLookupError(op, fmt.Errorf("referrers of %q: %w", rootID, err))
	}

	roots := []string{rootID}
	for _, ref := range referrers {
		roots = append(roots, ref.Record.ID)
	}

	res, err := r.Resolve(ctx, roots, cfg)
	if err != nil {
		return nil, err
	}

	// The reverse expansion is itself a set of reference relationships:
	// each referrer depends on the shared root existing first.
	for _, ref := range referrers {
		if err := res.Graph.AddEdge(ref.Record.ID, rootID, graph.Reference); err != nil &&
			!errors.Is(err, graph.ErrSelfReference) {
			return nil, depsync.NewLookupError(op, err)
		}
	}

	return res, nil
}

// expand registers the discovered records and edges for one relation kind
// and queues unvisited records for further traversal. Records whose type
// does not pass the filter are not visited at all.
func (r *Resolver) expand(res *Resolution, visited map[string]bool, queue *[]visit, parent visit, found []depsync.TypedRecord, kind graph.EdgeKind, typeFilter []string) error {
	const op = "Resolver.Resolve"

	for _, tr := range found {
		if tr.Record == nil {
			continue
		}
		if !depsync.TraversesType(typeFilter, tr.Type) {
			continue
		}

		if err := res.Graph.AddNode(tr.Record.ID, tr.Type, tr.Record); err != nil {
			return depsync.NewConflictError(op, err)
		}

		from, to := dependencyEndpoints(parent.record.ID, tr.Record.ID, kind)
		if err := res.Graph.AddEdge(from, to, kind); err != nil {
			if errors.Is(err, graph.ErrSelfReference) {
				// A record relating to itself cannot constrain ordering;
				// keep it recorded as a cross-reference.
				if err := res.Graph.AddEdge(from, to, graph.CrossReference); err != nil {
					return depsync.NewLookupError(op, err)
				}
			} else {
				return depsync.NewLookupError(op, err)
			}
		}

		if !visited[tr.Record.ID] {
			visited[tr.Record.ID] = true
			*queue = append(*queue, visit{record: tr.Record, depth: parent.depth + 1})
		}
	}
	return nil
}

// dependencyEndpoints orients an edge for the relation kind. An owned child
// depends on its owner; a referrer depends on the record it references.
func dependencyEndpoints(parentID, foundID string, kind graph.EdgeKind) (from, to string) {
	if kind == graph.Ownership {
		return foundID, parentID
	}
	return parentID, foundID
}

// withinDepth reports whether a node at the given depth may still expand.
// A zero limit means unlimited.
func withinDepth(depth, limit int) bool {
	return limit == 0 || depth < limit
}

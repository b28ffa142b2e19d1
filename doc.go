// Package depsync provides a dependency-resolving import engine for moving
// structured records between two instances of a shared entity model (a
// "source" and a "target" object store).
//
// Given one or more root records, the engine discovers every prerequisite
// record the roots depend on, computes a creation order that satisfies
// ownership and reference constraints, detects circular dependencies, and
// executes ordered writes against the target store with validation and
// dry-run preview.
//
// # Core Concepts
//
// The engine is organized around three components, built leaves-first:
//
//   - graph.Graph: an in-memory dependency graph with typed edges,
//     topological ordering, cycle detection, and subgraph extraction
//   - resolve.Resolver: walks root records using pluggable discovery rules
//     and builds the graph
//   - importer.Importer: validates a resolved graph and executes ordered
//     creation against the target store, tracking per-record outcomes
//
// # Collaborators
//
// The engine never talks to a concrete storage backend directly. Callers
// supply narrow collaborators defined in this package:
//
//   - RecordIntrospector: reports the owned children and referenced records
//     of a given record
//   - TargetStore: existence checks and record creation against the target
//   - validate.Validator (optional): per-record preflight checks
//
// The relmap package provides a declarative, configuration-driven
// RecordIntrospector; the store package provides in-memory, Redis, and etcd
// TargetStore adapters.
//
// # Getting Started
//
//	intro, err := relmap.NewIntrospector(source, relations)
//	if err != nil {
//		log.Fatal(err)
//	}
//	target := store.NewMemoryStore()
//
//	imp := importer.New(intro, target)
//	result, err := imp.ImportWithDependencies(ctx, []string{"entry-1"}, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
//
// # Execution Model
//
// Execution is single-threaded and synchronous: resolution and import
// proceed as ordered sequential walks, since later records causally depend
// on earlier ones by construction. The target store is treated as a single
// shared resource; exclusivity for the duration of a run is the caller's
// responsibility. Long runs can be bounded up front via depth limits and
// type filters, observed through the progress callback, or cancelled
// through the context passed to the import entry points.
package depsync

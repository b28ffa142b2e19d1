// Package importer orchestrates hierarchical imports: it consumes a
// resolved dependency graph, validates it, and executes ordered creation
// against a target store while tracking per-record outcomes.
//
// The pipeline has five phases: resolve, order, validate, execute,
// aggregate. Everything detected before execution begins (resolution
// structure, ordering, critical validation) aborts the whole operation
// with zero writes performed. During execution a single creation failure is
// isolated: the failed record and every record depending on it are marked
// skipped, and unrelated records continue processing, so a run always
// produces an explainable partial result rather than only an error.
//
// A dry run stops after validation and reports what would happen without
// invoking the target store's creation path at all.
//
// When ordering fails on a circular dependency and the configuration allows
// cycle breaking, the importer repeatedly demotes the lowest-priority
// reference edge of a detected cycle to a cross-reference and retries, up
// to a bounded number of rounds. Ownership edges are never demoted; a cycle
// composed purely of ownership edges is an unbreakable structural error.
package importer

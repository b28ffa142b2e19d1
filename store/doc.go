// Package store provides ready-made object-store adapters for the import
// engine: an in-process MemoryStore for tests and examples, a Redis-backed
// store, and an etcd-backed store.
//
// Each adapter satisfies depsync.TargetStore and can also serve as the
// source side of a run (record lookup and listing), so two instances of the
// same adapter give a complete source-to-target transfer setup. The engine
// itself never depends on a concrete adapter; production systems plug in
// whatever abstracts their record store.
//
// The adapters store records as JSON documents keyed by record id. They
// know nothing about relations or ordering, which is the engine's job, and
// they do not rewrite relation properties on create;
// callers needing id rewriting wrap Create with their own mapping.
package store

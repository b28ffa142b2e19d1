// Package validate defines the preflight validation surface of the import
// engine and its built-in validators.
//
// A Validator inspects one graph node at a time, before any write is
// performed, and reports issues at two severities: a critical issue blocks
// the whole import with zero writes, a warning is recorded on the result
// and execution proceeds.
//
// Two validators ship with the package:
//
//   - DependencyValidator checks that every dependency of a node will be
//     satisfiable at creation time: either scheduled for creation with a
//     usable source record, or already present in the target store.
//   - CELValidator evaluates per-type rule expressions written in the
//     Common Expression Language against the node's id, type, properties,
//     and dependency list.
//
// Validators can be combined with Multi.
package validate

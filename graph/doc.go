// Package graph implements the in-memory dependency graph at the core of
// the import engine: a registry of typed nodes plus typed directed edges,
// with topological ordering, cycle detection, and subgraph extraction.
//
// Nodes are stored in an arena with stable integer indices and an external
// id-to-index lookup table; edges are stored as index pairs. This avoids
// pointer-cycle management entirely, which matters because a graph is
// expected to contain legitimate cyclic cross-references even though its
// ordering edges must remain acyclic.
//
// An edge (from, to) reads "from depends on to": for Ownership and
// Reference edges, to must be created before from. CrossReference edges
// record a mutual relationship between two records and are exempt from
// ordering constraints; they are the only kind permitted to participate in
// a cycle.
//
// A graph is built fresh per resolve operation and discarded after import
// or dry-run inspection. It is not safe for concurrent use.
package graph

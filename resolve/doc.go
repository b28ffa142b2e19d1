// Package resolve builds the dependency graph for a set of root records.
//
// The resolver walks the roots breadth-first, asking a RecordIntrospector
// collaborator for the owned children and referenced records of each
// visited record. Every visited record becomes a graph node; every
// discovered relationship becomes an edge of the corresponding kind. A
// visited set prevents infinite recursion, which matters because reference
// relations may legitimately point back toward an ancestor.
//
// The walk is config-driven: each relation kind can be disabled, depth
// limited, or restricted to a set of entity types, and expansion can stop
// below records that already exist in the target store. A failing lookup on
// one branch is caught and recorded as a resolution warning rather than
// aborting the whole walk.
package resolve

// Package relmap declares the ownership/reference map of an entity model
// and turns it into a RecordIntrospector for the resolver.
//
// Instead of guessing relationships by reflecting over field naming
// conventions, the map is stated explicitly: for each entity type, a list
// of relations, each naming the record property that holds the related ids
// and the kind of dependency the relation represents (ownership, reference,
// or cross-reference).
//
// A relation map is usually loaded from a depsync.yaml file that also
// carries resolver/import defaults and optional validation rules:
//
//	relations:
//	  entry:
//	    - {name: senses, kind: ownership, types: [sense]}
//	    - {name: variants, kind: reference}
//	  sense:
//	    - {name: examples, kind: ownership}
//	    - {name: antonyms, kind: cross_reference}
//	defaults:
//	  include_owned: true
//	  resolve_references: true
//	  skip_existing: true
package relmap

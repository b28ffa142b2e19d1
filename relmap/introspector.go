package relmap

import (
	"context"
	"fmt"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
)

// Source abstracts the source object store the introspector reads from.
// The store package's MemoryStore satisfies it; production callers adapt
// whatever backs their source instance.
type Source interface {
	// Get fetches a record by id. Returns depsync.ErrRecordNotFound
	// (possibly wrapped) if no such record exists.
	Get(ctx context.Context, id string) (*depsync.Record, error)

	// List returns every record in the store. Used only for reverse
	// lookups (finding the referrers of a record).
	List(ctx context.Context) ([]*depsync.Record, error)
}

// Introspector is a RecordIntrospector driven entirely by a declared
// relation map: for each visited record it reads the declared relation
// properties and fetches the related records from the source store.
//
// It also implements depsync.CrossIntrospector for relations declared
// cross_reference, and depsync.ReverseIntrospector by scanning the source
// store's reference relations backwards.
type Introspector struct {
	source    Source
	relations Map
}

// NewIntrospector builds an introspector over a source store and a
// validated relation map.
func NewIntrospector(source Source, relations Map) (*Introspector, error) {
	if err := relations.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relation map: %w", err)
	}
	return &Introspector{source: source, relations: relations}, nil
}

// Lookup implements depsync.RecordIntrospector.
func (in *Introspector) Lookup(ctx context.Context, id string) (*depsync.Record, error) {
	return in.source.Get(ctx, id)
}

// OwnedChildren implements depsync.RecordIntrospector.
func (in *Introspector) OwnedChildren(ctx context.Context, record *depsync.Record) ([]depsync.TypedRecord, error) {
	return in.related(ctx, record, graph.Ownership)
}

// Referenced implements depsync.RecordIntrospector.
func (in *Introspector) Referenced(ctx context.Context, record *depsync.Record) ([]depsync.TypedRecord, error) {
	return in.related(ctx, record, graph.Reference)
}

// CrossReferenced implements depsync.CrossIntrospector.
func (in *Introspector) CrossReferenced(ctx context.Context, record *depsync.Record) ([]depsync.TypedRecord, error) {
	return in.related(ctx, record, graph.CrossReference)
}

// related fetches the records behind every declared relation of one kind.
// A missing related record fails the lookup: the relation names an id the
// source store cannot produce, which the resolver records as a warning for
// that branch.
func (in *Introspector) related(ctx context.Context, record *depsync.Record, kind graph.EdgeKind) ([]depsync.TypedRecord, error) {
	var out []depsync.TypedRecord
	for _, rel := range in.relations.relationsOfKind(record.Type, kind) {
		for _, id := range RelatedIDs(record, rel) {
			related, err := in.source.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("relation %q of %q: %w", rel.Name, record.ID, err)
			}
			if !depsync.TraversesType(rel.Types, related.Type) {
				continue
			}
			out = append(out, depsync.TypedRecord{Record: related, Type: related.Type})
		}
	}
	return out, nil
}

// Referrers implements depsync.ReverseIntrospector by scanning the source
// store for records whose reference or cross-reference relations name the
// given record. Ownership relations are excluded: an owner is not a
// referrer, it is a container.
func (in *Introspector) Referrers(ctx context.Context, record *depsync.Record, types []string) ([]depsync.TypedRecord, error) {
	all, err := in.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source records: %w", err)
	}

	var out []depsync.TypedRecord
	for _, candidate := range all {
		if candidate.ID == record.ID {
			continue
		}
		if !depsync.TraversesType(types, candidate.Type) {
			continue
		}
		if in.refersTo(candidate, record.ID) {
			out = append(out, depsync.TypedRecord{Record: candidate, Type: candidate.Type})
		}
	}
	return out, nil
}

func (in *Introspector) refersTo(candidate *depsync.Record, id string) bool {
	for _, rel := range in.relations[candidate.Type] {
		kind, err := rel.EdgeKind()
		if err != nil || kind == graph.Ownership {
			continue
		}
		for _, related := range RelatedIDs(candidate, rel) {
			if related == id {
				return true
			}
		}
	}
	return false
}

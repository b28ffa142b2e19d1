package depsync

import (
	"context"
	"errors"
)

// Record is a non-owning handle to a live record in an object store. The
// store that produced the handle owns the underlying data; the engine only
// reads ids, types, and properties while resolving and importing.
type Record struct {
	// ID is the stable opaque identifier of the record, unique within a
	// store instance.
	ID string `json:"id"`

	// Type is the entity-type tag (e.g., "entry", "sense").
	Type string `json:"type"`

	// Properties contains the record's fields, including the relation
	// fields the introspector reads to discover children and references.
	Properties map[string]any `json:"properties,omitempty"`
}

// NewRecord creates a record handle with the given id and type and an
// initialized Properties map.
func NewRecord(id, recordType string) *Record {
	return &Record{
		ID:         id,
		Type:       recordType,
		Properties: make(map[string]any),
	}
}

// WithProperty sets a single property and returns the record for chaining.
// If the Properties map is nil, it will be initialized.
func (r *Record) WithProperty(key string, value any) *Record {
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}
	r.Properties[key] = value
	return r
}

// WithProperties sets multiple properties and returns the record for
// chaining. This replaces the entire Properties map.
func (r *Record) WithProperties(props map[string]any) *Record {
	r.Properties = props
	return r
}

// Validate checks that the record has its required fields set.
// Returns an error if ID or Type is empty.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record id is required")
	}
	if r.Type == "" {
		return errors.New("record type is required")
	}
	return nil
}

// TypedRecord pairs a discovered record handle with its entity type, as
// returned by introspection lookups.
type TypedRecord struct {
	Record *Record
	Type   string
}

// RecordIntrospector reports the relationships of a record. Implementations
// encode a domain-specific ownership/reference map; the resolver is generic
// over any such mapping.
//
// Both methods are pure and read-only. A failed lookup is reported as an
// error and is caught per branch by the resolver: the failing branch is
// recorded as a resolution warning and traversal continues elsewhere.
type RecordIntrospector interface {
	// Lookup fetches the record handle for an id from the source store.
	// Returns ErrRecordNotFound if no such record exists.
	Lookup(ctx context.Context, id string) (*Record, error)

	// OwnedChildren returns the records exclusively contained by the given
	// record. An owned child cannot exist before its owner does, and is
	// destroyed with it.
	OwnedChildren(ctx context.Context, record *Record) ([]TypedRecord, error)

	// Referenced returns the records the given record points at without
	// owning them. A referenced record must exist before the referrer, but
	// their lifecycles are independent.
	Referenced(ctx context.Context, record *Record) ([]TypedRecord, error)
}

// CrossIntrospector is an optional extension of RecordIntrospector for
// relations declared as mutual by design. Cross-referenced records are
// pulled into the import set like referenced ones, but the relationship is
// exempt from ordering constraints and may legitimately form cycles.
type CrossIntrospector interface {
	// CrossReferenced returns the records the given record is mutually
	// related to.
	CrossReferenced(ctx context.Context, record *Record) ([]TypedRecord, error)
}

// ReverseIntrospector is an optional extension of RecordIntrospector for
// reverse-reference expansion: finding the records that refer TO a given
// record. Importer.ImportRelated requires it.
type ReverseIntrospector interface {
	// Referrers returns the records that reference the given record,
	// restricted to the supplied types. An empty type list means all types.
	Referrers(ctx context.Context, record *Record, types []string) ([]TypedRecord, error)
}

// RecordUpdater is an optional extension of TargetStore for stores that can
// merge a source record into an existing target record. The importer calls
// it only when a record already exists in the target and the run is
// configured not to skip existing records; stores without it have such
// records skipped instead. Merge semantics belong entirely to the store.
type RecordUpdater interface {
	// Update merges the source record into the existing target record with
	// the same id and returns the updated target handle.
	Update(ctx context.Context, source *Record, deps map[string]*Record) (*Record, error)
}

// TargetStore abstracts the destination object store. The importer performs
// a read-before-write existence check per record to decide create-vs-skip;
// this is correctness-sufficient only if no concurrent writer mutates the
// target during the run.
type TargetStore interface {
	// Exists reports whether a record with the given id is already present
	// in the target store.
	Exists(ctx context.Context, id string) (bool, error)

	// Create writes a new record to the target store. deps maps the ids of
	// the record's already-created dependencies to their handles in the
	// target, so implementations can rewire relation fields. Returns the
	// created record's handle in the target store.
	Create(ctx context.Context, source *Record, deps map[string]*Record) (*Record, error)
}

package relmap

import (
	"errors"
	"fmt"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
)

// Sentinel errors for relation-map handling.
var (
	// ErrUnknownKind indicates a relation declared with a kind other than
	// ownership, reference, or cross_reference.
	ErrUnknownKind = errors.New("unknown relation kind")

	// ErrEmptyRelationName indicates a relation declared without the name
	// of the property that holds its ids.
	ErrEmptyRelationName = errors.New("relation name is required")
)

// Relation declares one relationship of an entity type.
type Relation struct {
	// Name is the record property holding the related ids. The property
	// value may be a single id string or a list of id strings.
	Name string `yaml:"name"`

	// Kind is "ownership", "reference", or "cross_reference".
	Kind string `yaml:"kind"`

	// Types optionally restricts the relation to targets of the listed
	// entity types; related records of other types are ignored.
	Types []string `yaml:"types,omitempty"`
}

// EdgeKind maps the declared kind onto the graph's edge kinds.
func (r Relation) EdgeKind() (graph.EdgeKind, error) {
	switch r.Kind {
	case "ownership":
		return graph.Ownership, nil
	case "reference":
		return graph.Reference, nil
	case "cross_reference":
		return graph.CrossReference, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

// Map is the full relation map of an entity model: entity type to its
// declared relations.
type Map map[string][]Relation

// Validate checks every declared relation for an empty name or an unknown
// kind.
func (m Map) Validate() error {
	for entityType, relations := range m {
		for _, rel := range relations {
			if rel.Name == "" {
				return fmt.Errorf("type %q: %w", entityType, ErrEmptyRelationName)
			}
			if _, err := rel.EdgeKind(); err != nil {
				return fmt.Errorf("type %q, relation %q: %w", entityType, rel.Name, err)
			}
		}
	}
	return nil
}

// relationsOfKind returns the declared relations of an entity type whose
// kind maps to the given edge kind.
func (m Map) relationsOfKind(entityType string, kind graph.EdgeKind) []Relation {
	var out []Relation
	for _, rel := range m[entityType] {
		if k, err := rel.EdgeKind(); err == nil && k == kind {
			out = append(out, rel)
		}
	}
	return out
}

// RelatedIDs extracts the related ids a record holds for one relation. The
// property may be absent (no related records), a single id string, or a
// list of id strings; list entries of other types are ignored.
func RelatedIDs(record *depsync.Record, rel Relation) []string {
	if record == nil || record.Properties == nil {
		return nil
	}

	switch value := record.Properties[rel.Name].(type) {
	case string:
		if value == "" {
			return nil
		}
		return []string{value}
	case []string:
		return value
	case []any:
		var ids []string
		for _, v := range value {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	default:
		return nil
	}
}

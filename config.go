package depsync

import "fmt"

// Config controls how a dependency graph is resolved and imported. It is
// built once per operation and never mutated mid-run.
//
// The zero value is not useful; start from DefaultConfig and override
// fields, or load a config section from YAML via the relmap package.
type Config struct {
	// IncludeOwned enables traversal of ownership relations.
	IncludeOwned bool `yaml:"include_owned"`

	// ResolveReferences enables traversal of reference relations.
	ResolveReferences bool `yaml:"resolve_references"`

	// MaxOwnedDepth stops adding owned descendants beyond this recursion
	// depth. Zero means unlimited.
	MaxOwnedDepth int `yaml:"max_owned_depth"`

	// MaxReferenceDepth stops following references beyond this recursion
	// depth. Zero means unlimited.
	MaxReferenceDepth int `yaml:"max_reference_depth"`

	// OwnedTypes restricts ownership traversal to the listed entity types.
	// Subtrees of other types are not visited at all, not merely hidden.
	// Nil or empty means all types.
	OwnedTypes []string `yaml:"owned_types,omitempty"`

	// ReferenceTypes restricts reference traversal to the listed entity
	// types. Nil or empty means all types.
	ReferenceTypes []string `yaml:"reference_types,omitempty"`

	// SkipExisting stops dependency expansion below records that already
	// exist in the target store (they are assumed already complete), and
	// makes the importer skip creating them.
	SkipExisting bool `yaml:"skip_existing"`

	// AllowCycles enables cycle breaking: when ordering fails, the lowest
	// priority non-ownership edge of a detected cycle is demoted to a
	// cross-reference and ordering is retried. A cycle composed purely of
	// ownership edges is a fatal structural error regardless.
	AllowCycles bool `yaml:"allow_cycles"`

	// MaxCycleBreaks bounds the number of demote-and-retry rounds when
	// AllowCycles is set. Zero means DefaultMaxCycleBreaks.
	MaxCycleBreaks int `yaml:"max_cycle_breaks,omitempty"`
}

// DefaultMaxCycleBreaks is the cycle-breaking retry bound used when
// Config.MaxCycleBreaks is zero.
const DefaultMaxCycleBreaks = 10

// DefaultConfig returns the standard configuration: traverse both relation
// kinds without depth limits or type filters, skip records already present
// in the target, and treat cycles as fatal.
func DefaultConfig() Config {
	return Config{
		IncludeOwned:      true,
		ResolveReferences: true,
		SkipExisting:      true,
	}
}

// Validate checks the configuration for values the engine cannot honor.
func (c Config) Validate() error {
	if c.MaxOwnedDepth < 0 {
		return fmt.Errorf("%w: max_owned_depth must not be negative", ErrInvalidConfig)
	}
	if c.MaxReferenceDepth < 0 {
		return fmt.Errorf("%w: max_reference_depth must not be negative", ErrInvalidConfig)
	}
	if c.MaxCycleBreaks < 0 {
		return fmt.Errorf("%w: max_cycle_breaks must not be negative", ErrInvalidConfig)
	}
	if !c.IncludeOwned && !c.ResolveReferences {
		return fmt.Errorf("%w: at least one of include_owned and resolve_references must be set", ErrInvalidConfig)
	}
	return nil
}

// CycleBreakBudget returns the effective cycle-breaking retry bound.
func (c Config) CycleBreakBudget() int {
	if c.MaxCycleBreaks > 0 {
		return c.MaxCycleBreaks
	}
	return DefaultMaxCycleBreaks
}

// TraversesType reports whether the given entity type passes the filter for
// the relation kind being followed. A nil or empty filter admits all types.
func TraversesType(filter []string, entityType string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, t := range filter {
		if t == entityType {
			return true
		}
	}
	return false
}

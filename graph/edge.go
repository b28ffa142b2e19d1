package graph

// EdgeKind classifies the dependency an edge represents.
type EdgeKind int

const (
	// Ownership means the from-node is exclusively contained by the
	// to-node: the target must exist first and destroying it destroys the
	// dependent. Ownership edges always constrain ordering and are never
	// candidates for cycle breaking.
	Ownership EdgeKind = iota

	// Reference means the from-node needs the to-node to exist first but
	// does not own it; their lifecycles are independent.
	Reference

	// CrossReference records a mutual relationship between two records.
	// CrossReference edges are exempt from ordering constraints and are
	// the only kind permitted to participate in a cycle.
	CrossReference
)

// String returns the lowercase name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case Ownership:
		return "ownership"
	case Reference:
		return "reference"
	case CrossReference:
		return "cross_reference"
	default:
		return "unknown"
	}
}

// Ordering reports whether edges of this kind constrain creation order.
func (k EdgeKind) Ordering() bool {
	return k == Ownership || k == Reference
}

// Edge describes one dependency edge by node ids, as exposed to callers.
// Internally edges are stored as arena index pairs.
type Edge struct {
	// From is the id of the dependent node.
	From string

	// To is the id of the node From depends on.
	To string

	// Kind classifies the dependency.
	Kind EdgeKind
}

// edge is the internal index-pair representation.
type edge struct {
	from, to int
	kind     EdgeKind
}

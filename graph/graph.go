package graph

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
)

// Node is one registered record in the graph. Payload is a non-owning
// handle to the live record supplied at registration; the external store
// owns the underlying data.
type Node struct {
	// ID is the stable opaque identifier, unique within the graph.
	ID string

	// Type is the entity-type tag.
	Type string

	// Payload is the non-owning record handle (may be nil).
	Payload any

	// Order is the discovery order: the position at which the node was
	// first registered. Used as the deterministic tie-break everywhere.
	Order int
}

// NodeRef is the (id, type) pair emitted by ordering and root/leaf queries.
type NodeRef struct {
	ID   string
	Type string
}

type edgeKey struct {
	from, to int
	kind     EdgeKind
}

// Graph is the dependency graph. Nodes live in an arena with stable integer
// indices; edges are index pairs. The topological order is cached behind a
// dirty flag that every mutation sets.
//
// Graph is not safe for concurrent use: a graph is built and consumed by a
// single resolve/import run.
type Graph struct {
	nodes []*Node
	index map[string]int

	edges   []edge
	edgeSet map[edgeKey]struct{}

	// out and in hold edge indexes per node, in insertion order.
	out [][]int
	in  [][]int

	order []NodeRef
	dirty bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:   make(map[string]int),
		edgeSet: make(map[edgeKey]struct{}),
		dirty:   true,
	}
}

// AddNode registers a node. Re-adding an existing id with the same type is
// a no-op; re-adding it with a different type returns ErrTypeConflict. If
// the node was first registered without a payload, a later registration may
// supply one.
func (g *Graph) AddNode(id, nodeType string, payload any) error {
	if idx, ok := g.index[id]; ok {
		n := g.nodes[idx]
		if n.Type != nodeType {
			return fmt.Errorf("%w: node %q registered as %q, re-added as %q",
				ErrTypeConflict, id, n.Type, nodeType)
		}
		if n.Payload == nil && payload != nil {
			n.Payload = payload
		}
		return nil
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, &Node{
		ID:      id,
		Type:    nodeType,
		Payload: payload,
		Order:   idx,
	})
	g.index[id] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.dirty = true
	return nil
}

// AddEdge records that from depends on to with the given kind. Both
// endpoints must already be registered. Duplicate edges (same endpoints and
// kind) are ignored, so repeated discovery of the same relationship is
// idempotent. An ordering edge from a node to itself is rejected with
// ErrSelfReference; a self cross-reference is allowed.
func (g *Graph) AddEdge(fromID, toID string, kind EdgeKind) error {
	from, ok := g.index[fromID]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrUnknownNode, fromID)
	}
	to, ok := g.index[toID]
	if !ok {
		return fmt.Errorf("%w: edge target %q", ErrUnknownNode, toID)
	}
	if from == to && kind.Ordering() {
		return fmt.Errorf("%w: %s edge %q -> %q", ErrSelfReference, kind, fromID, toID)
	}

	key := edgeKey{from: from, to: to, kind: kind}
	if _, ok := g.edgeSet[key]; ok {
		return nil
	}
	g.edgeSet[key] = struct{}{}

	ei := len(g.edges)
	g.edges = append(g.edges, edge{from: from, to: to, kind: kind})
	g.out[from] = append(g.out[from], ei)
	g.in[to] = append(g.in[to], ei)
	g.dirty = true
	return nil
}

// Has reports whether a node with the given id is registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the registered node for id. The returned pointer aliases the
// graph's arena; callers must not change ID or Type.
func (g *Graph) Node(id string) (*Node, bool) {
	idx, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of recorded edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns every edge by node ids, in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = Edge{
			From: g.nodes[e.from].ID,
			To:   g.nodes[e.to].ID,
			Kind: e.kind,
		}
	}
	return out
}

// Dependencies returns the ids the given node depends on through ordering
// edges, in insertion order. These are the records that must exist before
// it in the target store.
func (g *Graph) Dependencies(id string) []string {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	var deps []string
	for _, ei := range g.out[idx] {
		if g.edges[ei].kind.Ordering() {
			deps = append(deps, g.nodes[g.edges[ei].to].ID)
		}
	}
	return deps
}

// Dependents returns the ids of nodes that depend on the given node through
// ordering edges, in insertion order.
func (g *Graph) Dependents(id string) []string {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	var deps []string
	for _, ei := range g.in[idx] {
		if g.edges[ei].kind.Ordering() {
			deps = append(deps, g.nodes[g.edges[ei].from].ID)
		}
	}
	return deps
}

// TopologicalOrder returns every node as (id, type) in an order where, for
// each Ownership or Reference edge (from -> to), to precedes from.
// CrossReference edges never constrain the order. Ties are broken by
// discovery order, so the result is deterministic for a given build
// sequence.
//
// The order is computed with Kahn's algorithm and cached until the next
// mutation. If the ordering edges contain a cycle, a *CycleError listing
// the offending cycle(s) is returned.
func (g *Graph) TopologicalOrder() ([]NodeRef, error) {
	if !g.dirty {
		return append([]NodeRef(nil), g.order...), nil
	}

	pending := make([]int, len(g.nodes))
	for _, e := range g.edges {
		if e.kind.Ordering() {
			pending[e.from]++
		}
	}

	ready := &indexHeap{}
	heap.Init(ready)
	for i, p := range pending {
		if p == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]NodeRef, 0, len(g.nodes))
	for ready.Len() > 0 {
		idx := heap.Pop(ready).(int)
		order = append(order, NodeRef{ID: g.nodes[idx].ID, Type: g.nodes[idx].Type})

		for _, ei := range g.in[idx] {
			e := g.edges[ei]
			if !e.kind.Ordering() {
				continue
			}
			pending[e.from]--
			if pending[e.from] == 0 {
				heap.Push(ready, e.from)
			}
		}
	}

	if len(order) != len(g.nodes) {
		// Kahn could not consume every node, so a cycle is proven to
		// exist; the DFS supplies the diagnostics.
		return nil, &CycleError{Cycles: g.DetectCycles()}
	}

	g.order = order
	g.dirty = false
	return append([]NodeRef(nil), order...), nil
}

// DetectCycles returns every cycle found among the ordering edges, each as
// an id sequence whose first and last elements coincide. CrossReference
// edges are ignored. An empty result means the ordering edges are acyclic.
//
// The walk visits nodes in discovery order and edges in insertion order, so
// repeated calls on an unchanged graph report the same cycles.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = iota // unvisited
		grey         // on the current recursion stack
		black        // fully explored
	)

	color := make([]int, len(g.nodes))
	stack := make([]int, 0, len(g.nodes))
	var cycles [][]string

	var visit func(idx int)
	visit = func(idx int) {
		color[idx] = grey
		stack = append(stack, idx)

		for _, ei := range g.out[idx] {
			e := g.edges[ei]
			if !e.kind.Ordering() {
				continue
			}
			switch color[e.to] {
			case white:
				visit(e.to)
			case grey:
				// Back edge: the cycle is the stack suffix starting at
				// the revisited node, closed with that node again.
				start := 0
				for i, s := range stack {
					if s == e.to {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start+1)
				for _, s := range stack[start:] {
					cycle = append(cycle, g.nodes[s].ID)
				}
				cycle = append(cycle, g.nodes[e.to].ID)
				cycles = append(cycles, cycle)
			}
		}

		stack = stack[:len(stack)-1]
		color[idx] = black
	}

	for i := range g.nodes {
		if color[i] == white {
			visit(i)
		}
	}
	return cycles
}

// Roots returns the nodes with no outgoing ordering edges (they depend on
// nothing and can be created first), in discovery order.
func (g *Graph) Roots() []NodeRef {
	return g.selectNodes(func(idx int) bool {
		return !g.hasOrderingEdge(g.out[idx])
	})
}

// Leaves returns the nodes with no incoming ordering edges (nothing depends
// on them), in discovery order.
func (g *Graph) Leaves() []NodeRef {
	return g.selectNodes(func(idx int) bool {
		return !g.hasOrderingEdge(g.in[idx])
	})
}

func (g *Graph) hasOrderingEdge(edgeIdxs []int) bool {
	for _, ei := range edgeIdxs {
		if g.edges[ei].kind.Ordering() {
			return true
		}
	}
	return false
}

func (g *Graph) selectNodes(keep func(idx int) bool) []NodeRef {
	var refs []NodeRef
	for i, n := range g.nodes {
		if keep(i) {
			refs = append(refs, NodeRef{ID: n.ID, Type: n.Type})
		}
	}
	return refs
}

// Subgraph returns a new graph restricted to the given ids and to the edges
// whose both endpoints are included. Unknown ids are ignored. Relative
// discovery order is preserved, so orderings over the subgraph stay
// consistent with restrictions of orderings over the full graph.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		if idx, ok := g.index[id]; ok {
			keep[idx] = true
		}
	}

	sub := New()
	for i, n := range g.nodes {
		if keep[i] {
			_ = sub.AddNode(n.ID, n.Type, n.Payload)
		}
	}
	for _, e := range g.edges {
		if keep[e.from] && keep[e.to] {
			_ = sub.AddEdge(g.nodes[e.from].ID, g.nodes[e.to].ID, e.kind)
		}
	}
	return sub
}

// DemoteEdge removes the Reference edge (fromID -> toID) from ordering by
// reclassifying it as a CrossReference. This is the cycle-breaking
// primitive: the relationship stays recorded, but it no longer constrains
// creation order. Returns ErrEdgeNotBreakable if no Reference edge exists
// between the pair; Ownership edges are never demoted, because breaking
// one would orphan a record.
func (g *Graph) DemoteEdge(fromID, toID string) error {
	from, ok := g.index[fromID]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrUnknownNode, fromID)
	}
	to, ok := g.index[toID]
	if !ok {
		return fmt.Errorf("%w: edge target %q", ErrUnknownNode, toID)
	}

	for _, ei := range g.out[from] {
		e := &g.edges[ei]
		if e.to != to || e.kind != Reference {
			continue
		}
		delete(g.edgeSet, edgeKey{from: from, to: to, kind: Reference})
		e.kind = CrossReference
		g.edgeSet[edgeKey{from: from, to: to, kind: CrossReference}] = struct{}{}
		g.dirty = true
		return nil
	}

	return fmt.Errorf("%w: no reference edge %q -> %q", ErrEdgeNotBreakable, fromID, toID)
}

// Stats holds diagnostic counts for a graph.
type Stats struct {
	Nodes       int
	Edges       int
	NodesByType map[string]int
	EdgesByKind map[string]int
}

// Stats computes the diagnostic counts for the graph.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:       len(g.nodes),
		Edges:       len(g.edges),
		NodesByType: make(map[string]int),
		EdgesByKind: make(map[string]int),
	}
	for _, n := range g.nodes {
		s.NodesByType[n.Type]++
	}
	for _, e := range g.edges {
		s.EdgesByKind[e.kind.String()]++
	}
	return s
}

// Summary renders the graph's counts by node type and edge kind as a short
// diagnostic text.
func (g *Graph) Summary() string {
	s := g.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes, %d edges", s.Nodes, s.Edges)

	if len(s.NodesByType) > 0 {
		b.WriteString("\nnodes by type:")
		for _, t := range sortedKeys(s.NodesByType) {
			fmt.Fprintf(&b, "\n  %s: %d", t, s.NodesByType[t])
		}
	}
	if len(s.EdgesByKind) > 0 {
		b.WriteString("\nedges by kind:")
		for _, k := range sortedKeys(s.EdgesByKind) {
			fmt.Fprintf(&b, "\n  %s: %d", k, s.EdgesByKind[k])
		}
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// indexHeap is a min-heap of arena indices, used by Kahn's algorithm to
// break ties by discovery order.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

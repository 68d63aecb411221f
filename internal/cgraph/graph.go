// Package cgraph implements the constraint graph: a knowledge base of
// compatibility and exclusion facts between directory values, and the
// analysis that decides whether a conjunctive context is jointly
// satisfiable under those facts.
//
// A graph is built once per knowledge session and is immutable afterwards;
// concurrent routing decisions read it without synchronization. Merchant
// configuration changes rebuild the graph, they never mutate it.
package cgraph

import (
	"fmt"
	"strings"

	"github.com/meridianpay/switchyard/internal/dir"
)

// NodeID indexes a node within one graph. IDs are not stable across
// graphs; Combine reassigns them.
type NodeID int

// NodeKind discriminates value nodes from aggregators.
type NodeKind int

const (
	// NodeValue wraps a single directory value.
	NodeValue NodeKind = iota
	// NodeAllOf is satisfied when every member is satisfied.
	NodeAllOf
	// NodeAnyOf is satisfied when at least one member is satisfied.
	NodeAnyOf
)

// Node is one vertex of the constraint graph.
type Node struct {
	Kind    NodeKind
	Value   dir.Value // NodeValue
	Members []NodeID  // NodeAllOf / NodeAnyOf
}

// Strength grades how binding an edge is. Weak edges are overridable
// defaults and are ignored by analysis; hard edges are fixed domain facts
// that no overlay may contradict.
type Strength int

const (
	Weak Strength = iota
	Normal
	Hard
)

// Relation is the polarity of an edge: the successor requires (positive)
// or excludes (negative) the predecessor.
type Relation int

const (
	Positive Relation = iota
	Negative
)

// Edge relates a successor node to a predecessor constraint.
type Edge struct {
	Pred     NodeID
	Succ     NodeID
	Strength Strength
	Relation Relation
}

// Graph is an immutable constraint graph. Construct with Builder or Combine.
type Graph struct {
	nodes      []Node
	valueIndex map[dir.Value]NodeID
	incoming   map[NodeID][]Edge
	edges      []Edge
}

// NodeByValue resolves the node carrying a directory value, if any.
func (g *Graph) NodeByValue(v dir.Value) (NodeID, bool) {
	id, ok := g.valueIndex[v]
	return id, ok
}

// Describe renders a node for analysis error messages.
func (g *Graph) Describe(id NodeID) string {
	node := g.nodes[int(id)]
	switch node.Kind {
	case NodeValue:
		return node.Value.String()
	case NodeAllOf, NodeAnyOf:
		parts := make([]string, 0, len(node.Members))
		for _, m := range node.Members {
			parts = append(parts, g.Describe(m))
		}
		joiner := "all of ("
		if node.Kind == NodeAnyOf {
			joiner = "any of ("
		}
		return joiner + strings.Join(parts, "; ") + ")"
	default:
		return fmt.Sprintf("node %d", id)
	}
}

// ContradictionError reports two graphs (or two overlays) declaring
// opposite hard facts for the same node pair.
type ContradictionError struct {
	Pred string
	Succ string
}

func (e *ContradictionError) Error() string {
	return fmt.Sprintf("contradictory hard facts between %s and %s", e.Pred, e.Succ)
}

// Builder accumulates nodes and edges and freezes them into a Graph.
// Value nodes are deduplicated by value identity.
type Builder struct {
	nodes      []Node
	valueIndex map[dir.Value]NodeID
	edges      []Edge
	// (pred, succ) -> index into edges, for conflict detection
	edgeIndex map[[2]NodeID]int
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		valueIndex: make(map[dir.Value]NodeID),
		edgeIndex:  make(map[[2]NodeID]int),
	}
}

// ValueNode returns the node for v, creating it on first use.
func (b *Builder) ValueNode(v dir.Value) NodeID {
	if id, ok := b.valueIndex[v]; ok {
		return id
	}
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{Kind: NodeValue, Value: v})
	b.valueIndex[v] = id
	return id
}

// AllOfNode creates a conjunction aggregator over members.
func (b *Builder) AllOfNode(members ...NodeID) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{Kind: NodeAllOf, Members: members})
	return id
}

// AnyOfNode creates a disjunction aggregator over members.
func (b *Builder) AnyOfNode(members ...NodeID) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{Kind: NodeAnyOf, Members: members})
	return id
}

// AddEdge declares that succ requires (positive) or excludes (negative)
// pred. Duplicate declarations collapse; a hard edge conflicting with an
// existing hard edge of opposite polarity is a contradiction.
func (b *Builder) AddEdge(pred, succ NodeID, strength Strength, relation Relation) error {
	if pred == succ {
		return fmt.Errorf("self-referential edge on node %d", pred)
	}

	key := [2]NodeID{pred, succ}
	if idx, ok := b.edgeIndex[key]; ok {
		existing := &b.edges[idx]
		if existing.Relation != relation {
			if existing.Strength == Hard && strength == Hard {
				return &ContradictionError{
					Pred: b.describe(pred),
					Succ: b.describe(succ),
				}
			}
			// opposite polarity below hard: the stronger declaration wins
			if strength > existing.Strength {
				existing.Relation = relation
				existing.Strength = strength
			}
			return nil
		}
		if strength > existing.Strength {
			existing.Strength = strength
		}
		return nil
	}

	b.edgeIndex[key] = len(b.edges)
	b.edges = append(b.edges, Edge{Pred: pred, Succ: succ, Strength: strength, Relation: relation})
	return nil
}

func (b *Builder) describe(id NodeID) string {
	node := b.nodes[int(id)]
	switch node.Kind {
	case NodeValue:
		return node.Value.String()
	default:
		return fmt.Sprintf("aggregator %d", id)
	}
}

// Build freezes the builder into an immutable graph.
func (b *Builder) Build() *Graph {
	g := &Graph{
		nodes:      b.nodes,
		valueIndex: b.valueIndex,
		incoming:   make(map[NodeID][]Edge),
		edges:      b.edges,
	}
	for _, e := range b.edges {
		g.incoming[e.Succ] = append(g.incoming[e.Succ], e)
	}
	return g
}

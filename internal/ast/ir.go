package ast

import "github.com/meridianpay/switchyard/internal/dir"

// IRKind discriminates lowered guard nodes. Negation is normalized inward
// during lowering, so the IR is negation normal form: Not appears only as
// the Negated flag on leaves.
type IRKind int

const (
	IRLeaf IRKind = iota
	IRAnd
	IROr
)

// IRNode is one node of a lowered guard. Leaves carry a single directory
// value assertion (or negation); interior nodes are pure conjunction or
// disjunction. An IRAnd with no children is the always-true guard.
type IRNode struct {
	Kind     IRKind
	Value    dir.Value // IRLeaf
	Negated  bool      // IRLeaf
	Children []IRNode  // IRAnd / IROr
}

// leaf builds an assertion or negation of one value.
func leaf(v dir.Value, negated bool) IRNode {
	return IRNode{Kind: IRLeaf, Value: v, Negated: negated}
}

// LoweredRule pairs a rule's lowered guard with its original name and output.
type LoweredRule[T any] struct {
	Name   string
	Output T
	Guard  IRNode
}

// LoweredProgram is a fully lowered policy, ready for interpretation or
// static analysis.
type LoweredProgram[T any] struct {
	DefaultOutput T
	Rules         []LoweredRule[T]
}

// OrLeafCount bounds the expansion work of a guard: the number of
// conjunctive contexts it can produce is the product of its OR arities.
func (n IRNode) OrLeafCount() int {
	switch n.Kind {
	case IRLeaf:
		return 1
	case IRAnd:
		total := 1
		for _, c := range n.Children {
			total *= c.OrLeafCount()
		}
		return total
	case IROr:
		total := 0
		for _, c := range n.Children {
			total += c.OrLeafCount()
		}
		return total
	default:
		return 1
	}
}

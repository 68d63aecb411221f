package backend

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/dir"
)

// Output is the result of one program evaluation. RuleName is the name
// of the matched rule, or empty when the default output was used.
type Output[T any] struct {
	Value    T
	RuleName string
}

// Interpreter evaluates one lowered program. Construct once per program
// version and reuse across payments; evaluation itself is read-only and
// safe for concurrent use.
type Interpreter[T any] struct {
	program ast.LoweredProgram[T]
}

// NewInterpreter lowers a program into evaluatable form. Lowering errors
// (unknown keys, ill-typed literals, oversized guards) surface here so a
// bad program is rejected before it can serve traffic.
func NewInterpreter[T any](p ast.Program[T]) (*Interpreter[T], error) {
	lowered, err := ast.LowerProgram(p)
	if err != nil {
		return nil, fmt.Errorf("lowering program: %w", err)
	}
	return &Interpreter[T]{program: lowered}, nil
}

// Execute runs the program against one input. Rules are tried in
// declaration order and the first rule whose guard holds wins; if none
// match, the default output is returned with an empty rule name.
func (it *Interpreter[T]) Execute(in Input) (Output[T], error) {
	for _, rule := range it.program.Rules {
		matched, err := evalNode(rule.Guard, &in, rule.Name)
		if err != nil {
			return Output[T]{}, err
		}
		if matched {
			return Output[T]{Value: rule.Output, RuleName: rule.Name}, nil
		}
	}
	return Output[T]{Value: it.program.DefaultOutput}, nil
}

// evalNode evaluates one lowered guard node. Conjunctions and
// disjunctions short-circuit, but a missing attribute aborts immediately
// even when a later branch could have decided the node.
func evalNode(n ast.IRNode, in *Input, ruleName string) (bool, error) {
	switch n.Kind {
	case ast.IRLeaf:
		return evalLeaf(n, in, ruleName)
	case ast.IRAnd:
		for _, child := range n.Children {
			ok, err := evalNode(child, in, ruleName)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case ast.IROr:
		for _, child := range n.Children {
			ok, err := evalNode(child, in, ruleName)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("rule %q: unknown guard node kind %d", ruleName, n.Kind)
	}
}

// evalLeaf checks one value assertion against the input, applying the
// leaf's negation last.
func evalLeaf(n ast.IRNode, in *Input, ruleName string) (bool, error) {
	holds, err := leafHolds(n.Value, in, ruleName)
	if err != nil {
		return false, err
	}
	if n.Negated {
		return !holds, nil
	}
	return holds, nil
}

func leafHolds(v dir.Value, in *Input, ruleName string) (bool, error) {
	switch v.Key.Kind() {
	case dir.KindNumber:
		amount := in.Payment.Amount
		if amount == nil {
			return false, &ExecutionError{RuleName: ruleName, Key: v.Key}
		}
		return v.Num.Refinement.Matches(*amount, v.Num.Number), nil

	case dir.KindMetadata:
		actual, ok := in.Metadata[v.Meta.Key]
		if !ok {
			return false, &ExecutionError{RuleName: ruleName, Key: v.Key, MetaKey: v.Meta.Key}
		}
		return actual == v.Meta.Value, nil

	case dir.KindConnector:
		if in.Connector == nil {
			return false, &ExecutionError{RuleName: ruleName, Key: v.Key}
		}
		return *in.Connector == v.Conn, nil

	case dir.KindEnum:
		actual := in.attribute(v.Key)
		if actual == nil {
			return false, &ExecutionError{RuleName: ruleName, Key: v.Key}
		}
		return *actual == v.Variant, nil

	case dir.KindText:
		actual := in.attribute(v.Key)
		if actual == nil {
			return false, &ExecutionError{RuleName: ruleName, Key: v.Key}
		}
		return *actual == v.Text, nil

	default:
		return false, fmt.Errorf("rule %q: unevaluatable key %s", ruleName, v.Key)
	}
}

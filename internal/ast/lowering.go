package ast

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/types"
)

/*
 * Guard lowering: surface AST to directory-value IR.
 *
 * Lowering is total and deterministic: the same surface input always
 * produces the same IR. Unknown keys, out-of-domain literals, and type
 * mismatches are rejected with descriptive errors.
 *
 * Normalization performed here:
 *   1. Negation pushed inward (De Morgan), so the IR is NNF: interior
 *      nodes are pure AND/OR, negation lives on leaves only.
 *   2. `in` expanded to OR of single assertions; `not in` to AND of
 *      negations.
 *   3. Ordering predicates become amount values with a comparison
 *      refinement; negating an ordering predicate flips the refinement
 *      instead of flagging the leaf.
 *   4. Connector literals flattened into ConnectorChoice values and
 *      validated against the known connector set.
 */

// LowerProgram lowers every rule of a program. Fails on the first rule
// that does not lower; a partially lowered program is never returned.
func LowerProgram[T any](p Program[T]) (LoweredProgram[T], error) {
	if len(p.Rules) > types.MaxRulesPerProgram {
		return LoweredProgram[T]{}, fmt.Errorf("%w: %d rules", types.ErrTooManyRules, len(p.Rules))
	}

	lowered := LoweredProgram[T]{
		DefaultOutput: p.DefaultOutput,
		Rules:         make([]LoweredRule[T], 0, len(p.Rules)),
	}
	for _, rule := range p.Rules {
		lr, err := LowerRule(rule)
		if err != nil {
			return LoweredProgram[T]{}, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		lowered.Rules = append(lowered.Rules, lr)
	}
	return lowered, nil
}

// LowerRule lowers a single rule's guard. A nil guard lowers to the empty
// conjunction (always true).
func LowerRule[T any](r Rule[T]) (LoweredRule[T], error) {
	guard := IRNode{Kind: IRAnd}
	if r.Guard != nil {
		var err error
		guard, err = lowerExpr(*r.Guard, false, 0)
		if err != nil {
			return LoweredRule[T]{}, err
		}
	}
	if n := guard.OrLeafCount(); n > types.MaxDisjunctExpansion {
		return LoweredRule[T]{}, fmt.Errorf("%w: %d branches", types.ErrExpansionTooLarge, n)
	}
	return LoweredRule[T]{Name: r.Name, Output: r.Output, Guard: guard}, nil
}

// lowerExpr recursively lowers one expression node, carrying the pending
// negation inward.
func lowerExpr(e Expr, negated bool, depth int) (IRNode, error) {
	if depth > types.MaxGuardDepth {
		return IRNode{}, types.ErrGuardTooDeep
	}

	switch e.Kind {
	case ExprPredicate:
		return lowerPredicate(e.Pred, negated)

	case ExprNot:
		if len(e.Args) != 1 {
			return IRNode{}, fmt.Errorf("negation takes exactly one operand, got %d", len(e.Args))
		}
		return lowerExpr(e.Args[0], !negated, depth+1)

	case ExprAnd, ExprOr:
		kind := IRAnd
		if (e.Kind == ExprOr) != negated {
			kind = IROr
		}
		children := make([]IRNode, 0, len(e.Args))
		for _, arg := range e.Args {
			c, err := lowerExpr(arg, negated, depth+1)
			if err != nil {
				return IRNode{}, err
			}
			children = append(children, c)
		}
		return IRNode{Kind: kind, Children: children}, nil

	default:
		return IRNode{}, fmt.Errorf("unknown expression kind %d", e.Kind)
	}
}

// lowerPredicate lowers one comparison into IR leaves.
func lowerPredicate(p Predicate, negated bool) (IRNode, error) {
	key, err := dir.ParseKey(p.Key)
	if err != nil {
		return IRNode{}, err
	}
	if (key == dir.KeyMetadata) != (p.MetaKey != "") {
		if key == dir.KeyMetadata {
			return IRNode{}, fmt.Errorf("%w: metadata predicate needs a sub-key (metadata.<name>)", types.ErrValueTypeMismatch)
		}
		return IRNode{}, fmt.Errorf("%w: %s does not take a sub-key", types.ErrValueTypeMismatch, key)
	}

	switch p.Op {
	case OpEqual, OpNotEqual:
		if len(p.Values) != 1 {
			return IRNode{}, fmt.Errorf("%s takes exactly one value, got %d", p.Op, len(p.Values))
		}
		if key.Kind() == dir.KindNumber {
			return lowerOrdering(key, p, negated)
		}
		v, err := literalValue(key, p.MetaKey, p.Values[0])
		if err != nil {
			return IRNode{}, err
		}
		// a /= b is the negation of a = b; an outer negation cancels it
		neg := (p.Op == OpNotEqual) != negated
		return leaf(v, neg), nil

	case OpIn, OpNotIn:
		if len(p.Values) == 0 {
			return IRNode{}, fmt.Errorf("%s requires at least one value", p.Op)
		}
		if len(p.Values) > types.MaxSetLiteralValues {
			return IRNode{}, fmt.Errorf("%w: %d values", types.ErrTooManySetValues, len(p.Values))
		}
		neg := (p.Op == OpNotIn) != negated
		children := make([]IRNode, 0, len(p.Values))
		for _, lit := range p.Values {
			v, err := literalValue(key, p.MetaKey, lit)
			if err != nil {
				return IRNode{}, err
			}
			children = append(children, leaf(v, neg))
		}
		// membership is a disjunction of assertions; its negation is a
		// conjunction of negations
		kind := IROr
		if neg {
			kind = IRAnd
		}
		return IRNode{Kind: kind, Children: children}, nil

	case OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual:
		if key.Kind() != dir.KindNumber {
			return IRNode{}, fmt.Errorf("%w: ordering comparison %s on non-numeric key %s", types.ErrValueTypeMismatch, p.Op, key)
		}
		if len(p.Values) != 1 {
			return IRNode{}, fmt.Errorf("%s takes exactly one value, got %d", p.Op, len(p.Values))
		}
		return lowerOrdering(key, p, negated)

	default:
		return IRNode{}, fmt.Errorf("unknown comparison operator %d", p.Op)
	}
}

// lowerOrdering lowers a numeric predicate into an amount leaf, folding an
// outer negation into the comparison refinement.
func lowerOrdering(key dir.Key, p Predicate, negated bool) (IRNode, error) {
	lit := p.Values[0]
	if !lit.IsNumber {
		return IRNode{}, fmt.Errorf("%w: %s expects a number, got %q", types.ErrValueTypeMismatch, key, lit.Text)
	}

	var cmp dir.Comparison
	switch p.Op {
	case OpEqual:
		cmp = dir.CmpEqual
	case OpNotEqual:
		cmp = dir.CmpNotEqual
	case OpGreaterThan:
		cmp = dir.CmpGreaterThan
	case OpLessThan:
		cmp = dir.CmpLessThan
	case OpGreaterEqual:
		cmp = dir.CmpGreaterEqual
	case OpLessEqual:
		cmp = dir.CmpLessEqual
	}
	if negated {
		cmp = invertComparison(cmp)
	}
	return leaf(dir.NewAmountValue(lit.Number, cmp), false), nil
}

// invertComparison returns the logical complement of a refinement.
func invertComparison(c dir.Comparison) dir.Comparison {
	switch c {
	case dir.CmpEqual:
		return dir.CmpNotEqual
	case dir.CmpNotEqual:
		return dir.CmpEqual
	case dir.CmpGreaterThan:
		return dir.CmpLessEqual
	case dir.CmpLessThan:
		return dir.CmpGreaterEqual
	case dir.CmpGreaterEqual:
		return dir.CmpLessThan
	case dir.CmpLessEqual:
		return dir.CmpGreaterThan
	default:
		return c
	}
}

// literalValue types a surface literal against the key's declared kind.
func literalValue(key dir.Key, metaKey string, lit Literal) (dir.Value, error) {
	switch key.Kind() {
	case dir.KindEnum:
		if lit.IsNumber {
			return dir.Value{}, fmt.Errorf("%w: %s expects a variant, got number", types.ErrValueTypeMismatch, key)
		}
		return dir.NewEnumValue(key, lit.Text)

	case dir.KindText:
		if lit.IsNumber {
			return dir.Value{}, fmt.Errorf("%w: %s expects text, got number", types.ErrValueTypeMismatch, key)
		}
		return dir.NewTextValue(key, lit.Text)

	case dir.KindMetadata:
		if lit.IsNumber {
			return dir.Value{}, fmt.Errorf("%w: metadata values are text", types.ErrValueTypeMismatch)
		}
		return dir.NewMetadataValue(metaKey, lit.Text), nil

	case dir.KindConnector:
		if lit.IsNumber {
			return dir.Value{}, fmt.Errorf("%w: %s expects a connector name", types.ErrValueTypeMismatch, key)
		}
		choice, err := ParseConnectorChoice(lit.Text)
		if err != nil {
			return dir.Value{}, err
		}
		return dir.NewConnectorValue(choice), nil

	case dir.KindNumber:
		if !lit.IsNumber {
			return dir.Value{}, fmt.Errorf("%w: %s expects a number, got %q", types.ErrValueTypeMismatch, key, lit.Text)
		}
		return dir.NewAmountValue(lit.Number, dir.CmpEqual), nil

	default:
		return dir.Value{}, fmt.Errorf("%w: %q", types.ErrUnknownKey, string(key))
	}
}

// ParseConnectorChoice parses `connector` or `connector:sub_label` surface
// syntax into a validated choice.
func ParseConnectorChoice(s string) (dir.ConnectorChoice, error) {
	name := s
	subLabel := ""
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			name = s[:i]
			subLabel = s[i+1:]
			break
		}
	}
	conn, err := dir.ParseConnector(name)
	if err != nil {
		return dir.ConnectorChoice{}, err
	}
	return dir.ConnectorChoice{Connector: conn, SubLabel: subLabel}, nil
}

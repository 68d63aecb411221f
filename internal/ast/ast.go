// Package ast defines merchant-authored routing policy structures (programs,
// rules, guard expressions), their textual notation, and the lowering step
// that turns surface syntax into the directory-value IR consumed by context
// expansion and the interpreter.
package ast

import (
	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/types"
)

// CompareOp is the surface comparison operator of a predicate.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpNotEqual
	OpIn
	OpNotIn
	OpGreaterThan
	OpLessThan
	OpGreaterEqual
	OpLessEqual
)

// String returns the surface spelling of the operator.
func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "/="
	case OpIn:
		return "in"
	case OpNotIn:
		return "not in"
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpGreaterEqual:
		return ">="
	case OpLessEqual:
		return "<="
	default:
		return "?"
	}
}

// Literal is an untyped surface literal. Typing happens during lowering,
// driven by the referenced key's declared value kind.
type Literal struct {
	Text     string
	Number   int64
	IsNumber bool
}

// Predicate compares one directory key against literal values.
// MetaKey is set only for the metadata key (`metadata.plan = "gold"`).
type Predicate struct {
	Key     string
	MetaKey string
	Op      CompareOp
	Values  []Literal
}

// ExprKind discriminates guard expression nodes.
type ExprKind int

const (
	ExprPredicate ExprKind = iota
	ExprAnd
	ExprOr
	ExprNot
)

// Expr is a boolean guard expression tree over directory value predicates.
type Expr struct {
	Kind ExprKind
	Pred Predicate // ExprPredicate
	Args []Expr    // ExprAnd/ExprOr children; ExprNot single child
}

// Pred builds a predicate leaf.
func Pred(key string, op CompareOp, values ...Literal) Expr {
	return Expr{Kind: ExprPredicate, Pred: Predicate{Key: key, Op: op, Values: values}}
}

// And builds a conjunction.
func And(args ...Expr) Expr { return Expr{Kind: ExprAnd, Args: args} }

// Or builds a disjunction.
func Or(args ...Expr) Expr { return Expr{Kind: ExprOr, Args: args} }

// Not builds a negation.
func Not(arg Expr) Expr { return Expr{Kind: ExprNot, Args: []Expr{arg}} }

// TextLit builds a textual literal.
func TextLit(s string) Literal { return Literal{Text: s} }

// NumberLit builds a numeric literal.
func NumberLit(n int64) Literal { return Literal{Number: n, IsNumber: true} }

// Rule is a named (guard, output) statement. A nil Guard is always true.
type Rule[T any] struct {
	Name   string
	Output T
	Guard  *Expr
}

// Program is the top-level policy container: an ordered rule sequence with
// a default output used when no rule matches. Programs are immutable once
// lowered; policy updates replace them wholesale.
type Program[T any] struct {
	DefaultOutput T
	Rules         []Rule[T]
	Metadata      types.Metadata
}

// VolumeSplit assigns a percentage share of traffic to one connector.
type VolumeSplit struct {
	Split  int
	Choice dir.ConnectorChoice
}

// ConnectorSelection is the routing decision output: either an ordered
// priority list or a volume split. Exactly one of the two is populated.
type ConnectorSelection struct {
	Priority    []dir.ConnectorChoice
	VolumeSplit []VolumeSplit
}

// IsVolumeSplit reports whether the selection distributes by volume.
func (s ConnectorSelection) IsVolumeSplit() bool {
	return len(s.VolumeSplit) > 0
}

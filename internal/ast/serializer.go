package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianpay/switchyard/internal/dir"
)

// SerializeRule renders a rule in the textual notation. It is the inverse
// of ParseRule: parsing the output reproduces the rule exactly. Volume
// split selections have no textual form and are rejected.
func SerializeRule(r Rule[ConnectorSelection]) (string, error) {
	if r.Output.IsVolumeSplit() {
		return "", fmt.Errorf("volume split selections have no textual notation")
	}
	if len(r.Output.Priority) == 0 {
		return "", fmt.Errorf("rule %q has no output connectors", r.Name)
	}

	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(": [")
	for i, choice := range r.Output.Priority {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(choice.String())
	}
	b.WriteString("] {")
	if r.Guard != nil {
		b.WriteString(SerializeExpr(*r.Guard))
	}
	b.WriteString("}")
	return b.String(), nil
}

// SerializeExpr renders a guard expression with minimal parentheses that
// still preserve the tree structure through a reparse.
func SerializeExpr(e Expr) string {
	switch e.Kind {
	case ExprPredicate:
		return serializePredicate(e.Pred)

	case ExprNot:
		if len(e.Args) != 1 {
			return "not ()"
		}
		arg := e.Args[0]
		if arg.Kind == ExprPredicate || arg.Kind == ExprNot {
			return "not " + SerializeExpr(arg)
		}
		return "not (" + SerializeExpr(arg) + ")"

	case ExprAnd:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			s := SerializeExpr(arg)
			// nested conjunctions and disjunctions keep their grouping
			if arg.Kind == ExprAnd || arg.Kind == ExprOr {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " & ")

	case ExprOr:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			s := SerializeExpr(arg)
			if arg.Kind == ExprOr {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " | ")

	default:
		return ""
	}
}

func serializePredicate(p Predicate) string {
	var b strings.Builder
	b.WriteString(p.Key)
	if p.MetaKey != "" {
		b.WriteString(".")
		b.WriteString(p.MetaKey)
	}

	switch p.Op {
	case OpIn, OpNotIn:
		if p.Op == OpIn {
			b.WriteString(" in (")
		} else {
			b.WriteString(" not in (")
		}
		for i, lit := range p.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(serializeLiteral(p, lit))
		}
		b.WriteString(")")
	default:
		b.WriteString(" ")
		b.WriteString(p.Op.String())
		b.WriteString(" ")
		if len(p.Values) > 0 {
			b.WriteString(serializeLiteral(p, p.Values[0]))
		}
	}
	return b.String()
}

// serializeLiteral renders a literal, quoting free-text payloads. Quoted
// and bare spellings parse to the same literal, so quoting never breaks
// the round-trip law; it only keeps arbitrary label text unambiguous.
func serializeLiteral(p Predicate, lit Literal) string {
	if lit.IsNumber {
		return strconv.FormatInt(lit.Number, 10)
	}
	if key, err := dir.ParseKey(p.Key); err == nil {
		switch key.Kind() {
		case dir.KindText, dir.KindMetadata:
			return strconv.Quote(lit.Text)
		}
	}
	return lit.Text
}

package dssa

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/dir"
)

// ContradictionError reports a rule disjunct that can never be satisfied,
// identifying the rule and the offending conjunctive context so the
// author can see exactly which fact combination is impossible.
type ContradictionError struct {
	RuleName string
	Context  []cgraph.Assertion
	Cause    error
}

func (e *ContradictionError) Error() string {
	parts := make([]string, len(e.Context))
	for i, a := range e.Context {
		parts[i] = a.String()
	}
	return fmt.Sprintf("rule %q has an unsatisfiable branch [%s]: %v",
		e.RuleName, strings.Join(parts, ", "), e.Cause)
}

func (e *ContradictionError) Unwrap() error {
	return e.Cause
}

// Analyze validates every disjunct of every rule in a program. Each
// context gets a structural check for conflicting assertions on
// single-valued keys; when a knowledge graph is supplied, each context
// is additionally validated against its constraints in full standalone
// strength. The first unsatisfiable disjunct found stops the analysis.
func Analyze[T any](program ast.Program[T], graph *cgraph.Graph) error {
	lowered, err := ast.LowerProgram(program)
	if err != nil {
		return err
	}
	memo := cgraph.NewMemoization()
	for _, rule := range lowered.Rules {
		if err := analyzeRule(rule, graph, memo); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRule[T any](rule ast.LoweredRule[T], graph *cgraph.Graph, memo *cgraph.Memoization) error {
	contexts, err := ExpandAll(rule.Guard)
	if err != nil {
		return fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	for _, ctx := range contexts {
		if err := checkStructure(ctx); err != nil {
			return &ContradictionError{RuleName: rule.Name, Context: ctx, Cause: err}
		}
		if graph != nil {
			if err := graph.PerformContextAnalysis(ctx, memo, cgraph.ScopeComplete); err != nil {
				return &ContradictionError{RuleName: rule.Name, Context: ctx, Cause: err}
			}
		}
	}
	return nil
}

// errConflictingAssertions marks a context that pins one single-valued
// key to two different values at once.
var errConflictingAssertions = errors.New("conflicting assertions for single-valued key")

// checkStructure rejects contexts that simultaneously assert two
// different values for a key that can only hold one, or that both assert
// and negate the same value. Multi-valued keys are exempt from the
// former: parallel connector candidates and independent metadata pairs
// are legitimate.
func checkStructure(ctx []cgraph.Assertion) error {
	asserted := make(map[dir.Value]struct{}, len(ctx))
	negated := make(map[dir.Value]struct{})
	byKey := make(map[dir.Key]dir.Value)
	for _, a := range ctx {
		if a.Negated {
			negated[a.Value] = struct{}{}
			continue
		}
		asserted[a.Value] = struct{}{}
		if a.Value.Key.MultiValued() {
			continue
		}
		if prev, ok := byKey[a.Value.Key]; ok && prev != a.Value {
			return fmt.Errorf("%w %s: %s vs %s", errConflictingAssertions, a.Value.Key, prev, a.Value)
		}
		byKey[a.Value.Key] = a.Value
	}
	for v := range negated {
		if _, ok := asserted[v]; ok {
			return fmt.Errorf("%w: %s is both asserted and negated", errConflictingAssertions, v)
		}
	}
	return nil
}

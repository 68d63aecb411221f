package cgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/types"
)

/*
 * Conjunctive context analysis.
 *
 * PerformContextAnalysis walks a context's assertions in order, maintaining
 * a running known-set. For each assertion the graph's incoming edges are
 * checked: a negative (excludes) edge whose predecessor already holds is an
 * immediate contradiction; a positive (requires) edge whose predecessor is
 * still undetermined does not fail eagerly - it is parked as a pending
 * constraint and re-checked as later assertions arrive. Pending constraints
 * that are still undetermined when the context ends are satisfiable.
 *
 * Node status is three-valued (holds / violated / undetermined). A value
 * node is violated when the context asserts a different value for the same
 * single-valued key; connector and metadata keys admit multiple
 * simultaneous assertions and never conflict this way.
 *
 * Memoization caches node status keyed by the exact current frontier
 * (sorted fingerprint of the known-set) plus the node ID. Frontier equality
 * is literal, never inclusion: a verdict computed under a superset or
 * subset frontier is not reusable, because a later-popped assertion could
 * have altered it. The cache is scoped to one top-level analysis
 * invocation and is never persisted across graph rebuilds.
 */

// Assertion is one element of a conjunctive context: a directory value
// asserted to hold or (negated) to not hold.
type Assertion struct {
	Value   dir.Value
	Negated bool
}

// String renders the assertion for fingerprints and error messages.
func (a Assertion) String() string {
	if a.Negated {
		return "!" + a.Value.String()
	}
	return a.Value.String()
}

// AnalysisError describes the first unsatisfiable relationship found.
type AnalysisError struct {
	// Value is the asserted value whose constraint failed.
	Value dir.Value
	// Relation is the violated edge polarity.
	Relation Relation
	// Constraint describes the predecessor node of the violated edge.
	Constraint string
}

func (e *AnalysisError) Error() string {
	if e.Relation == Negative {
		return fmt.Sprintf("%s excludes %s", e.Value, e.Constraint)
	}
	return fmt.Sprintf("%s requires %s", e.Value, e.Constraint)
}

// Scope restricts which edge strengths an analysis enforces.
type Scope int

const (
	// ScopeComplete enforces normal and hard edges (the default).
	ScopeComplete Scope = iota
	// ScopeHardOnly enforces only fixed domain facts, ignoring
	// merchant-overridable normal edges.
	ScopeHardOnly
)

func (s Scope) binding(strength Strength) bool {
	switch s {
	case ScopeHardOnly:
		return strength == Hard
	default:
		return strength >= Normal
	}
}

// status is the three-valued verdict of a node under a known-set.
type status int8

const (
	statusUndetermined status = iota
	statusHolds
	statusViolated
)

type memoKey struct {
	frontier string
	node     NodeID
}

// Memoization caches node status verdicts for one analysis invocation.
// Never reuse an instance across graph rebuilds: verdicts are only valid
// for the graph they were computed against.
type Memoization struct {
	verdicts map[memoKey]status
}

// NewMemoization creates an empty verdict cache.
func NewMemoization() *Memoization {
	return &Memoization{verdicts: make(map[memoKey]status)}
}

// analysisState is the per-invocation working set.
type analysisState struct {
	graph *Graph
	memo  *Memoization
	scope Scope

	// asserted/negated track the known-set; byKey tracks the single
	// asserted value per single-valued key for conflict detection
	asserted map[dir.Value]struct{}
	negated  map[dir.Value]struct{}
	byKey    map[dir.Key]dir.Value

	frontier string

	pending []pendingConstraint
}

// pendingConstraint is a requires/excludes edge whose predecessor was
// undetermined when its owner was asserted.
type pendingConstraint struct {
	owner    dir.Value
	pred     NodeID
	relation Relation
}

// PerformContextAnalysis returns nil when every assertion in the context
// is jointly satisfiable under the graph's edges, or an AnalysisError
// describing the first violated relationship. memo must not be shared
// across graphs; passing a fresh Memoization is always valid.
func (g *Graph) PerformContextAnalysis(ctx []Assertion, memo *Memoization, scope Scope) error {
	if len(ctx) > types.MaxContextAssertions {
		return fmt.Errorf("%w: %d assertions", types.ErrContextTooLarge, len(ctx))
	}
	if memo == nil {
		memo = NewMemoization()
	}

	st := &analysisState{
		graph:    g,
		memo:     memo,
		scope:    scope,
		asserted: make(map[dir.Value]struct{}, len(ctx)),
		negated:  make(map[dir.Value]struct{}),
		byKey:    make(map[dir.Key]dir.Value, len(ctx)),
	}

	for _, a := range ctx {
		st.admit(a)

		if a.Negated {
			// a negation constrains others but carries no requirements
			if err := st.recheckPending(); err != nil {
				return err
			}
			continue
		}

		if node, ok := g.valueIndex[a.Value]; ok {
			for _, edge := range g.incoming[node] {
				if !st.scope.binding(edge.Strength) {
					continue
				}
				predStatus := st.nodeStatus(edge.Pred)
				switch {
				case edge.Relation == Negative && predStatus == statusHolds:
					return &AnalysisError{Value: a.Value, Relation: Negative, Constraint: g.Describe(edge.Pred)}
				case edge.Relation == Positive && predStatus == statusViolated:
					return &AnalysisError{Value: a.Value, Relation: Positive, Constraint: g.Describe(edge.Pred)}
				case predStatus == statusUndetermined:
					st.pending = append(st.pending, pendingConstraint{owner: a.Value, pred: edge.Pred, relation: edge.Relation})
				}
			}
		}

		if err := st.recheckPending(); err != nil {
			return err
		}
	}

	return nil
}

// admit adds one assertion to the known-set and refreshes the frontier
// fingerprint.
func (s *analysisState) admit(a Assertion) {
	if a.Negated {
		s.negated[a.Value] = struct{}{}
	} else {
		s.asserted[a.Value] = struct{}{}
		if !a.Value.Key.MultiValued() {
			s.byKey[a.Value.Key] = a.Value
		}
	}
	s.frontier = s.fingerprint()
}

// fingerprint renders the exact known-set as a canonical sorted string.
// Sorting makes the fingerprint order-insensitive while preserving literal
// set equality; supersets and subsets always produce different strings.
func (s *analysisState) fingerprint() string {
	parts := make([]string, 0, len(s.asserted)+len(s.negated))
	for v := range s.asserted {
		parts = append(parts, "+"+v.String())
	}
	for v := range s.negated {
		parts = append(parts, "-"+v.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// recheckPending re-evaluates parked constraints against the grown
// known-set, failing ones that became definitively violated and dropping
// ones that resolved.
func (s *analysisState) recheckPending() error {
	kept := s.pending[:0]
	for _, p := range s.pending {
		predStatus := s.nodeStatus(p.pred)
		switch {
		case p.relation == Positive && predStatus == statusViolated:
			return &AnalysisError{Value: p.owner, Relation: Positive, Constraint: s.graph.Describe(p.pred)}
		case p.relation == Negative && predStatus == statusHolds:
			return &AnalysisError{Value: p.owner, Relation: Negative, Constraint: s.graph.Describe(p.pred)}
		case predStatus == statusUndetermined:
			kept = append(kept, p)
		}
	}
	s.pending = kept
	return nil
}

// nodeStatus computes the three-valued verdict of a node under the current
// known-set, consulting and filling the memoization cache.
func (s *analysisState) nodeStatus(id NodeID) status {
	key := memoKey{frontier: s.frontier, node: id}
	if verdict, ok := s.memo.verdicts[key]; ok {
		return verdict
	}

	node := s.graph.nodes[int(id)]
	var verdict status
	switch node.Kind {
	case NodeValue:
		verdict = s.valueStatus(node.Value)
	case NodeAllOf:
		verdict = statusHolds
		for _, m := range node.Members {
			switch s.nodeStatus(m) {
			case statusViolated:
				verdict = statusViolated
			case statusUndetermined:
				if verdict == statusHolds {
					verdict = statusUndetermined
				}
			}
			if verdict == statusViolated {
				break
			}
		}
	case NodeAnyOf:
		verdict = statusViolated
		for _, m := range node.Members {
			switch s.nodeStatus(m) {
			case statusHolds:
				verdict = statusHolds
			case statusUndetermined:
				if verdict == statusViolated {
					verdict = statusUndetermined
				}
			}
			if verdict == statusHolds {
				break
			}
		}
	}

	s.memo.verdicts[key] = verdict
	return verdict
}

// valueStatus resolves one value node against the known-set.
func (s *analysisState) valueStatus(v dir.Value) status {
	if _, ok := s.asserted[v]; ok {
		return statusHolds
	}
	if _, ok := s.negated[v]; ok {
		return statusViolated
	}
	if !v.Key.MultiValued() {
		if other, ok := s.byKey[v.Key]; ok && other != v {
			// the context asserts a different value for a single-valued key
			return statusViolated
		}
	}
	return statusUndetermined
}

package dssa

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/types"
)

// ExpansionState tracks machine progress. A machine starts Pending, moves
// to Emitting once the first context is produced, and ends Exhausted when
// the disjunct space is spent. An exhausted machine cannot be restarted.
type ExpansionState int

const (
	StatePending ExpansionState = iota
	StateEmitting
	StateExhausted
)

func (s ExpansionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateEmitting:
		return "emitting"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("ExpansionState(%d)", int(s))
	}
}

// ExpansionMachine lazily enumerates the DNF disjuncts of a lowered
// guard. Each OR node encountered on a depth-first walk becomes one
// digit of a mixed-radix counter; the current digit values select which
// branch of each OR contributes to the emitted context. Advancing
// increments the deepest incrementable digit and discards the digits
// after it, since the ORs they indexed may not exist under the new
// branch selection.
//
// A guard with no OR nodes yields exactly one context; an empty guard
// yields one empty context.
type ExpansionMachine struct {
	root  ast.IRNode
	state ExpansionState

	choices []int
	arity   []int
	pos     int

	ctx ConjunctiveContext
}

// NewExpansionMachine prepares expansion of one lowered guard. The guard
// is not inspected until the first Advance.
func NewExpansionMachine(guard ast.IRNode) *ExpansionMachine {
	return &ExpansionMachine{root: guard}
}

// State reports where the machine is in its lifecycle.
func (m *ExpansionMachine) State() ExpansionState {
	return m.state
}

// Advance produces the next conjunctive context, or reports false when
// the disjunct space is exhausted. The returned context is owned by the
// machine and is overwritten by the next Advance; callers needing the
// assertions afterwards must Snapshot them.
func (m *ExpansionMachine) Advance() (*ConjunctiveContext, bool) {
	switch m.state {
	case StateExhausted:
		return nil, false
	case StateEmitting:
		if !m.increment() {
			m.state = StateExhausted
			return nil, false
		}
	}

	m.ctx.values = m.ctx.values[:0]
	m.pos = 0
	m.walk(m.root)
	m.ctx.base = len(m.ctx.values)
	m.state = StateEmitting
	return &m.ctx, true
}

// increment bumps the deepest digit that has a further branch to offer
// and truncates everything after it. Returns false when no digit can be
// incremented, which means every disjunct has been emitted.
func (m *ExpansionMachine) increment() bool {
	for i := len(m.choices) - 1; i >= 0; i-- {
		if m.choices[i]+1 < m.arity[i] {
			m.choices[i]++
			m.choices = m.choices[:i+1]
			m.arity = m.arity[:i+1]
			return true
		}
	}
	return false
}

// walk collects the leaves of the disjunct selected by the current
// digits. OR nodes are assigned digits in depth-first encounter order;
// a node seen for the first time gets a fresh zero digit.
func (m *ExpansionMachine) walk(n ast.IRNode) {
	switch n.Kind {
	case ast.IRLeaf:
		m.ctx.values = append(m.ctx.values, cgraph.Assertion{
			Value:   n.Value,
			Negated: n.Negated,
		})
	case ast.IRAnd:
		for _, child := range n.Children {
			m.walk(child)
		}
	case ast.IROr:
		idx := m.pos
		if idx == len(m.choices) {
			m.choices = append(m.choices, 0)
			m.arity = append(m.arity, len(n.Children))
		}
		m.pos++
		m.walk(n.Children[m.choices[idx]])
	}
}

// ExpandAll drains a guard into the complete list of conjunctive
// contexts, snapshotting each one. Intended for analysis paths that need
// every disjunct; evaluation paths should drive the machine directly and
// stop early. The leaf-count cap bounds the result before any expansion
// work happens.
func ExpandAll(guard ast.IRNode) ([][]cgraph.Assertion, error) {
	if n := guard.OrLeafCount(); n > types.MaxDisjunctExpansion {
		return nil, fmt.Errorf("%w: guard expands to %d disjuncts", types.ErrExpansionTooLarge, n)
	}
	machine := NewExpansionMachine(guard)
	var out [][]cgraph.Assertion
	for {
		ctx, ok := machine.Advance()
		if !ok {
			return out, nil
		}
		out = append(out, ctx.Snapshot())
	}
}

// Package dssa expands lowered rule guards into their disjunctive normal
// form one conjunctive context at a time.
//
// A guard with nested ORs describes a set of alternative fact
// combinations. Materialising all of them up front is wasteful when the
// caller only needs to find the first satisfiable one, so expansion runs
// lazily through a state machine that yields one conjunctive context per
// advance. Callers may push speculative assertions onto the current
// context between advances, which is how connector elimination probes
// each candidate without rebuilding the context.
package dssa

import (
	"github.com/meridianpay/switchyard/internal/cgraph"
)

// ConjunctiveContext is one AND-combination of assertions produced by
// guard expansion. The trailing portion of the assertion list acts as a
// stack: Push appends a speculative assertion and Pop removes the most
// recent one, leaving the expanded base untouched.
type ConjunctiveContext struct {
	values []cgraph.Assertion
	base   int
}

// Values returns the current assertion list, base facts first, pushed
// assertions after in push order. The slice aliases internal state and
// is only valid until the next Push, Pop, or machine advance.
func (c *ConjunctiveContext) Values() []cgraph.Assertion {
	return c.values
}

// Len returns the number of assertions currently in the context.
func (c *ConjunctiveContext) Len() int {
	return len(c.values)
}

// Push appends a speculative assertion on top of the expanded base.
func (c *ConjunctiveContext) Push(a cgraph.Assertion) {
	c.values = append(c.values, a)
}

// Pop removes the most recently pushed assertion. Popping below the
// expanded base is a programming error and panics.
func (c *ConjunctiveContext) Pop() {
	if len(c.values) <= c.base {
		panic("dssa: pop below expanded context base")
	}
	c.values = c.values[:len(c.values)-1]
}

// WithPushed runs fn with a pushed on the context and pops it again
// regardless of how fn returns.
func (c *ConjunctiveContext) WithPushed(a cgraph.Assertion, fn func() error) error {
	c.Push(a)
	defer c.Pop()
	return fn()
}

// Snapshot copies the current assertion list, detaching it from the
// machine's reuse of the underlying array.
func (c *ConjunctiveContext) Snapshot() []cgraph.Assertion {
	out := make([]cgraph.Assertion, len(c.values))
	copy(out, c.values)
	return out
}

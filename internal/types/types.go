// Package types provides domain identifiers and limits shared across
// Switchyard components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library. ID utilities in ids.go import uuid but are isolated so callers
// that only need limits and errors do not pull it in.
package types

// ProgramID represents a UUIDv7 routing program identifier.
// String alias enables type safety while maintaining JSON string serialization.
type ProgramID string

// SnapshotID represents a UUIDv7 merchant configuration snapshot identifier.
// String alias enables type safety while maintaining JSON string serialization.
type SnapshotID string

// Metadata represents free-form key-value pairs attached to programs and
// transactions. String-only values enforce consistent type handling.
type Metadata map[string]string

// Resource limits enforced by the routing core to keep evaluation bounded.
// The engine has no cancellation contract; callers bound total work by
// bounding program size (finite rules, finite OR-expansion per guard).
const (
	// MaxRulesPerProgram limits the number of rules in a single program.
	// 64 rules covers observed merchant policies with wide headroom.
	MaxRulesPerProgram = 64

	// MaxGuardDepth limits nesting of boolean operators in one guard.
	// 16 levels handles machine-generated policies without unbounded recursion.
	MaxGuardDepth = 16

	// MaxDisjunctExpansion caps the number of conjunctive contexts one
	// guard may expand into. OR leaves multiply; 4096 bounds the worst
	// case product while permitting realistic policy shapes.
	MaxDisjunctExpansion = 4096

	// MaxSetLiteralValues limits `in` predicate list size to prevent
	// quadratic membership cost during analysis.
	MaxSetLiteralValues = 64

	// MaxContextAssertions caps one conjunctive context. One assertion
	// per directory key plus the connector candidates pushed during
	// elimination stays far below this.
	MaxContextAssertions = 256
)

package types

import "errors"

// Sentinel errors for Switchyard routing core operations.
var (
	// ErrAlreadySeeded indicates a second seeding attempt on a knowledge
	// session. The first seed's data remains authoritative.
	ErrAlreadySeeded = errors.New("knowledge session already seeded")

	// ErrNotSeeded indicates an operation that requires a seeded graph or
	// rate table before any seeding happened.
	ErrNotSeeded = errors.New("knowledge session not seeded")

	// ErrUnknownKey indicates an unrecognized directory key identifier.
	ErrUnknownKey = errors.New("unknown directory key")

	// ErrUnknownVariant indicates a literal outside the key's value domain.
	ErrUnknownVariant = errors.New("unknown variant for directory key")

	// ErrUnknownConnector indicates a connector name outside the known set.
	ErrUnknownConnector = errors.New("unknown connector")

	// ErrKeyHasNoVariants indicates variant introspection on a key whose
	// values are not enumerable (amounts, labels, metadata).
	ErrKeyHasNoVariants = errors.New("directory key has no enumerable variants")

	// ErrValueTypeMismatch indicates a literal whose shape does not match
	// the key's declared value kind.
	ErrValueTypeMismatch = errors.New("literal does not match key value type")

	// ErrTooManyRules indicates a program exceeds MaxRulesPerProgram.
	ErrTooManyRules = errors.New("program has too many rules")

	// ErrGuardTooDeep indicates a guard exceeds MaxGuardDepth nesting.
	ErrGuardTooDeep = errors.New("guard expression nested too deeply")

	// ErrExpansionTooLarge indicates a guard expands past MaxDisjunctExpansion.
	ErrExpansionTooLarge = errors.New("guard expansion exceeds disjunct limit")

	// ErrTooManySetValues indicates an `in` predicate exceeds MaxSetLiteralValues.
	ErrTooManySetValues = errors.New("set predicate has too many values")

	// ErrContextTooLarge indicates a context exceeds MaxContextAssertions.
	ErrContextTooLarge = errors.New("conjunctive context has too many assertions")

	// ErrMissingInput indicates a guard referenced a transaction attribute
	// absent from the interpreter input. This fails the whole evaluation:
	// a malformed input cannot safely select any policy branch.
	ErrMissingInput = errors.New("required input attribute missing")

	// ErrRateUnavailable indicates the exchange rate table has no entry
	// for a requested currency.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

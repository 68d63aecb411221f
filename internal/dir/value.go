package dir

import (
	"fmt"
	"strconv"

	"github.com/meridianpay/switchyard/internal/types"
)

// Comparison refines a numeric value: an amount predicate asserts a
// relationship to a threshold rather than a single point.
type Comparison int

const (
	CmpEqual Comparison = iota
	CmpNotEqual
	CmpGreaterThan
	CmpLessThan
	CmpGreaterEqual
	CmpLessEqual
)

// String returns the surface operator spelling of the comparison.
func (c Comparison) String() string {
	switch c {
	case CmpEqual:
		return "="
	case CmpNotEqual:
		return "/="
	case CmpGreaterThan:
		return ">"
	case CmpLessThan:
		return "<"
	case CmpGreaterEqual:
		return ">="
	case CmpLessEqual:
		return "<="
	default:
		return "?"
	}
}

// Matches reports whether a concrete amount satisfies the refinement
// against the asserted threshold.
func (c Comparison) Matches(actual, threshold int64) bool {
	switch c {
	case CmpEqual:
		return actual == threshold
	case CmpNotEqual:
		return actual != threshold
	case CmpGreaterThan:
		return actual > threshold
	case CmpLessThan:
		return actual < threshold
	case CmpGreaterEqual:
		return actual >= threshold
	case CmpLessEqual:
		return actual <= threshold
	default:
		return false
	}
}

// NumValue is a numeric payload with a comparison refinement.
type NumValue struct {
	Number     int64
	Refinement Comparison
}

// MetaPair is a metadata payload: one asserted key-value pair.
type MetaPair struct {
	Key   string
	Value string
}

// Value is a tagged union, one payload shape per key kind, identifying its
// owning key. Exactly one payload field is meaningful, selected by
// v.Key.Kind(). The struct is comparable: values serve directly as
// constraint graph nodes and as set members.
type Value struct {
	Key     Key
	Variant string          // KindEnum
	Text    string          // KindText
	Num     NumValue        // KindNumber
	Meta    MetaPair        // KindMetadata
	Conn    ConnectorChoice // KindConnector
}

// NewEnumValue constructs a validated enum value for key.
func NewEnumValue(key Key, variant string) (Value, error) {
	if !key.Valid() {
		return Value{}, fmt.Errorf("%w: %q", types.ErrUnknownKey, string(key))
	}
	if key.Kind() != KindEnum {
		return Value{}, fmt.Errorf("%w: %s does not take enum variants", types.ErrValueTypeMismatch, key)
	}
	if !HasVariant(key, variant) {
		return Value{}, fmt.Errorf("%w: %q is not a %s", types.ErrUnknownVariant, variant, key)
	}
	return Value{Key: key, Variant: variant}, nil
}

// NewTextValue constructs a free-text value (business label, card BIN).
func NewTextValue(key Key, text string) (Value, error) {
	if !key.Valid() {
		return Value{}, fmt.Errorf("%w: %q", types.ErrUnknownKey, string(key))
	}
	if key.Kind() != KindText {
		return Value{}, fmt.Errorf("%w: %s does not take text", types.ErrValueTypeMismatch, key)
	}
	return Value{Key: key, Text: text}, nil
}

// NewAmountValue constructs a payment amount value with its refinement.
func NewAmountValue(number int64, refinement Comparison) Value {
	return Value{Key: KeyPaymentAmount, Num: NumValue{Number: number, Refinement: refinement}}
}

// NewMetadataValue constructs a metadata key-value assertion.
func NewMetadataValue(metaKey, metaValue string) Value {
	return Value{Key: KeyMetadata, Meta: MetaPair{Key: metaKey, Value: metaValue}}
}

// NewConnectorValue wraps a connector choice as a directory value for
// elimination analysis against the constraint graph.
func NewConnectorValue(choice ConnectorChoice) Value {
	return Value{Key: KeyConnector, Conn: choice}
}

// String renders the value for error messages and serialized rule text.
func (v Value) String() string {
	switch v.Key.Kind() {
	case KindEnum:
		return fmt.Sprintf("%s = %s", v.Key, v.Variant)
	case KindText:
		return fmt.Sprintf("%s = %q", v.Key, v.Text)
	case KindNumber:
		return fmt.Sprintf("%s %s %s", v.Key, v.Num.Refinement, strconv.FormatInt(v.Num.Number, 10))
	case KindMetadata:
		return fmt.Sprintf("%s.%s = %q", v.Key, v.Meta.Key, v.Meta.Value)
	case KindConnector:
		return fmt.Sprintf("%s = %s", v.Key, v.Conn)
	default:
		return string(v.Key)
	}
}

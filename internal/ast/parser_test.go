package ast

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/meridianpay/switchyard/internal/dir"
)

func TestParseRule_Normal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, r Rule[ConnectorSelection])
	}{
		{
			name:  "single predicate",
			input: `us_cards: [stripe] { billing_country = US }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				if r.Name != "us_cards" {
					t.Errorf("Name = %q, want us_cards", r.Name)
				}
				if len(r.Output.Priority) != 1 || r.Output.Priority[0].Connector != "stripe" {
					t.Errorf("Priority = %v, want [stripe]", r.Output.Priority)
				}
				want := Pred("billing_country", OpEqual, TextLit("US"))
				if !reflect.DeepEqual(*r.Guard, want) {
					t.Errorf("Guard = %+v, want %+v", *r.Guard, want)
				}
			},
		},
		{
			name:  "empty guard",
			input: `fallback: [paypal] {}`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				if r.Guard != nil {
					t.Errorf("Guard = %+v, want nil for empty braces", r.Guard)
				}
			},
		},
		{
			name:  "sub-labelled connectors",
			input: `eu: [adyen:eu, stripe] { business_country = DE }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				want := []dir.ConnectorChoice{
					{Connector: "adyen", SubLabel: "eu"},
					{Connector: "stripe"},
				}
				if !reflect.DeepEqual(r.Output.Priority, want) {
					t.Errorf("Priority = %v, want %v", r.Output.Priority, want)
				}
			},
		},
		{
			name:  "precedence and over or",
			input: `mix: [stripe] { billing_country = US & payment_method = card | payment_method = wallet }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				want := Or(
					And(
						Pred("billing_country", OpEqual, TextLit("US")),
						Pred("payment_method", OpEqual, TextLit("card")),
					),
					Pred("payment_method", OpEqual, TextLit("wallet")),
				)
				if !reflect.DeepEqual(*r.Guard, want) {
					t.Errorf("Guard = %+v, want %+v", *r.Guard, want)
				}
			},
		},
		{
			name:  "in list and amount comparison",
			input: `big: [adyen] { card_network in (visa, mastercard) & payment_amount >= 10000 }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				want := And(
					Pred("card_network", OpIn, TextLit("visa"), TextLit("mastercard")),
					Pred("payment_amount", OpGreaterEqual, NumberLit(10000)),
				)
				if !reflect.DeepEqual(*r.Guard, want) {
					t.Errorf("Guard = %+v, want %+v", *r.Guard, want)
				}
			},
		},
		{
			name:  "not in and negation",
			input: `odd: [zen] { billing_country not in (US, CA) & not payment_method = card }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				want := And(
					Pred("billing_country", OpNotIn, TextLit("US"), TextLit("CA")),
					Not(Pred("payment_method", OpEqual, TextLit("card"))),
				)
				if !reflect.DeepEqual(*r.Guard, want) {
					t.Errorf("Guard = %+v, want %+v", *r.Guard, want)
				}
			},
		},
		{
			name:  "metadata sub-key and quoted string",
			input: `vip: [checkout] { metadata.plan = "gold" }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				wantPred := Predicate{Key: "metadata", MetaKey: "plan", Op: OpEqual, Values: []Literal{TextLit("gold")}}
				if !reflect.DeepEqual(r.Guard.Pred, wantPred) {
					t.Errorf("Pred = %+v, want %+v", r.Guard.Pred, wantPred)
				}
			},
		},
		{
			name:  "escaped quote and backslash in string",
			input: `labeled: [stripe] { business_label = "a\"b\\c" }`,
			check: func(t *testing.T, r Rule[ConnectorSelection]) {
				wantPred := Predicate{Key: "business_label", Op: OpEqual, Values: []Literal{TextLit(`a"b\c`)}}
				if !reflect.DeepEqual(r.Guard.Pred, wantPred) {
					t.Errorf("Pred = %+v, want %+v", r.Guard.Pred, wantPred)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.input)
			if err != nil {
				t.Fatalf("ParseRule() error = %v, want nil", err)
			}
			tt.check(t, rule)
		})
	}
}

func TestParseRule_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing output", input: `r: { billing_country = US }`},
		{name: "missing guard braces", input: `r: [stripe]`},
		{name: "unterminated string", input: `r: [stripe] { business_label = "shoes }`},
		{name: "dangling operator", input: `r: [stripe] { billing_country = }`},
		{name: "trailing input", input: `r: [stripe] {} extra`},
		{name: "lone not in", input: `r: [stripe] { billing_country not (US) }`},
		{name: "empty input", input: ``},
		{name: "unknown output connector", input: `r: [acme_pay] {}`},
		{name: "unknown connector behind valid one", input: `r: [stripe, acme_pay:eu] {}`},
		{name: "bad string escape", input: `r: [stripe] { business_label = "a\qb" }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRule(tt.input); err == nil {
				t.Errorf("ParseRule(%q) error = nil, want parse error", tt.input)
			}
		})
	}
}

func TestSerializeRule_Examples(t *testing.T) {
	input := `big: [adyen, stripe:us] { card_network in (visa, mastercard) & payment_amount >= 10000 }`
	rule, err := ParseRule(input)
	if err != nil {
		t.Fatalf("ParseRule() error = %v", err)
	}
	text, err := SerializeRule(rule)
	if err != nil {
		t.Fatalf("SerializeRule() error = %v", err)
	}
	again, err := ParseRule(text)
	if err != nil {
		t.Fatalf("ParseRule(serialized) error = %v, text = %q", err, text)
	}
	if !reflect.DeepEqual(rule, again) {
		t.Errorf("round trip changed the rule:\nfirst  %+v\nsecond %+v", rule, again)
	}
}

func TestSerializeRule_QuotedTextRoundTrip(t *testing.T) {
	for _, label := range []string{`a"b`, `back\slash`, `mixed \"both`, "tab\there"} {
		guard := Pred("business_label", OpEqual, TextLit(label))
		rule := Rule[ConnectorSelection]{
			Name:   "labeled",
			Output: ConnectorSelection{Priority: []dir.ConnectorChoice{{Connector: "stripe"}}},
			Guard:  &guard,
		}
		text, err := SerializeRule(rule)
		if err != nil {
			t.Fatalf("SerializeRule(%q) error = %v", label, err)
		}
		again, err := ParseRule(text)
		if err != nil {
			t.Fatalf("ParseRule(%q) error = %v", text, err)
		}
		if !reflect.DeepEqual(rule, again) {
			t.Errorf("round trip changed the rule for label %q:\nfirst  %+v\nsecond %+v", label, rule, again)
		}
	}
}

// genPredicate generates well-formed predicates over the compiled-in
// vocabulary.
func genPredicate() gopter.Gen {
	countries := []string{"US", "CA", "GB", "DE", "FR"}
	networks := []string{"visa", "mastercard", "amex", "rupay"}

	return gen.IntRange(0, 6).FlatMap(func(v any) gopter.Gen {
		switch v.(int) {
		case 0:
			return gen.OneConstOf("US", "CA", "GB", "DE", "FR").Map(func(c string) Expr {
				return Pred("billing_country", OpEqual, TextLit(c))
			})
		case 1:
			return gen.OneConstOf("visa", "mastercard", "amex", "rupay").Map(func(n string) Expr {
				return Pred("card_network", OpNotEqual, TextLit(n))
			})
		case 2:
			return gen.IntRange(2, 4).Map(func(n int) Expr {
				lits := make([]Literal, 0, n)
				for i := 0; i < n; i++ {
					lits = append(lits, TextLit(countries[i]))
				}
				return Pred("billing_country", OpIn, lits...)
			})
		case 3:
			return gen.IntRange(2, 3).Map(func(n int) Expr {
				lits := make([]Literal, 0, n)
				for i := 0; i < n; i++ {
					lits = append(lits, TextLit(networks[i]))
				}
				return Pred("card_network", OpNotIn, lits...)
			})
		case 4:
			return gen.Int64Range(1, 1_000_000).Map(func(n int64) Expr {
				return Pred("payment_amount", OpGreaterThan, NumberLit(n))
			})
		case 5:
			// free text with lexer-hostile bytes
			return gen.OneConstOf(`plain`, `a"b`, `back\slash`, `\"`, `end\`).Map(func(s string) Expr {
				return Pred("business_label", OpEqual, TextLit(s))
			})
		default:
			return gen.OneConstOf("card", "wallet", "pay_later", "bank_debit").Map(func(m string) Expr {
				return Pred("payment_method", OpEqual, TextLit(m))
			})
		}
	}, reflect.TypeOf(Expr{}))
}

// genGuard composes predicates with And/Or/Not up to the given depth.
func genGuard(depth int) gopter.Gen {
	if depth <= 0 {
		return genPredicate()
	}
	return gen.IntRange(0, 3).FlatMap(func(v any) gopter.Gen {
		switch v.(int) {
		case 0:
			return gen.SliceOfN(2, genGuard(depth-1)).Map(func(args []Expr) Expr {
				return And(args...)
			})
		case 1:
			return gen.SliceOfN(2, genGuard(depth-1)).Map(func(args []Expr) Expr {
				return Or(args...)
			})
		case 2:
			return genPredicate().Map(func(p Expr) Expr { return Not(p) })
		default:
			return genPredicate()
		}
	}, reflect.TypeOf(Expr{}))
}

// Property-based test: parser/serializer inverse law.
func TestParseSerialize_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Parse(Serialize(rule)) == rule", prop.ForAll(
		func(guard Expr, first string, second string) bool {
			g := guard
			rule := Rule[ConnectorSelection]{
				Name: "generated_rule",
				Output: ConnectorSelection{Priority: []dir.ConnectorChoice{
					{Connector: dir.Connector(first)},
					{Connector: dir.Connector(second), SubLabel: "alt"},
				}},
				Guard: &g,
			}

			text, err := SerializeRule(rule)
			if err != nil {
				return false
			}
			parsed, err := ParseRule(text)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(rule, parsed)
		},
		genGuard(2),
		gen.OneConstOf("stripe", "adyen", "checkout"),
		gen.OneConstOf("paypal", "worldpay", "zen"),
	))

	properties.TestingRun(t)
}

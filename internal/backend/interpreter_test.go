package backend

import (
	"errors"
	"testing"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/types"
)

func ptr[T any](v T) *T { return &v }

func mustRule(t *testing.T, text string) ast.Rule[ast.ConnectorSelection] {
	t.Helper()
	rule, err := ast.ParseRule(text)
	if err != nil {
		t.Fatalf("parse rule %q: %v", text, err)
	}
	return rule
}

func selection(connectors ...string) ast.ConnectorSelection {
	var sel ast.ConnectorSelection
	for _, c := range connectors {
		sel.Priority = append(sel.Priority, dir.ConnectorChoice{Connector: dir.Connector(c)})
	}
	return sel
}

func TestExecute_FirstMatchWinsThenDefault(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: selection("adyen"),
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `us_traffic: [stripe] { billing_country = US }`),
		},
	}
	interp, err := NewInterpreter(program)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}

	tests := []struct {
		name     string
		country  string
		want     string
		wantRule string
	}{
		{"matching rule wins", "US", "stripe", "us_traffic"},
		{"non-matching falls to default", "CA", "adyen", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := interp.Execute(Input{
				Payment: PaymentInput{BillingCountry: ptr(tt.country)},
			})
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got := string(out.Value.Priority[0].Connector); got != tt.want {
				t.Fatalf("connector = %s, want %s", got, tt.want)
			}
			if out.RuleName != tt.wantRule {
				t.Fatalf("rule name = %q, want %q", out.RuleName, tt.wantRule)
			}
		})
	}
}

func TestExecute_RuleOrderIsDeclarationOrder(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: selection("adyen"),
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `broad: [stripe] { payment_method = card }`),
			mustRule(t, `narrow: [checkout] { payment_method = card & billing_country = US }`),
		},
	}
	interp, err := NewInterpreter(program)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	out, err := interp.Execute(Input{
		Payment:       PaymentInput{BillingCountry: ptr("US")},
		PaymentMethod: MethodInput{PaymentMethod: ptr("card")},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RuleName != "broad" {
		t.Fatalf("matched rule = %q, want the earlier %q", out.RuleName, "broad")
	}
}

func TestExecute_GuardShapes(t *testing.T) {
	interpFor := func(t *testing.T, guard string) *Interpreter[ast.ConnectorSelection] {
		t.Helper()
		program := ast.Program[ast.ConnectorSelection]{
			DefaultOutput: selection("adyen"),
			Rules: []ast.Rule[ast.ConnectorSelection]{
				mustRule(t, `r: [stripe] { `+guard+` }`),
			},
		}
		interp, err := NewInterpreter(program)
		if err != nil {
			t.Fatalf("new interpreter: %v", err)
		}
		return interp
	}

	cardInput := func(amount int64, network string) Input {
		return Input{
			Payment:       PaymentInput{Amount: ptr(amount), Currency: ptr("USD")},
			PaymentMethod: MethodInput{PaymentMethod: ptr("card"), CardNetwork: ptr(network)},
			Metadata:      map[string]string{"plan": "enterprise"},
		}
	}

	tests := []struct {
		name    string
		guard   string
		input   Input
		matched bool
	}{
		{"amount above threshold", `payment_amount > 5000`, cardInput(10000, "visa"), true},
		{"amount below threshold", `payment_amount > 5000`, cardInput(100, "visa"), false},
		{"in list hit", `card_network in (visa, mastercard)`, cardInput(100, "mastercard"), true},
		{"in list miss", `card_network in (visa, mastercard)`, cardInput(100, "rupay"), false},
		{"negated equality", `not card_network = visa`, cardInput(100, "rupay"), true},
		{"metadata match", `metadata.plan = "enterprise"`, cardInput(100, "visa"), true},
		{"metadata mismatch", `metadata.plan = "starter"`, cardInput(100, "visa"), false},
		{"conjunction short-circuits", `card_network = visa & payment_amount < 500`, cardInput(100, "rupay"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := interpFor(t, tt.guard).Execute(tt.input)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			want := "adyen"
			if tt.matched {
				want = "stripe"
			}
			if got := string(out.Value.Priority[0].Connector); got != want {
				t.Fatalf("connector = %s, want %s", got, want)
			}
		})
	}
}

func TestExecute_MissingAttributeFailsEvaluation(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: selection("adyen"),
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `amount_gate: [stripe] { payment_amount > 5000 }`),
		},
	}
	interp, err := NewInterpreter(program)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}

	_, err = interp.Execute(Input{})
	if !errors.Is(err, types.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecutionError", err)
	}
	if execErr.RuleName != "amount_gate" {
		t.Fatalf("error names rule %q, want %q", execErr.RuleName, "amount_gate")
	}
}

func TestExecute_MissingMetadataKeyFailsEvaluation(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: selection("adyen"),
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `plan_gate: [stripe] { metadata.plan = "enterprise" }`),
		},
	}
	interp, err := NewInterpreter(program)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	_, err = interp.Execute(Input{Metadata: map[string]string{"tier": "gold"}})
	if !errors.Is(err, types.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestNewInterpreter_RejectsIllTypedProgram(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: selection("adyen"),
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `bad: [stripe] { payment_currency = US }`),
		},
	}
	if _, err := NewInterpreter(program); err == nil {
		t.Fatal("country literal on a currency key was accepted")
	}
}

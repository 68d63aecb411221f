package routing

import (
	"errors"
	"sync"
	"testing"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/backend"
	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/dssa"
	"github.com/meridianpay/switchyard/internal/forex"
	"github.com/meridianpay/switchyard/internal/kgraph"
	"github.com/meridianpay/switchyard/internal/types"
)

func ptr[T any](v T) *T { return &v }

// seededSession configures three accounts with disjoint support:
// stripe takes cards in the US, adyen takes wallets in the US, and
// checkout takes cards in Canada.
func seededSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(nil)
	connectors := []kgraph.MerchantConnector{
		{Connector: "stripe", PaymentMethods: []string{"card"}},
		{Connector: "adyen", PaymentMethods: []string{"wallet"}},
		{Connector: "checkout", PaymentMethods: []string{"card"}},
	}
	filters := kgraph.FilterSet{
		ByChoice: map[dir.ConnectorChoice]kgraph.CountryCurrencyFilter{
			{Connector: "stripe"}:   {Countries: []string{"US"}},
			{Connector: "adyen"}:    {Countries: []string{"US"}},
			{Connector: "checkout"}: {Countries: []string{"CA"}},
		},
	}
	if err := s.SeedGraph(connectors, filters); err != nil {
		t.Fatalf("seed graph: %v", err)
	}
	return s
}

func mustRule(t *testing.T, text string) ast.Rule[ast.ConnectorSelection] {
	t.Helper()
	rule, err := ParseRuleText(text)
	if err != nil {
		t.Fatalf("parse rule %q: %v", text, err)
	}
	return rule
}

func TestSeedGraph_SecondSeedRejected(t *testing.T) {
	s := seededSession(t)
	err := s.SeedGraph(nil, kgraph.FilterSet{})
	if !errors.Is(err, types.ErrAlreadySeeded) {
		t.Fatalf("second seed err = %v, want ErrAlreadySeeded", err)
	}

	// The first snapshot stays authoritative.
	got, err := s.Connectors()
	if err != nil {
		t.Fatalf("connectors: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("connector count after failed reseed = %d, want 3", len(got))
	}
}

func TestSeedGraph_ConcurrentSeedersExactlyOneWins(t *testing.T) {
	s := NewSession(nil)
	connectors := []kgraph.MerchantConnector{{Connector: "stripe"}}

	const seeders = 16
	errs := make([]error, seeders)
	var wg sync.WaitGroup
	for i := 0; i < seeders; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.SeedGraph(connectors, kgraph.FilterSet{})
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, types.ErrAlreadySeeded):
		default:
			t.Fatalf("unexpected seed error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d seeders won, want exactly 1", won)
	}
}

func TestSeedGraph_BadConfigurationLeavesSessionUnseeded(t *testing.T) {
	s := NewSession(nil)
	err := s.SeedGraph([]kgraph.MerchantConnector{{Connector: "bogus"}}, kgraph.FilterSet{})
	if err == nil {
		t.Fatal("unknown connector accepted")
	}
	if _, err := s.Connectors(); !errors.Is(err, types.ErrNotSeeded) {
		t.Fatalf("session state after failed seed = %v, want ErrNotSeeded", err)
	}
}

func TestValidConnectorsForRule_Elimination(t *testing.T) {
	s := seededSession(t)

	rule := mustRule(t, `us_cards: [stripe] { billing_country = US & payment_method = card }`)
	valid, err := s.ValidConnectorsForRule(rule, nil)
	if err != nil {
		t.Fatalf("valid connectors: %v", err)
	}
	want := []dir.ConnectorChoice{{Connector: "stripe"}}
	if len(valid) != 1 || valid[0] != want[0] {
		t.Fatalf("valid = %v, want %v", valid, want)
	}
}

func TestValidConnectorsForRule_DisjunctiveGuardUnionsSurvivors(t *testing.T) {
	s := seededSession(t)

	// A candidate invalidated by any branch stays eliminated: adyen
	// survives neither card branch, checkout fails the US branch and is
	// skipped for the CA one.
	rule := mustRule(t, `cards: [stripe] { payment_method = card & (billing_country = US | billing_country = CA) }`)
	valid, err := s.ValidConnectorsForRule(rule, nil)
	if err != nil {
		t.Fatalf("valid connectors: %v", err)
	}
	if len(valid) != 0 {
		t.Fatalf("valid = %v, want none; every account fails one branch", valid)
	}
}

func TestValidConnectorsForRule_EmptyGuardKeepsAll(t *testing.T) {
	s := seededSession(t)
	rule := ast.Rule[ast.ConnectorSelection]{Name: "catch_all"}
	valid, err := s.ValidConnectorsForRule(rule, nil)
	if err != nil {
		t.Fatalf("valid connectors: %v", err)
	}
	if len(valid) != 3 {
		t.Fatalf("valid count = %d, want all 3", len(valid))
	}
}

func TestValidConnectorsForRule_ContradictoryContextIsFatal(t *testing.T) {
	s := seededSession(t)
	rule := mustRule(t, `impossible: [stripe] { card_network = interac & billing_country = US }`)
	if _, err := s.ValidConnectorsForRule(rule, nil); err == nil {
		t.Fatal("authoring contradiction did not surface")
	}
}

func TestValidConnectorsForRule_Unseeded(t *testing.T) {
	s := NewSession(nil)
	rule := mustRule(t, `r: [stripe] { billing_country = US }`)
	if _, err := s.ValidConnectorsForRule(rule, nil); !errors.Is(err, types.ErrNotSeeded) {
		t.Fatalf("err = %v, want ErrNotSeeded", err)
	}
}

func TestAnalyzeProgram_UsesSeededGraph(t *testing.T) {
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: ast.ConnectorSelection{Priority: []dir.ConnectorChoice{{Connector: "stripe"}}},
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `impossible: [stripe] { card_network = interac & billing_country = US }`),
		},
	}

	// Structurally fine, so an unseeded session passes it.
	if err := NewSession(nil).AnalyzeProgram(program); err != nil {
		t.Fatalf("structural analysis failed: %v", err)
	}

	// The seeded graph knows interac means Canada.
	err := seededSession(t).AnalyzeProgram(program)
	var contra *dssa.ContradictionError
	if !errors.As(err, &contra) {
		t.Fatalf("err = %v, want ContradictionError", err)
	}
	if contra.RuleName != "impossible" {
		t.Fatalf("contradiction names rule %q, want %q", contra.RuleName, "impossible")
	}
}

func TestRunProgram_DefaultFallback(t *testing.T) {
	s := NewSession(nil)
	program := ast.Program[ast.ConnectorSelection]{
		DefaultOutput: ast.ConnectorSelection{Priority: []dir.ConnectorChoice{{Connector: "adyen"}}},
		Rules: []ast.Rule[ast.ConnectorSelection]{
			mustRule(t, `us_traffic: [stripe] { billing_country = US }`),
		},
	}

	out, err := s.RunProgram(program, backend.Input{
		Payment: backend.PaymentInput{BillingCountry: ptr("US")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Value.Priority[0].Connector != "stripe" {
		t.Fatalf("US input routed to %s, want stripe", out.Value.Priority[0].Connector)
	}

	out, err = s.RunProgram(program, backend.Input{
		Payment: backend.PaymentInput{BillingCountry: ptr("CA")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Value.Priority[0].Connector != "adyen" {
		t.Fatalf("CA input routed to %s, want the adyen default", out.Value.Priority[0].Connector)
	}
}

func TestSeedExchangeRates_OnceThenConvert(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.ConvertCurrency("EUR", "USD", 100); !errors.Is(err, types.ErrRateUnavailable) {
		t.Fatalf("unseeded conversion err = %v, want ErrRateUnavailable", err)
	}

	rates, err := forex.NewExchangeRates("USD", map[string]forex.Rate{
		"EUR": {ToFactor: 1.10, FromFactor: 0.91},
	})
	if err != nil {
		t.Fatalf("new rates: %v", err)
	}
	if err := s.SeedExchangeRates(rates); err != nil {
		t.Fatalf("seed rates: %v", err)
	}
	if err := s.SeedExchangeRates(rates); !errors.Is(err, types.ErrAlreadySeeded) {
		t.Fatalf("second rate seed err = %v, want ErrAlreadySeeded", err)
	}

	got, err := s.ConvertCurrency("EUR", "USD", 1000)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 1100 {
		t.Fatalf("converted amount = %d, want 1100", got)
	}
}

func TestListValues(t *testing.T) {
	values, err := ListValues(dir.KeyCardNetwork)
	if err != nil {
		t.Fatalf("list values: %v", err)
	}
	if len(values) == 0 {
		t.Fatal("card network domain is empty")
	}

	if _, err := ListValues(dir.Key("bogus")); !errors.Is(err, types.ErrUnknownKey) {
		t.Fatalf("unknown key err = %v, want ErrUnknownKey", err)
	}
	if _, err := ListValues(dir.KeyCardBin); !errors.Is(err, types.ErrKeyHasNoVariants) {
		t.Fatalf("text key err = %v, want ErrKeyHasNoVariants", err)
	}

	connectors, err := ListValues(dir.KeyConnector)
	if err != nil {
		t.Fatalf("list connectors: %v", err)
	}
	if len(connectors) != len(dir.Connectors()) {
		t.Fatalf("connector value count = %d, want %d", len(connectors), len(dir.Connectors()))
	}
}

func TestListKeys_CoversVocabulary(t *testing.T) {
	keys := ListKeys()
	if len(keys) != len(dir.Keys()) {
		t.Fatalf("key count = %d, want %d", len(keys), len(dir.Keys()))
	}
}

func TestParseRuleText_RejectsUnknownOutputConnector(t *testing.T) {
	_, err := ParseRuleText(`r: [acme_pay] {}`)
	if err == nil {
		t.Fatal("rule with unknown output connector parsed without error")
	}
	if !errors.Is(err, types.ErrUnknownConnector) {
		t.Fatalf("err = %v, want ErrUnknownConnector", err)
	}
}

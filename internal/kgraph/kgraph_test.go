package kgraph

import (
	"errors"
	"testing"

	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/dir"
)

func enum(t *testing.T, key dir.Key, variant string) dir.Value {
	t.Helper()
	v, err := dir.NewEnumValue(key, variant)
	if err != nil {
		t.Fatalf("enum %s %s: %v", key, variant, err)
	}
	return v
}

func assertOK(t *testing.T, g *cgraph.Graph, ctx []cgraph.Assertion) {
	t.Helper()
	if err := g.PerformContextAnalysis(ctx, cgraph.NewMemoization(), cgraph.ScopeComplete); err != nil {
		t.Fatalf("context rejected: %v", err)
	}
}

func assertFails(t *testing.T, g *cgraph.Graph, ctx []cgraph.Assertion) {
	t.Helper()
	err := g.PerformContextAnalysis(ctx, cgraph.NewMemoization(), cgraph.ScopeComplete)
	var analysisErr *cgraph.AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("err = %v, want AnalysisError", err)
	}
}

func TestTruthGraph_SubtypeRequiresPaymentMethod(t *testing.T) {
	g, err := TruthGraph()
	if err != nil {
		t.Fatalf("truth graph: %v", err)
	}

	assertOK(t, g, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "wallet")},
		{Value: enum(t, dir.KeyWalletType, "apple_pay")},
	})
	assertFails(t, g, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "card")},
		{Value: enum(t, dir.KeyWalletType, "apple_pay")},
	})
}

func TestTruthGraph_InteracIsCanadian(t *testing.T) {
	g, err := TruthGraph()
	if err != nil {
		t.Fatalf("truth graph: %v", err)
	}

	assertOK(t, g, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "card")},
		{Value: enum(t, dir.KeyCardNetwork, "interac")},
		{Value: enum(t, dir.KeyBillingCountry, "CA")},
		{Value: enum(t, dir.KeyPaymentCurrency, "CAD")},
	})
	assertFails(t, g, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "card")},
		{Value: enum(t, dir.KeyCardNetwork, "interac")},
		{Value: enum(t, dir.KeyBillingCountry, "US")},
	})
}

func TestTruthGraph_MandateAttributesExcludeNonMandate(t *testing.T) {
	g, err := TruthGraph()
	if err != nil {
		t.Fatalf("truth graph: %v", err)
	}
	assertFails(t, g, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentType, "non_mandate")},
		{Value: enum(t, dir.KeyMandateType, "single_use")},
	})
}

func TestMerchantGraph_FilterEdges(t *testing.T) {
	connectors := []MerchantConnector{
		{Connector: "stripe", PaymentMethods: []string{"card"}},
		{Connector: "adyen", PaymentMethods: []string{"wallet"}},
		{Connector: "checkout", Disabled: true, PaymentMethods: []string{"card"}},
	}
	filters := FilterSet{
		ByChoice: map[dir.ConnectorChoice]CountryCurrencyFilter{
			{Connector: "stripe"}: {Countries: []string{"US", "GB"}},
		},
		Default: &CountryCurrencyFilter{Countries: []string{"US"}},
	}
	g, err := MerchantGraph(connectors, filters)
	if err != nil {
		t.Fatalf("merchant graph: %v", err)
	}

	stripe := cgraph.Assertion{Value: dir.NewConnectorValue(dir.ConnectorChoice{Connector: "stripe"})}
	adyen := cgraph.Assertion{Value: dir.NewConnectorValue(dir.ConnectorChoice{Connector: "adyen"})}
	card := cgraph.Assertion{Value: enum(t, dir.KeyPaymentMethod, "card")}
	wallet := cgraph.Assertion{Value: enum(t, dir.KeyPaymentMethod, "wallet")}
	us := cgraph.Assertion{Value: enum(t, dir.KeyBillingCountry, "US")}
	gb := cgraph.Assertion{Value: enum(t, dir.KeyBillingCountry, "GB")}

	assertOK(t, g, []cgraph.Assertion{card, us, stripe})
	assertOK(t, g, []cgraph.Assertion{card, gb, stripe})
	assertFails(t, g, []cgraph.Assertion{wallet, us, stripe})

	// adyen has no specific filter entry, so the default applies.
	assertOK(t, g, []cgraph.Assertion{wallet, us, adyen})
	assertFails(t, g, []cgraph.Assertion{wallet, gb, adyen})
}

func TestMerchantGraph_DisabledAccountContributesNothing(t *testing.T) {
	connectors := []MerchantConnector{
		{Connector: "checkout", Disabled: true, PaymentMethods: []string{"card"}},
	}
	g, err := MerchantGraph(connectors, FilterSet{})
	if err != nil {
		t.Fatalf("merchant graph: %v", err)
	}
	choice := dir.NewConnectorValue(dir.ConnectorChoice{Connector: "checkout"})
	if _, ok := g.NodeByValue(choice); ok {
		t.Fatal("disabled account produced a graph node")
	}
}

func TestMerchantGraph_RejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		connectors []MerchantConnector
	}{
		{
			name:       "unknown connector",
			connectors: []MerchantConnector{{Connector: "not_a_processor"}},
		},
		{
			name:       "empty payment method filter",
			connectors: []MerchantConnector{{Connector: "stripe", PaymentMethods: []string{}}},
		},
		{
			name:       "unknown payment method",
			connectors: []MerchantConnector{{Connector: "stripe", PaymentMethods: []string{"barter"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MerchantGraph(tt.connectors, FilterSet{}); err == nil {
				t.Fatal("bad configuration was accepted")
			}
		})
	}
}

func TestCombinedGraph_OverlayRespectsTruth(t *testing.T) {
	truth, err := TruthGraph()
	if err != nil {
		t.Fatalf("truth graph: %v", err)
	}
	overlay, err := MerchantGraph([]MerchantConnector{
		{Connector: "stripe", PaymentMethods: []string{"card"}},
	}, FilterSet{})
	if err != nil {
		t.Fatalf("merchant graph: %v", err)
	}
	combined, err := cgraph.Combine(truth, overlay)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}

	stripe := cgraph.Assertion{Value: dir.NewConnectorValue(dir.ConnectorChoice{Connector: "stripe"})}
	assertOK(t, combined, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "card")},
		{Value: enum(t, dir.KeyCardNetwork, "visa")},
		stripe,
	})
	assertFails(t, combined, []cgraph.Assertion{
		{Value: enum(t, dir.KeyPaymentMethod, "wallet")},
		{Value: enum(t, dir.KeyCardNetwork, "visa")},
	})
}

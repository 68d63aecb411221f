package kgraph

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/dir"
)

// MerchantGraph builds the overlay graph for one merchant's connector
// configuration. Each enabled account contributes a connector node that
// requires any-of its supported payment methods, countries, and
// currencies, for each dimension the configuration actually restricts.
// Edges are declared at normal strength: merchant configuration may not
// contradict hard domain facts.
func MerchantGraph(connectors []MerchantConnector, filters FilterSet) (*cgraph.Graph, error) {
	b := cgraph.NewBuilder()

	for _, mc := range connectors {
		if mc.Disabled {
			continue
		}
		if !mc.Connector.Valid() {
			return nil, fmt.Errorf("merchant connector %q: unknown connector", mc.Connector)
		}
		choice := mc.Choice()
		connNode := b.ValueNode(dir.NewConnectorValue(choice))

		if mc.PaymentMethods != nil {
			if err := requireAnyOf(b, connNode, choice, dir.KeyPaymentMethod, mc.PaymentMethods); err != nil {
				return nil, err
			}
		}

		filter, ok := filters.Lookup(choice)
		if !ok {
			continue
		}
		if filter.Countries != nil {
			if err := requireAnyOf(b, connNode, choice, dir.KeyBillingCountry, filter.Countries); err != nil {
				return nil, err
			}
		}
		if filter.Currencies != nil {
			if err := requireAnyOf(b, connNode, choice, dir.KeyPaymentCurrency, filter.Currencies); err != nil {
				return nil, err
			}
		}
	}

	return b.Build(), nil
}

// requireAnyOf adds a normal-strength edge making the connector node
// require at least one of the listed enum variants.
func requireAnyOf(b *cgraph.Builder, connNode cgraph.NodeID, choice dir.ConnectorChoice, key dir.Key, variants []string) error {
	if len(variants) == 0 {
		return fmt.Errorf("connector %s: empty %s filter leaves no way to route to it", choice, key)
	}
	members := make([]cgraph.NodeID, 0, len(variants))
	for _, variant := range variants {
		v, err := dir.NewEnumValue(key, variant)
		if err != nil {
			return fmt.Errorf("connector %s: %w", choice, err)
		}
		members = append(members, b.ValueNode(v))
	}
	var pred cgraph.NodeID
	if len(members) == 1 {
		pred = members[0]
	} else {
		pred = b.AnyOfNode(members...)
	}
	return b.AddEdge(pred, connNode, cgraph.Normal, cgraph.Positive)
}

// Package kgraph assembles constraint graphs from domain knowledge and
// merchant configuration. The fixed truth graph carries payment-domain
// facts that hold for every merchant; the merchant graph overlays the
// connectors a particular merchant has enabled and the country, currency,
// and payment-method filters each of them supports. The two are combined
// once at seeding time and the combined graph then backs every connector
// elimination decision.
package kgraph

import "github.com/meridianpay/switchyard/internal/dir"

// MerchantConnector is one connector account a merchant has configured.
type MerchantConnector struct {
	// Connector is the processor this account integrates with.
	Connector dir.Connector
	// SubLabel distinguishes multiple accounts on the same processor.
	SubLabel string
	// Disabled accounts contribute nothing to the overlay.
	Disabled bool
	// PaymentMethods lists the payment methods the account accepts. An
	// empty list means the account accepts any payment method.
	PaymentMethods []string
}

// Choice returns the connector choice node identity for this account.
func (mc MerchantConnector) Choice() dir.ConnectorChoice {
	return dir.ConnectorChoice{Connector: mc.Connector, SubLabel: mc.SubLabel}
}

// CountryCurrencyFilter restricts where a connector account can process.
// Nil slices mean unrestricted; empty non-nil slices are rejected at
// graph construction since they would make the account unusable.
type CountryCurrencyFilter struct {
	Countries  []string
	Currencies []string
}

// FilterSet maps connector accounts to their processing filters, with an
// optional default applied to accounts that have no specific entry.
type FilterSet struct {
	ByChoice map[dir.ConnectorChoice]CountryCurrencyFilter
	Default  *CountryCurrencyFilter
}

// Lookup resolves the filter for one account.
func (fs FilterSet) Lookup(choice dir.ConnectorChoice) (CountryCurrencyFilter, bool) {
	if fs.ByChoice != nil {
		if f, ok := fs.ByChoice[choice]; ok {
			return f, true
		}
	}
	if fs.Default != nil {
		return *fs.Default, true
	}
	return CountryCurrencyFilter{}, false
}

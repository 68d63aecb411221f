package kgraph

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/meridianpay/switchyard/internal/dir"
)

// yamlSnapshot is the document shape for merchant connector snapshots.
// Each entry carries its account identity and filters inline; a document
// level default filter applies to accounts without their own countries
// or currencies.
type yamlSnapshot struct {
	Connectors    []yamlConnector `yaml:"connectors"`
	DefaultFilter *yamlFilter     `yaml:"default_filter,omitempty"`
}

type yamlConnector struct {
	Connector      string   `yaml:"connector"`
	SubLabel       string   `yaml:"sub_label,omitempty"`
	Disabled       bool     `yaml:"disabled,omitempty"`
	PaymentMethods []string `yaml:"payment_methods,omitempty"`
	Countries      []string `yaml:"countries,omitempty"`
	Currencies     []string `yaml:"currencies,omitempty"`
}

type yamlFilter struct {
	Countries  []string `yaml:"countries,omitempty"`
	Currencies []string `yaml:"currencies,omitempty"`
}

// ParseSnapshotYAML decodes a merchant connector snapshot document.
// Connector names are validated here; filter variants are validated when
// the graph is built.
func ParseSnapshotYAML(data []byte) ([]MerchantConnector, FilterSet, error) {
	var doc yamlSnapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, FilterSet{}, fmt.Errorf("parsing merchant snapshot: %w", err)
	}

	connectors := make([]MerchantConnector, 0, len(doc.Connectors))
	filters := FilterSet{}
	for _, entry := range doc.Connectors {
		name, err := dir.ParseConnector(entry.Connector)
		if err != nil {
			return nil, FilterSet{}, fmt.Errorf("merchant snapshot: %w", err)
		}
		mc := MerchantConnector{
			Connector:      name,
			SubLabel:       entry.SubLabel,
			Disabled:       entry.Disabled,
			PaymentMethods: entry.PaymentMethods,
		}
		connectors = append(connectors, mc)

		if entry.Countries != nil || entry.Currencies != nil {
			if filters.ByChoice == nil {
				filters.ByChoice = make(map[dir.ConnectorChoice]CountryCurrencyFilter)
			}
			filters.ByChoice[mc.Choice()] = CountryCurrencyFilter{
				Countries:  entry.Countries,
				Currencies: entry.Currencies,
			}
		}
	}
	if doc.DefaultFilter != nil {
		filters.Default = &CountryCurrencyFilter{
			Countries:  doc.DefaultFilter.Countries,
			Currencies: doc.DefaultFilter.Currencies,
		}
	}
	return connectors, filters, nil
}

// MarshalSnapshotYAML encodes a merchant connector snapshot document.
func MarshalSnapshotYAML(connectors []MerchantConnector, filters FilterSet) ([]byte, error) {
	doc := yamlSnapshot{}
	for _, mc := range connectors {
		entry := yamlConnector{
			Connector:      string(mc.Connector),
			SubLabel:       mc.SubLabel,
			Disabled:       mc.Disabled,
			PaymentMethods: mc.PaymentMethods,
		}
		if filters.ByChoice != nil {
			if f, ok := filters.ByChoice[mc.Choice()]; ok {
				entry.Countries = f.Countries
				entry.Currencies = f.Currencies
			}
		}
		doc.Connectors = append(doc.Connectors, entry)
	}
	if filters.Default != nil {
		doc.DefaultFilter = &yamlFilter{
			Countries:  filters.Default.Countries,
			Currencies: filters.Default.Currencies,
		}
	}
	return yaml.Marshal(doc)
}

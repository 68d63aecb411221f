package forex

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlRates struct {
	Base  string              `yaml:"base"`
	Rates map[string]yamlRate `yaml:"rates"`
}

type yamlRate struct {
	To   float64 `yaml:"to_factor"`
	From float64 `yaml:"from_factor"`
}

// ParseRatesYAML decodes an exchange-rate table document:
//
//	base: USD
//	rates:
//	  EUR: {to_factor: 1.10, from_factor: 0.91}
func ParseRatesYAML(data []byte) (*ExchangeRates, error) {
	var doc yamlRates
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rate table: %w", err)
	}
	rates := make(map[string]Rate, len(doc.Rates))
	for currency, r := range doc.Rates {
		rates[currency] = Rate{ToFactor: r.To, FromFactor: r.From}
	}
	return NewExchangeRates(doc.Base, rates)
}

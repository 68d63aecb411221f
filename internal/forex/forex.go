// Package forex converts minor-unit amounts between currencies through a
// base-currency rate table. The table is an immutable snapshot supplied
// at seeding time; keeping it fresh is the caller's responsibility.
package forex

import (
	"fmt"
	"math"

	"github.com/meridianpay/switchyard/internal/types"
)

// Rate holds the conversion factors between one currency and the table's
// base currency. ToFactor converts an amount of this currency into base
// units; FromFactor converts base units into this currency.
type Rate struct {
	ToFactor   float64
	FromFactor float64
}

// ExchangeRates is a snapshot of conversion factors anchored on one base
// currency. Conversions between two non-base currencies hop through the
// base.
type ExchangeRates struct {
	Base  string
	Rates map[string]Rate
}

// NewExchangeRates validates a rate snapshot. Factors must be positive;
// a zero or negative factor would make conversions produce nonsense
// amounts silently.
func NewExchangeRates(base string, rates map[string]Rate) (*ExchangeRates, error) {
	if base == "" {
		return nil, fmt.Errorf("exchange rates: empty base currency")
	}
	for currency, r := range rates {
		if r.ToFactor <= 0 || r.FromFactor <= 0 {
			return nil, fmt.Errorf("exchange rates: non-positive factor for %s", currency)
		}
	}
	return &ExchangeRates{Base: base, Rates: rates}, nil
}

// toBase converts a minor-unit amount of currency into base units.
func (er *ExchangeRates) toBase(currency string, amount int64) (float64, error) {
	if currency == er.Base {
		return float64(amount), nil
	}
	r, ok := er.Rates[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no rate from %s to base %s", types.ErrRateUnavailable, currency, er.Base)
	}
	return float64(amount) * r.ToFactor, nil
}

// fromBase converts an amount of base units into minor units of currency.
func (er *ExchangeRates) fromBase(currency string, amount float64) (float64, error) {
	if currency == er.Base {
		return amount, nil
	}
	r, ok := er.Rates[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no rate from base %s to %s", types.ErrRateUnavailable, er.Base, currency)
	}
	return amount * r.FromFactor, nil
}

// Convert translates a minor-unit amount from one currency to another,
// rounding half away from zero. Converting a currency to itself is the
// identity regardless of table contents.
func Convert(rates *ExchangeRates, from, to string, minorAmount int64) (int64, error) {
	if rates == nil {
		return 0, fmt.Errorf("%w: no rate table seeded", types.ErrRateUnavailable)
	}
	if from == to {
		return minorAmount, nil
	}
	base, err := rates.toBase(from, minorAmount)
	if err != nil {
		return 0, err
	}
	out, err := rates.fromBase(to, base)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(out)), nil
}

package dir

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/types"
)

// Connector identifies a payment connector integration.
type Connector string

// connectorNames is the closed set of known connector identifiers.
// Connector behavior differences are resolved through capability lookup
// tables (see internal/kgraph), not per-connector dispatch.
var connectorNames = []Connector{
	"adyen", "airwallex", "authorizedotnet", "bankofamerica", "bluesnap",
	"braintree", "checkout", "cybersource", "fiserv", "globalpay", "klarna",
	"mollie", "multisafepay", "nuvei", "paypal", "payu", "rapyd", "shift4",
	"stripe", "trustpay", "worldline", "worldpay", "zen",
}

var connectorSet = func() map[Connector]struct{} {
	set := make(map[Connector]struct{}, len(connectorNames))
	for _, c := range connectorNames {
		set[c] = struct{}{}
	}
	return set
}()

// Connectors returns every known connector identifier in stable order.
func Connectors() []Connector {
	out := make([]Connector, len(connectorNames))
	copy(out, connectorNames)
	return out
}

// Valid reports whether the connector is in the known set.
func (c Connector) Valid() bool {
	_, ok := connectorSet[c]
	return ok
}

// ParseConnector validates a connector name against the known set.
func ParseConnector(s string) (Connector, error) {
	c := Connector(s)
	if _, ok := connectorSet[c]; !ok {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownConnector, s)
	}
	return c, nil
}

// ConnectorChoice is a connector plus an optional disambiguating sub-label.
// It is both a directory value payload and the output type of routing
// decisions. Comparable so choices can be set members and map keys.
type ConnectorChoice struct {
	Connector Connector
	SubLabel  string
}

// String renders the choice in `connector` or `connector:sub_label` form.
func (c ConnectorChoice) String() string {
	if c.SubLabel == "" {
		return string(c.Connector)
	}
	return string(c.Connector) + ":" + c.SubLabel
}

// Package dir defines the canonical typed vocabulary of routing attributes:
// the closed set of directory keys, the concrete values each key admits, and
// the connector identifiers used as routing outputs.
//
// The vocabulary is compiled in and never mutated at runtime. Values are
// comparable structs so they can serve directly as constraint graph nodes
// and set members.
package dir

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/types"
)

// Key identifies one routing attribute category. The surface spelling of a
// key in rule text is its string value.
type Key string

// The closed set of directory keys.
const (
	KeyPaymentMethod         Key = "payment_method"
	KeyCardNetwork           Key = "card_network"
	KeyCardType              Key = "card_type"
	KeyPayLaterType          Key = "pay_later_type"
	KeyWalletType            Key = "wallet_type"
	KeyBankRedirectType      Key = "bank_redirect_type"
	KeyBankDebitType         Key = "bank_debit_type"
	KeyBankTransferType      Key = "bank_transfer_type"
	KeyUpiType               Key = "upi_type"
	KeyRewardType            Key = "reward_type"
	KeyCryptoType            Key = "crypto_type"
	KeyGiftCardType          Key = "gift_card_type"
	KeyVoucherType           Key = "voucher_type"
	KeyCardRedirectType      Key = "card_redirect_type"
	KeyAuthenticationType    Key = "authentication_type"
	KeyCaptureMethod         Key = "capture_method"
	KeyPaymentCurrency       Key = "payment_currency"
	KeyBillingCountry        Key = "billing_country"
	KeyBusinessCountry       Key = "business_country"
	KeySetupFutureUsage      Key = "setup_future_usage"
	KeyPaymentType           Key = "payment_type"
	KeyMandateType           Key = "mandate_type"
	KeyMandateAcceptanceType Key = "mandate_acceptance_type"
	KeyPaymentAmount         Key = "payment_amount"
	KeyBusinessLabel         Key = "business_label"
	KeyCardBin               Key = "card_bin"
	KeyMetadata              Key = "metadata"
	KeyConnector             Key = "connector"
)

// ValueKind describes the payload shape a key's values carry.
type ValueKind int

const (
	KindEnum ValueKind = iota
	KindText
	KindNumber
	KindMetadata
	KindConnector
)

// String returns the display name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case KindEnum:
		return "enum_variant"
	case KindText:
		return "str_value"
	case KindNumber:
		return "number"
	case KindMetadata:
		return "metadata_value"
	case KindConnector:
		return "connector"
	default:
		return "unknown"
	}
}

// keyInfo carries per-key tooling metadata: payload kind, display category
// for grouping in authoring UIs, and a one-line description.
type keyInfo struct {
	kind        ValueKind
	category    string
	description string
}

var keyRegistry = map[Key]keyInfo{
	KeyPaymentMethod:         {KindEnum, "Payment Methods", "Supported payment methods for a payment attempt"},
	KeyCardNetwork:           {KindEnum, "Payment Method Types", "Card network used for a card payment"},
	KeyCardType:              {KindEnum, "Payment Method Types", "Credit or debit card type"},
	KeyPayLaterType:          {KindEnum, "Payment Method Types", "Buy-now-pay-later provider"},
	KeyWalletType:            {KindEnum, "Payment Method Types", "Digital wallet provider"},
	KeyBankRedirectType:      {KindEnum, "Payment Method Types", "Bank redirect scheme"},
	KeyBankDebitType:         {KindEnum, "Payment Method Types", "Direct bank debit scheme"},
	KeyBankTransferType:      {KindEnum, "Payment Method Types", "Bank transfer scheme"},
	KeyUpiType:               {KindEnum, "Payment Method Types", "UPI flow used for the payment"},
	KeyRewardType:            {KindEnum, "Payment Method Types", "Reward redemption type"},
	KeyCryptoType:            {KindEnum, "Payment Method Types", "Cryptocurrency payment type"},
	KeyGiftCardType:          {KindEnum, "Payment Method Types", "Gift card provider"},
	KeyVoucherType:           {KindEnum, "Payment Method Types", "Cash voucher provider"},
	KeyCardRedirectType:      {KindEnum, "Payment Method Types", "Card redirect scheme"},
	KeyAuthenticationType:    {KindEnum, "Payments", "Whether 3DS authentication is performed"},
	KeyCaptureMethod:         {KindEnum, "Payments", "Capture method for the payment"},
	KeyPaymentCurrency:       {KindEnum, "Payments", "Currency of the payment attempt"},
	KeyBillingCountry:        {KindEnum, "Payments", "Country of the billing address"},
	KeyBusinessCountry:       {KindEnum, "Payments", "Country the merchant business operates from"},
	KeySetupFutureUsage:      {KindEnum, "Payments", "Whether the instrument is stored for future use"},
	KeyPaymentType:           {KindEnum, "Mandates", "Mandate relationship of the payment"},
	KeyMandateType:           {KindEnum, "Mandates", "Single-use or multi-use mandate"},
	KeyMandateAcceptanceType: {KindEnum, "Mandates", "How mandate acceptance was collected"},
	KeyPaymentAmount:         {KindNumber, "Payments", "Payment amount in minor currency units"},
	KeyBusinessLabel:         {KindText, "Payments", "Merchant-defined business label"},
	KeyCardBin:               {KindText, "Payment Method Types", "Leading digits of the card number"},
	KeyMetadata:              {KindMetadata, "Metadata", "Merchant-supplied metadata key-value pair"},
	KeyConnector:             {KindConnector, "Payments", "Payment connector candidate"},
}

// keyOrder fixes the iteration order of Keys() independently of map layout.
var keyOrder = []Key{
	KeyPaymentMethod, KeyCardNetwork, KeyCardType, KeyPayLaterType,
	KeyWalletType, KeyBankRedirectType, KeyBankDebitType, KeyBankTransferType,
	KeyUpiType, KeyRewardType, KeyCryptoType, KeyGiftCardType, KeyVoucherType,
	KeyCardRedirectType, KeyAuthenticationType, KeyCaptureMethod,
	KeyPaymentCurrency, KeyBillingCountry, KeyBusinessCountry,
	KeySetupFutureUsage, KeyPaymentType, KeyMandateType,
	KeyMandateAcceptanceType, KeyPaymentAmount, KeyBusinessLabel, KeyCardBin,
	KeyMetadata, KeyConnector,
}

// Keys returns every directory key in stable declaration order.
func Keys() []Key {
	out := make([]Key, len(keyOrder))
	copy(out, keyOrder)
	return out
}

// ParseKey validates a surface identifier against the closed key set.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if _, ok := keyRegistry[k]; !ok {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownKey, s)
	}
	return k, nil
}

// Valid reports whether k is part of the closed key set.
func (k Key) Valid() bool {
	_, ok := keyRegistry[k]
	return ok
}

// Kind returns the payload shape of values for this key.
func (k Key) Kind() ValueKind {
	return keyRegistry[k].kind
}

// Category returns the display category for authoring tools.
func (k Key) Category() string {
	return keyRegistry[k].category
}

// Description returns the one-line description for authoring tools.
func (k Key) Description() string {
	return keyRegistry[k].description
}

// MultiValued reports whether a key admits multiple simultaneous
// assertions within one conjunctive context. Connector carries parallel
// candidates during elimination analysis; metadata pairs are independent;
// amount refinements describe ranges rather than points.
func (k Key) MultiValued() bool {
	switch k {
	case KeyConnector, KeyMetadata, KeyPaymentAmount:
		return true
	default:
		return false
	}
}

// Variants returns the enumerated value domain of an enum-kinded key.
// Non-enum keys (amounts, labels, metadata, connector) have no enumerable
// variants and return ErrKeyHasNoVariants.
func Variants(k Key) ([]string, error) {
	info, ok := keyRegistry[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKey, string(k))
	}
	if info.kind != KindEnum {
		return nil, fmt.Errorf("%w: %q", types.ErrKeyHasNoVariants, string(k))
	}
	domain := enumDomains[k]
	out := make([]string, len(domain))
	copy(out, domain)
	return out, nil
}

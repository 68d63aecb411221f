// Package backend evaluates lowered routing programs against concrete
// transaction inputs. The interpreter walks each rule's guard directly
// over the input attributes; it does no context expansion and no graph
// analysis, so it is the cheap per-payment path.
package backend

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/dir"
	"github.com/meridianpay/switchyard/internal/types"
)

// Input is a snapshot of one payment attempt. Fields are pointers so the
// interpreter can tell an absent attribute from a zero value: a guard
// that references an absent attribute fails the whole evaluation rather
// than silently skipping the rule.
type Input struct {
	Payment       PaymentInput `json:"payment"`
	PaymentMethod MethodInput  `json:"payment_method"`
	Mandate       MandateInput `json:"mandate"`

	// Metadata holds merchant-supplied key-value pairs referenced by
	// metadata guards.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Connector is set when a program is evaluated after a routing
	// decision has been made, for guards that branch on the chosen
	// connector.
	Connector *dir.ConnectorChoice `json:"connector,omitempty"`
}

// PaymentInput carries the payment-level attributes.
type PaymentInput struct {
	Amount             *int64  `json:"amount,omitempty"`
	Currency           *string `json:"currency,omitempty"`
	BillingCountry     *string `json:"billing_country,omitempty"`
	BusinessCountry    *string `json:"business_country,omitempty"`
	CaptureMethod      *string `json:"capture_method,omitempty"`
	AuthenticationType *string `json:"authentication_type,omitempty"`
	SetupFutureUsage   *string `json:"setup_future_usage,omitempty"`
	BusinessLabel      *string `json:"business_label,omitempty"`
}

// MethodInput carries the payment-method attributes. Only the subtype
// matching the selected method is expected to be set.
type MethodInput struct {
	PaymentMethod    *string `json:"payment_method,omitempty"`
	CardNetwork      *string `json:"card_network,omitempty"`
	CardType         *string `json:"card_type,omitempty"`
	CardBin          *string `json:"card_bin,omitempty"`
	PayLaterType     *string `json:"pay_later_type,omitempty"`
	WalletType       *string `json:"wallet_type,omitempty"`
	BankRedirectType *string `json:"bank_redirect_type,omitempty"`
	BankDebitType    *string `json:"bank_debit_type,omitempty"`
	BankTransferType *string `json:"bank_transfer_type,omitempty"`
	UpiType          *string `json:"upi_type,omitempty"`
	RewardType       *string `json:"reward_type,omitempty"`
	CryptoType       *string `json:"crypto_type,omitempty"`
	GiftCardType     *string `json:"gift_card_type,omitempty"`
	VoucherType      *string `json:"voucher_type,omitempty"`
	CardRedirectType *string `json:"card_redirect_type,omitempty"`
}

// MandateInput carries the mandate attributes.
type MandateInput struct {
	PaymentType    *string `json:"payment_type,omitempty"`
	MandateType    *string `json:"mandate_type,omitempty"`
	AcceptanceType *string `json:"acceptance_type,omitempty"`
}

// attribute resolves the textual attribute for an enum or text key.
// A nil result means the input does not carry the attribute.
func (in *Input) attribute(key dir.Key) *string {
	switch key {
	case dir.KeyPaymentMethod:
		return in.PaymentMethod.PaymentMethod
	case dir.KeyCardNetwork:
		return in.PaymentMethod.CardNetwork
	case dir.KeyCardType:
		return in.PaymentMethod.CardType
	case dir.KeyCardBin:
		return in.PaymentMethod.CardBin
	case dir.KeyPayLaterType:
		return in.PaymentMethod.PayLaterType
	case dir.KeyWalletType:
		return in.PaymentMethod.WalletType
	case dir.KeyBankRedirectType:
		return in.PaymentMethod.BankRedirectType
	case dir.KeyBankDebitType:
		return in.PaymentMethod.BankDebitType
	case dir.KeyBankTransferType:
		return in.PaymentMethod.BankTransferType
	case dir.KeyUpiType:
		return in.PaymentMethod.UpiType
	case dir.KeyRewardType:
		return in.PaymentMethod.RewardType
	case dir.KeyCryptoType:
		return in.PaymentMethod.CryptoType
	case dir.KeyGiftCardType:
		return in.PaymentMethod.GiftCardType
	case dir.KeyVoucherType:
		return in.PaymentMethod.VoucherType
	case dir.KeyCardRedirectType:
		return in.PaymentMethod.CardRedirectType
	case dir.KeyAuthenticationType:
		return in.Payment.AuthenticationType
	case dir.KeyCaptureMethod:
		return in.Payment.CaptureMethod
	case dir.KeyPaymentCurrency:
		return in.Payment.Currency
	case dir.KeyBillingCountry:
		return in.Payment.BillingCountry
	case dir.KeyBusinessCountry:
		return in.Payment.BusinessCountry
	case dir.KeySetupFutureUsage:
		return in.Payment.SetupFutureUsage
	case dir.KeyBusinessLabel:
		return in.Payment.BusinessLabel
	case dir.KeyPaymentType:
		return in.Mandate.PaymentType
	case dir.KeyMandateType:
		return in.Mandate.MandateType
	case dir.KeyMandateAcceptanceType:
		return in.Mandate.AcceptanceType
	default:
		return nil
	}
}

// ExecutionError reports a guard that referenced an attribute the input
// does not carry. Per the propagation policy this fails the evaluation,
// not just the rule, so an incomplete input cannot silently fall through
// to a default the policy author never intended.
type ExecutionError struct {
	RuleName string
	Key      dir.Key
	MetaKey  string
}

func (e *ExecutionError) Error() string {
	attr := string(e.Key)
	if e.MetaKey != "" {
		attr += "." + e.MetaKey
	}
	return fmt.Sprintf("rule %q references %s, which the input does not carry", e.RuleName, attr)
}

func (e *ExecutionError) Unwrap() error {
	return types.ErrMissingInput
}

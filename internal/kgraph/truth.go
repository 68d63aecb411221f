package kgraph

import (
	"fmt"

	"github.com/meridianpay/switchyard/internal/cgraph"
	"github.com/meridianpay/switchyard/internal/dir"
)

// methodSubtypes maps each payment-method subtype key to the payment
// method its variants presuppose. Asserting a wallet type in a context
// that does not pay by wallet is a contradiction, not a near-miss.
var methodSubtypes = map[dir.Key]string{
	dir.KeyCardNetwork:      "card",
	dir.KeyCardType:         "card",
	dir.KeyPayLaterType:     "pay_later",
	dir.KeyWalletType:       "wallet",
	dir.KeyBankRedirectType: "bank_redirect",
	dir.KeyBankDebitType:    "bank_debit",
	dir.KeyBankTransferType: "bank_transfer",
	dir.KeyUpiType:          "upi",
	dir.KeyRewardType:       "reward",
	dir.KeyCryptoType:       "crypto",
	dir.KeyGiftCardType:     "gift_card",
	dir.KeyVoucherType:      "voucher",
	dir.KeyCardRedirectType: "card_redirect",
}

// TruthGraph builds the fixed payment-domain fact base. These facts hold
// for every merchant and are declared hard, so no merchant overlay can
// override them.
func TruthGraph() (*cgraph.Graph, error) {
	b := cgraph.NewBuilder()

	enumNode := func(key dir.Key, variant string) (cgraph.NodeID, error) {
		v, err := dir.NewEnumValue(key, variant)
		if err != nil {
			return 0, err
		}
		return b.ValueNode(v), nil
	}

	// Every payment-method subtype variant requires its payment method.
	for key, method := range methodSubtypes {
		methodNode, err := enumNode(dir.KeyPaymentMethod, method)
		if err != nil {
			return nil, err
		}
		variants, err := dir.Variants(key)
		if err != nil {
			return nil, err
		}
		for _, variant := range variants {
			subtype, err := enumNode(key, variant)
			if err != nil {
				return nil, err
			}
			if err := b.AddEdge(methodNode, subtype, cgraph.Hard, cgraph.Positive); err != nil {
				return nil, fmt.Errorf("linking %s %s: %w", key, variant, err)
			}
		}
	}

	// Interac is a Canadian domestic network.
	interac, err := enumNode(dir.KeyCardNetwork, "interac")
	if err != nil {
		return nil, err
	}
	caCountry, err := enumNode(dir.KeyBillingCountry, "CA")
	if err != nil {
		return nil, err
	}
	cad, err := enumNode(dir.KeyPaymentCurrency, "CAD")
	if err != nil {
		return nil, err
	}
	if err := b.AddEdge(caCountry, interac, cgraph.Hard, cgraph.Positive); err != nil {
		return nil, err
	}
	if err := b.AddEdge(cad, interac, cgraph.Hard, cgraph.Positive); err != nil {
		return nil, err
	}

	// UPI settles in Indian rupees only.
	inr, err := enumNode(dir.KeyPaymentCurrency, "INR")
	if err != nil {
		return nil, err
	}
	upiVariants, err := dir.Variants(dir.KeyUpiType)
	if err != nil {
		return nil, err
	}
	for _, variant := range upiVariants {
		upi, err := enumNode(dir.KeyUpiType, variant)
		if err != nil {
			return nil, err
		}
		if err := b.AddEdge(inr, upi, cgraph.Hard, cgraph.Positive); err != nil {
			return nil, err
		}
	}

	// Mandate attributes only make sense on mandate payments.
	nonMandate, err := enumNode(dir.KeyPaymentType, "non_mandate")
	if err != nil {
		return nil, err
	}
	for _, key := range []dir.Key{dir.KeyMandateType, dir.KeyMandateAcceptanceType} {
		variants, err := dir.Variants(key)
		if err != nil {
			return nil, err
		}
		for _, variant := range variants {
			node, err := enumNode(key, variant)
			if err != nil {
				return nil, err
			}
			if err := b.AddEdge(nonMandate, node, cgraph.Hard, cgraph.Negative); err != nil {
				return nil, err
			}
		}
	}

	// Storing an instrument for later off-session use implies a mandate
	// relationship, so single-use mandates cannot be on-session setups.
	onSession, err := enumNode(dir.KeySetupFutureUsage, "on_session")
	if err != nil {
		return nil, err
	}
	setupMandate, err := enumNode(dir.KeyPaymentType, "setup_mandate")
	if err != nil {
		return nil, err
	}
	if err := b.AddEdge(onSession, setupMandate, cgraph.Hard, cgraph.Negative); err != nil {
		return nil, err
	}

	return b.Build(), nil
}

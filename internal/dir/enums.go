package dir

// Enumerated value domains for enum-kinded keys. Variant spellings follow
// the snake_case wire format used by merchant configuration payloads.

var paymentMethods = []string{
	"card", "card_redirect", "pay_later", "wallet", "bank_redirect",
	"bank_transfer", "crypto", "bank_debit", "reward", "upi", "voucher",
	"gift_card",
}

var cardNetworks = []string{
	"visa", "mastercard", "amex", "jcb", "diners_club", "discover",
	"cartes_bancaires", "union_pay", "interac", "rupay", "maestro",
}

var cardTypes = []string{"credit", "debit"}

var payLaterTypes = []string{
	"affirm", "afterpay_clearpay", "klarna", "pay_bright", "walley", "atome",
}

var walletTypes = []string{
	"apple_pay", "google_pay", "paypal", "ali_pay", "we_chat_pay", "mb_way",
	"samsung_pay", "twint", "vipps", "dana", "momo", "cashapp",
}

var bankRedirectTypes = []string{
	"ideal", "giropay", "sofort", "eps", "blik", "przelewy24",
	"bancontact_card", "trustly", "online_banking_fpx", "open_banking_uk",
}

var bankDebitTypes = []string{"ach", "bacs", "becs", "sepa"}

var bankTransferTypes = []string{
	"ach", "bacs", "sepa", "multibanco", "pix", "permata_bank_transfer",
}

var upiTypes = []string{"upi_collect", "upi_intent"}

var rewardTypes = []string{"classic_reward", "evoucher"}

var cryptoTypes = []string{"crypto_currency"}

var giftCardTypes = []string{"givex", "pay_safe_card"}

var voucherTypes = []string{
	"boleto", "oxxo", "alfamart", "indomaret", "seven_eleven",
}

var cardRedirectTypes = []string{"benefit", "knet", "momo_atm", "card_redirect"}

var authenticationTypes = []string{"three_ds", "no_three_ds"}

var captureMethods = []string{"automatic", "manual", "manual_multiple", "scheduled"}

var currencies = []string{
	"AED", "AUD", "BRL", "CAD", "CHF", "CNY", "DKK", "EUR", "GBP", "HKD",
	"INR", "JPY", "MXN", "MYR", "NOK", "NZD", "PLN", "SEK", "SGD", "USD",
}

var countries = []string{
	"AE", "AT", "AU", "BE", "BR", "CA", "CH", "CN", "DE", "DK", "ES", "FI",
	"FR", "GB", "HK", "IE", "IN", "IT", "JP", "MX", "MY", "NL", "NO", "NZ",
	"PL", "PT", "SE", "SG", "US",
}

var setupFutureUsages = []string{"on_session", "off_session"}

var paymentTypes = []string{
	"setup_mandate", "non_mandate", "new_mandate", "update_mandate",
}

var mandateTypes = []string{"single_use", "multi_use"}

var mandateAcceptanceTypes = []string{"online", "offline"}

// enumDomains maps each enum-kinded key to its closed variant list.
var enumDomains = map[Key][]string{
	KeyPaymentMethod:         paymentMethods,
	KeyCardNetwork:           cardNetworks,
	KeyCardType:              cardTypes,
	KeyPayLaterType:          payLaterTypes,
	KeyWalletType:            walletTypes,
	KeyBankRedirectType:      bankRedirectTypes,
	KeyBankDebitType:         bankDebitTypes,
	KeyBankTransferType:      bankTransferTypes,
	KeyUpiType:               upiTypes,
	KeyRewardType:            rewardTypes,
	KeyCryptoType:            cryptoTypes,
	KeyGiftCardType:          giftCardTypes,
	KeyVoucherType:           voucherTypes,
	KeyCardRedirectType:      cardRedirectTypes,
	KeyAuthenticationType:    authenticationTypes,
	KeyCaptureMethod:         captureMethods,
	KeyPaymentCurrency:       currencies,
	KeyBillingCountry:        countries,
	KeyBusinessCountry:       countries,
	KeySetupFutureUsage:      setupFutureUsages,
	KeyPaymentType:           paymentTypes,
	KeyMandateType:           mandateTypes,
	KeyMandateAcceptanceType: mandateAcceptanceTypes,
}

// variantSets provides O(1) membership checks for literal validation.
var variantSets = func() map[Key]map[string]struct{} {
	sets := make(map[Key]map[string]struct{}, len(enumDomains))
	for key, domain := range enumDomains {
		set := make(map[string]struct{}, len(domain))
		for _, v := range domain {
			set[v] = struct{}{}
		}
		sets[key] = set
	}
	return sets
}()

// HasVariant reports whether variant is in the value domain of key.
// Always false for non-enum keys.
func HasVariant(key Key, variant string) bool {
	set, ok := variantSets[key]
	if !ok {
		return false
	}
	_, ok = set[variant]
	return ok
}

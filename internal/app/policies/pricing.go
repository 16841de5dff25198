package policies

import (
	domainpricing "rentshare/internal/domain/pricing"
)

// Pricing is the injected discount configuration.
type Pricing struct {
	Tiers    []domainpricing.DiscountTier
	Currency string
}

// CurrencyFor prefers the item's own currency.
func (p Pricing) CurrencyFor(itemCurrency string) string {
	if itemCurrency != "" {
		return itemCurrency
	}
	return p.Currency
}

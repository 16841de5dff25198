package dto

import (
	domainavailability "rentshare/internal/domain/availability"
	domainpricing "rentshare/internal/domain/pricing"
)

type CalendarDay struct {
	Date  string `json:"date"`
	State string `json:"state"`
}

type Calendar struct {
	ItemID string        `json:"item_id"`
	Today  string        `json:"today"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Days   []CalendarDay `json:"days"`
}

// Selection mirrors the two-click range picker; To is empty while only the anchor is set.
type Selection struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type DiscountTier struct {
	MinDays    int     `json:"min_days"`
	Percentage float64 `json:"percentage"`
}

type Quote struct {
	ItemID         string        `json:"item_id"`
	Selection      Selection     `json:"selection"`
	Selectable     bool          `json:"selectable"`
	Days           int           `json:"days"`
	DailyRate      MoneyDTO      `json:"daily_rate"`
	BasePrice      MoneyDTO      `json:"base_price"`
	Tier           *DiscountTier `json:"tier,omitempty"`
	DiscountAmount MoneyDTO      `json:"discount_amount"`
	FinalPrice     MoneyDTO      `json:"final_price"`
}

// SelectionResult pairs the new selection with its price so the UI can redraw in one round trip.
type SelectionResult struct {
	Selection Selection `json:"selection"`
	Quote     Quote     `json:"quote"`
}

func MapDays(days []domainavailability.Day) []CalendarDay {
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, CalendarDay{Date: d.Date.String(), State: string(d.State)})
	}
	return out
}

func MapSelection(sel domainavailability.Selection) Selection {
	return Selection{From: sel.From.String(), To: sel.To.String()}
}

func MapQuote(itemID string, sel domainavailability.Selection, selectable bool, b domainpricing.Breakdown, currency string) Quote {
	base, discount, final := b.Money(currency)
	q := Quote{
		ItemID:         itemID,
		Selection:      MapSelection(sel),
		Selectable:     selectable,
		Days:           b.Days,
		DailyRate:      MoneyDTO{Amount: b.DailyRate, Currency: currency},
		BasePrice:      MapMoney(base),
		DiscountAmount: MapMoney(discount),
		FinalPrice:     MapMoney(final),
	}
	if b.Tier != nil {
		q.Tier = &DiscountTier{MinDays: b.Tier.MinDays, Percentage: b.Tier.Percentage}
	}
	return q
}

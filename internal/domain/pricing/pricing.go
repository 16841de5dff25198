package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"rentshare/internal/domain/availability"
	"rentshare/internal/domain/shared/money"
)

var (
	ErrTierPercentage = errors.New("pricing: tier percentage must be within [0,100]")
	ErrTierMinDays    = errors.New("pricing: tier min days must not be negative")
)

// DiscountTier grants Percentage off the base price once a rental reaches MinDays.
type DiscountTier struct {
	MinDays    int     `json:"min_days"`
	Percentage float64 `json:"percentage"`
}

// DefaultTiers is the stock configuration. Callers always pass tiers explicitly.
func DefaultTiers() []DiscountTier {
	return []DiscountTier{
		{MinDays: 7, Percentage: 10},
		{MinDays: 14, Percentage: 15},
		{MinDays: 30, Percentage: 20},
	}
}

func ValidateTiers(tiers []DiscountTier) error {
	for i, tier := range tiers {
		if tier.MinDays < 0 {
			return fmt.Errorf("%w: tier %d", ErrTierMinDays, i)
		}
		if tier.Percentage < 0 || tier.Percentage > 100 {
			return fmt.Errorf("%w: tier %d", ErrTierPercentage, i)
		}
	}
	return nil
}

// Breakdown is the price summary for one selection. Amounts are whole
// currency units.
type Breakdown struct {
	Days           int
	DailyRate      int64
	BasePrice      int64
	Tier           *DiscountTier
	DiscountAmount int64
	FinalPrice     int64
}

func (b Breakdown) Money(currency string) (base, discount, final money.Money) {
	return money.Of(b.BasePrice, currency),
		money.Of(b.DiscountAmount, currency),
		money.Of(b.FinalPrice, currency)
}

// SelectTier returns the tier with the largest MinDays not exceeding days.
// A longer threshold wins even when a shorter one has a bigger percentage.
func SelectTier(days int, tiers []DiscountTier) (DiscountTier, bool) {
	if days <= 0 || len(tiers) == 0 {
		return DiscountTier{}, false
	}
	ordered := append([]DiscountTier(nil), tiers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinDays > ordered[j].MinDays
	})
	for _, tier := range ordered {
		if days >= tier.MinDays {
			return tier, true
		}
	}
	return DiscountTier{}, false
}

// Compute prices a selection. An incomplete selection prices as zero days.
func Compute(sel availability.Selection, dailyRate int64, tiers []DiscountTier) Breakdown {
	r, ok := sel.Range()
	if !ok {
		return Breakdown{DailyRate: dailyRate}
	}
	return ComputeDays(r.Days(), dailyRate, tiers)
}

// ComputeDays prices a rental of the given length. Non-positive days or rate
// yield a zero price; a base price past math.MaxInt64 saturates there.
func ComputeDays(days int, dailyRate int64, tiers []DiscountTier) Breakdown {
	out := Breakdown{Days: days, DailyRate: dailyRate}
	if days <= 0 {
		out.Days = 0
		return out
	}
	if dailyRate > 0 {
		if dailyRate > math.MaxInt64/int64(days) {
			out.BasePrice = math.MaxInt64
		} else {
			out.BasePrice = int64(days) * dailyRate
		}
	}
	if tier, ok := SelectTier(days, tiers); ok {
		t := tier
		out.Tier = &t
		out.DiscountAmount = money.PercentOf(out.BasePrice, tier.Percentage)
	}
	out.FinalPrice = out.BasePrice - out.DiscountAmount
	return out
}

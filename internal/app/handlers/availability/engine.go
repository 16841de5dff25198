package availability

import (
	"context"
	"errors"
	"strings"

	"rentshare/internal/app/policies"
	"rentshare/internal/app/uow"
	domainavailability "rentshare/internal/domain/availability"
	domainitems "rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/daterange"
)

var ErrItemRequired = errors.New("availability: item id is required")

// loadEngine reads the item and its bookings and builds a fresh engine for today.
func loadEngine(ctx context.Context, unit uow.UnitOfWork, calendar policies.Calendar, rawItemID string) (*domainitems.Item, *domainavailability.Engine, error) {
	itemID := domainitems.ItemID(strings.TrimSpace(rawItemID))
	if itemID == "" {
		return nil, nil, ErrItemRequired
	}
	item, err := unit.Items().ByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := unit.Bookings().ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	engine, err := domainavailability.NewEngine(calendar.Today(), domainavailability.FromBookings(bookings))
	if err != nil {
		return nil, nil, err
	}
	return item, engine.WithHorizon(calendar.HorizonDays), nil
}

// parseOptionalDate treats an empty string as unset.
func parseOptionalDate(raw string) (daterange.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return daterange.Date{}, nil
	}
	return daterange.ParseDate(raw)
}

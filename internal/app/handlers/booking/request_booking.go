package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/sideeffects"
	"rentshare/internal/app/uow"
	domainavailability "rentshare/internal/domain/availability"
	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainpricing "rentshare/internal/domain/pricing"
	"rentshare/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	BorrowerID      string `json:"-" validate:"required"`
	ItemID          string `json:"item_id" validate:"required"`
	StartDate       string `json:"start_date" validate:"required,civildate"`
	EndDate         string `json:"end_date" validate:"required,civildate"`
	Message         string `json:"message" validate:"max=2000"`
	IdempotencyKeyV string `json:"-"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) ActorID() string { return c.BorrowerID }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string       `json:"booking_id"`
	Status    string       `json:"status"`
	Total     dto.MoneyDTO `json:"total_amount"`
}

type RequestBookingHandler struct {
	Calendar  policies.Calendar
	Pricing   policies.Pricing
	Publisher outbox.Publisher
	Effects   *sideeffects.BookingEffects
	Logger    *slog.Logger
	IDs       func() string
}

// Handle creates a pending booking. The item's calendar is rebuilt from the
// bookings read inside the same unit right before the insert.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}

	dr, err := daterange.ParseRange(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	today := h.Calendar.Today()
	if err := domainbooking.ValidateRequestedRange(dr, today); err != nil {
		return nil, err
	}

	item, err := unit.Items().ByID(ctx, domainitems.ItemID(strings.TrimSpace(cmd.ItemID)))
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domainitems.ErrInactive
	}
	if item.OwnedBy(cmd.BorrowerID) {
		return nil, domainbooking.ErrSelfBooking
	}

	existing, err := unit.Bookings().ListByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	engine, err := domainavailability.NewEngine(today, domainavailability.FromBookings(existing))
	if err != nil {
		return nil, err
	}
	if !engine.IsRangeSelectable(dr.Start, dr.End) {
		return nil, domainbooking.ErrRangeUnavailable
	}
	// Rewriting the item makes concurrent requests for it conflict, so two
	// overlapping bookings cannot both pass the check above.
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}

	breakdown := domainpricing.Compute(domainavailability.Selection{From: dr.Start, To: dr.End}, item.DailyRate, h.Pricing.Tiers)
	currency := h.Pricing.CurrencyFor(item.Currency)

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(h.newID()),
		ItemID:      item.ID,
		BorrowerID:  cmd.BorrowerID,
		OwnerID:     item.OwnerID,
		Range:       dr,
		TotalAmount: breakdown.FinalPrice,
		Currency:    currency,
		Message:     cmd.Message,
		CreatedAt:   h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}

	evs, err := h.Publisher.Publish(ctx, booking)
	if err != nil {
		return nil, err
	}
	h.Effects.BookingRequested(ctx, booking, item, evs)

	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", booking.ID,
			"item_id", item.ID,
			"borrower_id", booking.BorrowerID,
			"range", dr.String(),
			"total", booking.TotalAmount,
		)
	}

	return &RequestBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.Status),
		Total:     dto.MoneyDTO{Amount: booking.TotalAmount, Currency: currency},
	}, nil
}

func (h *RequestBookingHandler) newID() string {
	if h.IDs != nil {
		return h.IDs()
	}
	return uuid.NewString()
}

func (h *RequestBookingHandler) now() time.Time {
	return h.Calendar.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
var _ middleware.ActorMessage = RequestBookingCommand{}

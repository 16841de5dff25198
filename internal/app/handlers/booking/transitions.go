package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/sideeffects"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
)

const (
	confirmBookingKey  = "booking.confirm"
	rejectBookingKey   = "booking.reject"
	withdrawBookingKey = "booking.withdraw"
	cancelBookingKey   = "booking.cancel"
	revertBookingKey   = "booking.revert"
)

var ErrWrongParty = errors.New("booking: action not allowed for this party")

type ConfirmBookingCommand struct {
	OwnerID   string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
}

func (c ConfirmBookingCommand) Key() string     { return confirmBookingKey }
func (c ConfirmBookingCommand) ActorID() string { return c.OwnerID }

type RejectBookingCommand struct {
	OwnerID   string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=1000"`
}

func (c RejectBookingCommand) Key() string     { return rejectBookingKey }
func (c RejectBookingCommand) ActorID() string { return c.OwnerID }

type WithdrawBookingCommand struct {
	BorrowerID string `json:"-" validate:"required"`
	BookingID  string `json:"booking_id" validate:"required"`
}

func (c WithdrawBookingCommand) Key() string     { return withdrawBookingKey }
func (c WithdrawBookingCommand) ActorID() string { return c.BorrowerID }

type CancelBookingCommand struct {
	UserID    string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=1000"`
}

func (c CancelBookingCommand) Key() string     { return cancelBookingKey }
func (c CancelBookingCommand) ActorID() string { return c.UserID }

type RevertBookingCommand struct {
	OwnerID   string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
}

func (c RevertBookingCommand) Key() string     { return revertBookingKey }
func (c RevertBookingCommand) ActorID() string { return c.OwnerID }

// Transitions holds what every status-changing handler needs.
type Transitions struct {
	Calendar  policies.Calendar
	Publisher outbox.Publisher
	Effects   *sideeffects.BookingEffects
	Logger    *slog.Logger
}

type transitionFunc func(b *domainbooking.Booking, role domainbooking.Party, now time.Time) error

// apply loads the booking, checks the actor's side, runs fn and persists the
// result. A required party of PartyNone accepts either side.
func (t *Transitions) apply(ctx context.Context, action, actorID, bookingID string, required domainbooking.Party, fn transitionFunc) (*dto.BookingActionResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(bookingID)))
	if err != nil {
		return nil, err
	}
	role := booking.Role(actorID)
	if role == domainbooking.PartyNone {
		return nil, domainbooking.ErrNotParticipant
	}
	if required != domainbooking.PartyNone && role != required {
		return nil, ErrWrongParty
	}
	from := booking.Status
	if err := fn(booking, role, t.Calendar.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	evs, err := t.Publisher.Publish(ctx, booking)
	if err != nil {
		return nil, err
	}
	t.Effects.Transitioned(ctx, evs)

	if t.Logger != nil {
		t.Logger.Info("booking "+action,
			"booking_id", booking.ID,
			"actor_id", actorID,
			"role", role,
			"from", from,
			"to", booking.Status,
		)
	}
	return &dto.BookingActionResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

type ConfirmBookingHandler struct{ Transitions }

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (*dto.BookingActionResult, error) {
	return h.apply(ctx, "confirmed", cmd.OwnerID, cmd.BookingID, domainbooking.PartyOwner,
		func(b *domainbooking.Booking, _ domainbooking.Party, now time.Time) error {
			return b.Confirm(now)
		})
}

type RejectBookingHandler struct{ Transitions }

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*dto.BookingActionResult, error) {
	return h.apply(ctx, "rejected", cmd.OwnerID, cmd.BookingID, domainbooking.PartyOwner,
		func(b *domainbooking.Booking, _ domainbooking.Party, now time.Time) error {
			return b.Reject(cmd.Reason, now)
		})
}

type WithdrawBookingHandler struct{ Transitions }

func (h *WithdrawBookingHandler) Handle(ctx context.Context, cmd WithdrawBookingCommand) (*dto.BookingActionResult, error) {
	return h.apply(ctx, "withdrawn", cmd.BorrowerID, cmd.BookingID, domainbooking.PartyBorrower,
		func(b *domainbooking.Booking, _ domainbooking.Party, now time.Time) error {
			return b.Withdraw(now)
		})
}

type CancelBookingHandler struct{ Transitions }

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingActionResult, error) {
	return h.apply(ctx, "cancelled", cmd.UserID, cmd.BookingID, domainbooking.PartyNone,
		func(b *domainbooking.Booking, role domainbooking.Party, now time.Time) error {
			return b.Cancel(role, cmd.Reason, now)
		})
}

type RevertBookingHandler struct{ Transitions }

func (h *RevertBookingHandler) Handle(ctx context.Context, cmd RevertBookingCommand) (*dto.BookingActionResult, error) {
	return h.apply(ctx, "reverted", cmd.OwnerID, cmd.BookingID, domainbooking.PartyOwner,
		func(b *domainbooking.Booking, _ domainbooking.Party, now time.Time) error {
			return b.Revert(now)
		})
}

var (
	_ commands.Handler[ConfirmBookingCommand, *dto.BookingActionResult]  = (*ConfirmBookingHandler)(nil)
	_ commands.Handler[RejectBookingCommand, *dto.BookingActionResult]   = (*RejectBookingHandler)(nil)
	_ commands.Handler[WithdrawBookingCommand, *dto.BookingActionResult] = (*WithdrawBookingHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.BookingActionResult]   = (*CancelBookingHandler)(nil)
	_ commands.Handler[RevertBookingCommand, *dto.BookingActionResult]   = (*RevertBookingHandler)(nil)
)

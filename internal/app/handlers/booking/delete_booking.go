package booking

import (
	"context"
	"log/slog"
	"strings"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
)

const deleteBookingKey = "booking.delete"

const deletedStatus = "deleted"

type DeleteBookingCommand struct {
	UserID    string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
}

func (c DeleteBookingCommand) Key() string     { return deleteBookingKey }
func (c DeleteBookingCommand) ActorID() string { return c.UserID }

type DeleteBookingHandler struct {
	Calendar  policies.Calendar
	Publisher outbox.Publisher
	Logger    *slog.Logger
}

func (h *DeleteBookingHandler) Handle(ctx context.Context, cmd DeleteBookingCommand) (*dto.BookingActionResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	if err := booking.MarkDeleted(cmd.UserID, h.Calendar.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Delete(ctx, booking.ID); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking deleted", "booking_id", booking.ID, "actor_id", cmd.UserID, "status", booking.Status)
	}
	return &dto.BookingActionResult{BookingID: string(booking.ID), Status: deletedStatus}, nil
}

var _ commands.Handler[DeleteBookingCommand, *dto.BookingActionResult] = (*DeleteBookingHandler)(nil)

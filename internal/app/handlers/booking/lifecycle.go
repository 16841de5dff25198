package booking

import (
	"context"
	"log/slog"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	"rentshare/internal/domain/shared/daterange"
)

const (
	advanceLifecycleKey = "booking.lifecycle.advance"
	dueBookingsKey      = "booking.lifecycle.due"
)

// DueBookingsQuery lists the bookings the lifecycle sweep has work for today.
type DueBookingsQuery struct{}

func (DueBookingsQuery) Key() string { return dueBookingsKey }

type DueBookings struct {
	IDs []string `json:"ids"`
}

type DueBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   policies.Calendar
}

func (h *DueBookingsHandler) Handle(ctx context.Context, _ DueBookingsQuery) (DueBookings, error) {
	today := h.Calendar.Today()
	return uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) (DueBookings, error) {
		candidates, err := unit.Bookings().ListByStatus(ctx, domainbooking.StatusConfirmed, domainbooking.StatusActive)
		if err != nil {
			return DueBookings{}, err
		}
		out := DueBookings{IDs: []string{}}
		for _, b := range candidates {
			if startsBy(b, today) || endedBefore(b, today) {
				out.IDs = append(out.IDs, string(b.ID))
			}
		}
		return out, nil
	})
}

// AdvanceLifecycleCommand moves one booking forward: confirmed to active once
// its rental has started, active to completed once its last day has passed.
// A confirmed booking that is already over goes through both steps.
type AdvanceLifecycleCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (AdvanceLifecycleCommand) Key() string { return advanceLifecycleKey }

type LifecycleResult struct {
	Activated int `json:"activated"`
	Completed int `json:"completed"`
}

// Add folds another result into r.
func (r *LifecycleResult) Add(other *LifecycleResult) {
	if other == nil {
		return
	}
	r.Activated += other.Activated
	r.Completed += other.Completed
}

type AdvanceLifecycleHandler struct {
	Calendar  policies.Calendar
	Publisher outbox.Publisher
	Logger    *slog.Logger
}

func (h *AdvanceLifecycleHandler) Handle(ctx context.Context, cmd AdvanceLifecycleCommand) (*LifecycleResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	today := h.Calendar.Today()
	now := h.Calendar.Now()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{}
	if startsBy(b, today) {
		if err := b.Activate(now); err != nil {
			return nil, err
		}
		result.Activated++
	}
	if endedBefore(b, today) {
		if err := b.Complete(now); err != nil {
			return nil, err
		}
		result.Completed++
	}
	if result.Activated == 0 && result.Completed == 0 {
		return result, nil
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, b); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("booking lifecycle advanced", "booking_id", b.ID, "status", b.Status, "today", today.String())
	}
	return result, nil
}

func startsBy(b *domainbooking.Booking, today daterange.Date) bool {
	return b.Status == domainbooking.StatusConfirmed && !b.Range.Start.After(today)
}

func endedBefore(b *domainbooking.Booking, today daterange.Date) bool {
	return b.Status == domainbooking.StatusActive && b.Range.End.Before(today)
}

var (
	_ queries.Handler[DueBookingsQuery, DueBookings]              = (*DueBookingsHandler)(nil)
	_ commands.Handler[AdvanceLifecycleCommand, *LifecycleResult] = (*AdvanceLifecycleHandler)(nil)
)

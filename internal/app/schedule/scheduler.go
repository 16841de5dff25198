package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rentshare/internal/app/commands"
	bookinghandlers "rentshare/internal/app/handlers/booking"
	"rentshare/internal/app/queries"
)

var ErrSweepIncomplete = errors.New("schedule: lifecycle sweep skipped bookings")

// Scheduler runs jobs on a recurring spec such as "@daily".
type Scheduler interface {
	Register(spec string, job Job) error
	Start()
	Stop(ctx context.Context) error
}

// Job is recurring background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// LifecycleJob advances bookings whose dates have started or passed. Each
// booking goes through the command bus on its own, so one conflicting write
// only delays that booking until the next run.
type LifecycleJob struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (j *LifecycleJob) Name() string { return "booking.lifecycle" }

func (j *LifecycleJob) Run(ctx context.Context) error {
	due, err := queries.Ask[bookinghandlers.DueBookingsQuery, bookinghandlers.DueBookings](ctx, j.Queries, bookinghandlers.DueBookingsQuery{})
	if err != nil {
		return err
	}
	total := &bookinghandlers.LifecycleResult{}
	failed := 0
	for _, id := range due.IDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := commands.Dispatch[bookinghandlers.AdvanceLifecycleCommand, *bookinghandlers.LifecycleResult](ctx, j.Commands, bookinghandlers.AdvanceLifecycleCommand{BookingID: id})
		if err != nil {
			failed++
			if j.Logger != nil {
				j.Logger.Warn("booking lifecycle skipped", "booking_id", id, "error", err)
			}
			continue
		}
		total.Add(res)
	}
	if j.Logger != nil && (total.Activated > 0 || total.Completed > 0 || failed > 0) {
		j.Logger.Info("booking lifecycle advanced", "activated", total.Activated, "completed", total.Completed, "failed", failed)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d bookings", ErrSweepIncomplete, failed, len(due.IDs))
	}
	return nil
}

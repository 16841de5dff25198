package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"rentshare/internal/app/dto"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainreviews "rentshare/internal/domain/reviews"
)

const (
	listBorrowerBookingsKey = "booking.list.borrower"
	listOwnerBookingsKey    = "booking.list.owner"
)

// ListBorrowerBookingsQuery lists the caller's own requests. An empty Status
// returns every status.
type ListBorrowerBookingsQuery struct {
	BorrowerID string `json:"-" validate:"required"`
	Status     string `json:"status"`
}

func (q ListBorrowerBookingsQuery) Key() string     { return listBorrowerBookingsKey }
func (q ListBorrowerBookingsQuery) ActorID() string { return q.BorrowerID }

// ListOwnerBookingsQuery lists requests made against the caller's items.
type ListOwnerBookingsQuery struct {
	OwnerID string `json:"-" validate:"required"`
	Status  string `json:"status"`
}

func (q ListOwnerBookingsQuery) Key() string     { return listOwnerBookingsKey }
func (q ListOwnerBookingsQuery) ActorID() string { return q.OwnerID }

type ListBorrowerBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListBorrowerBookingsHandler) Handle(ctx context.Context, q ListBorrowerBookingsQuery) (dto.BookingCollection, error) {
	return listBookings(ctx, h.UoWFactory, h.Logger, q.BorrowerID, q.Status, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainbooking.Booking, error) {
		return unit.Bookings().ListByBorrower(ctx, q.BorrowerID)
	})
}

type ListOwnerBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListOwnerBookingsHandler) Handle(ctx context.Context, q ListOwnerBookingsQuery) (dto.BookingCollection, error) {
	return listBookings(ctx, h.UoWFactory, h.Logger, q.OwnerID, q.Status, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainbooking.Booking, error) {
		return unit.Bookings().ListByOwner(ctx, q.OwnerID)
	})
}

type bookingLoader func(ctx context.Context, unit uow.UnitOfWork) ([]*domainbooking.Booking, error)

func listBookings(ctx context.Context, factory uow.UoWFactory, logger *slog.Logger, viewerID, rawStatus string, load bookingLoader) (dto.BookingCollection, error) {
	var filter domainbooking.Status
	if strings.TrimSpace(rawStatus) != "" {
		status, err := domainbooking.ParseStatus(rawStatus)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		filter = status
	}

	return uow.Read(ctx, factory, func(ctx context.Context, unit uow.UnitOfWork) (dto.BookingCollection, error) {
		return collectBookings(ctx, unit, logger, viewerID, filter, load)
	})
}

// collectBookings joins each booking with its item and the viewer's review
// state, newest first. Items removed since booking map to an empty snapshot.
func collectBookings(ctx context.Context, unit uow.UnitOfWork, logger *slog.Logger, viewerID string, filter domainbooking.Status, load bookingLoader) (dto.BookingCollection, error) {
	bookings, err := load(ctx, unit)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	itemCache := make(map[domainitems.ItemID]*domainitems.Item)
	out := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		if filter != "" && b.Status != filter {
			continue
		}
		item, cached := itemCache[b.ItemID]
		if !cached {
			item, err = unit.Items().ByID(ctx, b.ItemID)
			if err != nil && !errors.Is(err, domainitems.ErrItemNotFound) {
				return dto.BookingCollection{}, err
			}
			itemCache[b.ItemID] = item
		}
		reviewed := false
		if b.Status == domainbooking.StatusCompleted {
			_, err := unit.Reviews().ByBooking(ctx, b.ID, viewerID)
			switch {
			case err == nil:
				reviewed = true
			case !errors.Is(err, domainreviews.ErrNotFound):
				return dto.BookingCollection{}, err
			}
		}
		out = append(out, dto.MapBooking(b, item, viewerID, reviewed))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if logger != nil {
		logger.Debug("bookings listed", "viewer_id", viewerID, "status", filter, "count", len(out))
	}
	return dto.BookingCollection{Items: out}, nil
}

var (
	_ queries.Handler[ListBorrowerBookingsQuery, dto.BookingCollection] = (*ListBorrowerBookingsHandler)(nil)
	_ queries.Handler[ListOwnerBookingsQuery, dto.BookingCollection]    = (*ListOwnerBookingsHandler)(nil)
)

package memory

import (
	"context"
	"errors"

	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainreviews "rentshare/internal/domain/reviews"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ItemsRepo         domainitems.Repository
	BookingRepo       domainbooking.Repository
	ReviewsRepo       domainreviews.Repository
	NotificationsRepo domainnotifications.Repository
}

// NewFactory builds a factory over fresh, empty repositories.
func NewFactory() Factory {
	return Factory{
		ItemsRepo:         NewItemRepository(),
		BookingRepo:       NewBookingRepository(),
		ReviewsRepo:       NewReviewRepository(),
		NotificationsRepo: NewNotificationRepository(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ItemsRepo == nil || f.BookingRepo == nil || f.ReviewsRepo == nil || f.NotificationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		items:         f.ItemsRepo,
		bookings:      f.BookingRepo,
		reviews:       f.ReviewsRepo,
		notifications: f.NotificationsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	items         domainitems.Repository
	bookings      domainbooking.Repository
	reviews       domainreviews.Repository
	notifications domainnotifications.Repository
}

func (u *Unit) Items() domainitems.Repository {
	return u.items
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Reviews() domainreviews.Repository {
	return u.reviews
}

func (u *Unit) Notifications() domainnotifications.Repository {
	return u.notifications
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}

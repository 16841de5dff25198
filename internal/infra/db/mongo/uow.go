package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainreviews "rentshare/internal/domain/reviews"
)

// ErrConcurrentUpdate is returned when an item save races another writer.
var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ItemsRepo         domainitems.Repository
	BookingRepo       domainbooking.Repository
	ReviewsRepo       domainreviews.Repository
	NotificationsRepo domainnotifications.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a Factory with every repository backed by db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:                db,
		ItemsRepo:         NewItemRepository(db),
		BookingRepo:       NewBookingRepository(db),
		ReviewsRepo:       NewReviewRepository(db),
		NotificationsRepo: NewNotificationRepository(db),
	}
}

// Begin starts a MongoDB session. Writers also open a transaction; read-only
// units run on the session without one.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{
		session:       session,
		items:         f.ItemsRepo,
		bookings:      f.BookingRepo,
		reviews:       f.ReviewsRepo,
		notifications: f.NotificationsRepo,
		readOnly:      opts.ReadOnly,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

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
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

// writeConflictCode is reported when two transactions write the same document.
const writeConflictCode = 112

func isWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(writeConflictCode)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext binds the session so repositories join its transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory    = Factory{}
	_ uow.ContextBinder = (*Unit)(nil)
)

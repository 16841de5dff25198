package uow

import (
	"context"

	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainreviews "rentshare/internal/domain/reviews"
)

// UnitOfWork exposes the repositories that share one storage transaction.
// Chat is not part of it; the chat store is append-only and lives outside
// the document database.
type UnitOfWork interface {
	Items() domainitems.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Notifications() domainnotifications.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions tune a unit. ReadOnly units skip the storage transaction.
type TxOptions struct {
	ReadOnly bool
}

// ContextBinder is implemented by units whose driver needs its session in
// the context, like the Mongo unit.
type ContextBinder interface {
	InjectContext(ctx context.Context) context.Context
}

// Package bootstrap registers every command and query handler on the
// in-memory buses and wraps them with the middleware chain.
package bootstrap

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	availabilityapp "rentshare/internal/app/handlers/availability"
	bookingapp "rentshare/internal/app/handlers/booking"
	chatapp "rentshare/internal/app/handlers/chat"
	itemsapp "rentshare/internal/app/handlers/items"
	notificationsapp "rentshare/internal/app/handlers/notifications"
	reviewsapp "rentshare/internal/app/handlers/reviews"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/sideeffects"
	"rentshare/internal/app/uow"
	"rentshare/internal/app/validation"
	domainchat "rentshare/internal/domain/chat"
	domainnotifications "rentshare/internal/domain/notifications"
)

// Deps are the collaborators the buses need. Storage specific values come
// from the memory or mongo adapters.
type Deps struct {
	Logger        *slog.Logger
	UoW           uow.UoWFactory
	Outbox        outbox.Outbox
	Idempotency   middleware.IdempotencyStore
	Chat          domainchat.Store
	Filter        *domainchat.ContentFilter
	Notifications domainnotifications.Repository
	Calendar      policies.Calendar
	Pricing       policies.Pricing
	// Uploader stores item photos. Nil disables uploads.
	Uploader itemsapp.PhotoUploader
	// PhotoProcessor resizes uploads before storage. Nil stores them as sent.
	PhotoProcessor itemsapp.PhotoProcessor
	// InlineNotifications writes notifications right after commit. When
	// false the Kafka projector produces them from published events.
	InlineNotifications bool
	IDs                 func() string
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
	// Effects is shared with the notification projector.
	Effects *sideeffects.BookingEffects
}

func Build(d Deps) Buses {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.IDs == nil {
		d.IDs = uuid.NewString
	}
	now := func() time.Time { return d.Calendar.Now() }
	publisher := outbox.Publisher{Outbox: d.Outbox, Encoder: outbox.JSONEventEncoder{NewID: d.IDs}}
	effects := &sideeffects.BookingEffects{
		Chat:          d.Chat,
		Filter:        d.Filter,
		Notifications: d.Notifications,
		Logger:        d.Logger,
		IDs:           d.IDs,
		Now:           now,
		Inline:        d.InlineNotifications,
	}

	commandBus := commands.NewInMemoryBus()
	transitions := bookingapp.Transitions{Calendar: d.Calendar, Publisher: publisher, Effects: effects, Logger: d.Logger}
	commands.Register(commandBus, &bookingapp.RequestBookingHandler{
		Calendar:  d.Calendar,
		Pricing:   d.Pricing,
		Publisher: publisher,
		Effects:   effects,
		Logger:    d.Logger,
		IDs:       d.IDs,
	})
	commands.Register(commandBus, &bookingapp.ConfirmBookingHandler{Transitions: transitions})
	commands.Register(commandBus, &bookingapp.RejectBookingHandler{Transitions: transitions})
	commands.Register(commandBus, &bookingapp.WithdrawBookingHandler{Transitions: transitions})
	commands.Register(commandBus, &bookingapp.CancelBookingHandler{Transitions: transitions})
	commands.Register(commandBus, &bookingapp.RevertBookingHandler{Transitions: transitions})
	commands.Register(commandBus, &bookingapp.DeleteBookingHandler{
		Calendar: d.Calendar, Publisher: publisher, Logger: d.Logger,
	})
	commands.Register(commandBus, &bookingapp.AdvanceLifecycleHandler{
		Calendar: d.Calendar, Publisher: publisher, Logger: d.Logger,
	})
	commands.Register(commandBus, &itemsapp.CreateItemHandler{
		Pricing: d.Pricing, Publisher: publisher, Logger: d.Logger, IDs: d.IDs, Now: now,
	})
	commands.Register(commandBus, &itemsapp.UpdateItemHandler{
		Publisher: publisher, Logger: d.Logger, Now: now,
	})
	commands.Register(commandBus, &itemsapp.UploadItemPhotoHandler{
		Uploader: d.Uploader, Processor: d.PhotoProcessor, Publisher: publisher, Logger: d.Logger, Now: now,
	})
	commands.Register(commandBus, &reviewsapp.SubmitReviewHandler{
		Publisher: publisher, Logger: d.Logger, IDs: d.IDs, Now: now,
	})
	commands.Register(commandBus, &notificationsapp.MarkNotificationReadHandler{Logger: d.Logger})

	chat := &chatapp.Handlers{Store: d.Chat, Filter: d.Filter, Logger: d.Logger, IDs: d.IDs, Now: now}
	commands.Register(commandBus, chat.SendMessage())
	commands.Register(commandBus, chat.ToggleReaction())

	queryBus := queries.NewInMemoryBus()
	queries.Register(queryBus, &availabilityapp.GetAvailabilityHandler{
		UoWFactory: d.UoW, Calendar: d.Calendar, Logger: d.Logger,
	})
	selection := &availabilityapp.SelectionHandlers{UoWFactory: d.UoW, Calendar: d.Calendar, Pricing: d.Pricing, Logger: d.Logger}
	queries.Register(queryBus, selection.SelectDates())
	queries.Register(queryBus, selection.QuickSelect())
	queries.Register(queryBus, selection.Quote())
	queries.Register(queryBus, &bookingapp.ListBorrowerBookingsHandler{UoWFactory: d.UoW, Logger: d.Logger})
	queries.Register(queryBus, &bookingapp.ListOwnerBookingsHandler{UoWFactory: d.UoW, Logger: d.Logger})
	queries.Register(queryBus, &bookingapp.DueBookingsHandler{UoWFactory: d.UoW, Calendar: d.Calendar})
	queries.Register(queryBus, &itemsapp.GetItemHandler{UoWFactory: d.UoW})
	queries.Register(queryBus, &itemsapp.SearchItemsHandler{UoWFactory: d.UoW, Logger: d.Logger})
	queries.Register(queryBus, &reviewsapp.ListItemReviewsHandler{UoWFactory: d.UoW, Logger: d.Logger})
	queries.Register(queryBus, &notificationsapp.ListNotificationsHandler{UoWFactory: d.UoW})
	queries.Register(queryBus, chat.ListConversations())
	queries.Register(queryBus, chat.ListMessages())

	validator := validation.New()
	commandMiddleware := []middleware.CommandMiddleware{
		middleware.Logging(d.Logger),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(validator),
	}
	if d.Idempotency != nil {
		commandMiddleware = append(commandMiddleware, middleware.Idempotency(d.Idempotency, nil))
	}
	commandMiddleware = append(commandMiddleware, middleware.SideEffects(d.Logger))
	if d.Outbox != nil {
		commandMiddleware = append(commandMiddleware, middleware.OutboxFlush(d.Outbox, d.Logger))
	}
	// Transaction stays innermost so flushes and side effects only see committed work.
	commandMiddleware = append(commandMiddleware, middleware.Transaction(d.UoW, nil))

	return Buses{
		Commands: middleware.ChainCommands(commandBus, commandMiddleware...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryLogging(d.Logger),
			middleware.QueryAuthorization(middleware.RequireActor{}),
			middleware.QueryValidation(validator),
		),
		Effects: effects,
	}
}

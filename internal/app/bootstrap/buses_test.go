package bootstrap_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/bootstrap"
	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	bookingapp "rentshare/internal/app/handlers/booking"
	itemsapp "rentshare/internal/app/handlers/items"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/queries"
	"rentshare/internal/infra/storage/memory"
)

func build(t *testing.T) (bootstrap.Buses, *memory.Outbox) {
	t.Helper()
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	buses := bootstrap.Build(bootstrap.Deps{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		UoW:           factory,
		Outbox:        box,
		Idempotency:   memory.NewIdempotencyStore(0),
		Chat:          memory.NewChatStore(),
		Notifications: factory.NotificationsRepo,
		Calendar: policies.Calendar{
			Location: time.UTC,
			Clock:    func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
		},
		Pricing: policies.Pricing{Currency: "EUR"},
	})
	return buses, box
}

func TestBuildRegistersLifecycleSweep(t *testing.T) {
	buses, _ := build(t)
	due, err := queries.Ask[bookingapp.DueBookingsQuery, bookingapp.DueBookings](context.Background(), buses.Queries, bookingapp.DueBookingsQuery{})
	require.NoError(t, err)
	assert.Empty(t, due.IDs)

	_, err = commands.Dispatch[bookingapp.AdvanceLifecycleCommand, *bookingapp.LifecycleResult](context.Background(), buses.Commands, bookingapp.AdvanceLifecycleCommand{BookingID: "missing"})
	assert.Error(t, err)
}

func TestBuildChainsActorCheck(t *testing.T) {
	buses, _ := build(t)
	_, err := commands.Dispatch[itemsapp.CreateItemCommand, *dto.Item](context.Background(), buses.Commands, itemsapp.CreateItemCommand{Title: "Ladder"})
	assert.ErrorIs(t, err, middleware.ErrUnauthenticated)

	_, err = queries.Ask[bookingapp.ListBorrowerBookingsQuery, dto.BookingCollection](context.Background(), buses.Queries, bookingapp.ListBorrowerBookingsQuery{})
	assert.ErrorIs(t, err, middleware.ErrUnauthenticated)
}

func TestBuildFlushesOutboxAfterCommit(t *testing.T) {
	buses, box := build(t)
	item, err := commands.Dispatch[itemsapp.CreateItemCommand, *dto.Item](context.Background(), buses.Commands, itemsapp.CreateItemCommand{OwnerID: "u1", Title: "Ladder", DailyRate: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Empty(t, box.Names())
	assert.Equal(t, []string{"item.listed"}, box.Flushed())

	got, err := queries.Ask[itemsapp.GetItemQuery, dto.Item](context.Background(), buses.Queries, itemsapp.GetItemQuery{ItemID: item.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ladder", got.Title)
}

package booking

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/sideeffects"
	domainbooking "rentshare/internal/domain/booking"
	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainpricing "rentshare/internal/domain/pricing"
	"rentshare/internal/infra/storage/memory"
)

var clock = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	bus      commands.Bus
	factory  memory.Factory
	box      *memory.Outbox
	chat     *memory.ChatStore
	calendar policies.Calendar
	logs     *bytes.Buffer
}

func newFixture(t *testing.T, chat domainchat.Store) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	calendar := policies.Calendar{Clock: func() time.Time { return clock }}
	publisher := outbox.Publisher{Outbox: box}
	pricing := policies.Pricing{Tiers: domainpricing.DefaultTiers(), Currency: "EUR"}

	f := &fixture{factory: factory, box: box, calendar: calendar, logs: logs}
	if chat == nil {
		f.chat = memory.NewChatStore()
		chat = f.chat
	}
	effects := &sideeffects.BookingEffects{
		Chat:          chat,
		Notifications: factory.NotificationsRepo,
		Logger:        logger,
		Now:           calendar.Now,
		Inline:        true,
	}
	transitions := Transitions{Calendar: calendar, Publisher: publisher, Effects: effects, Logger: logger}

	bus := commands.NewInMemoryBus()
	commands.Register(bus, &RequestBookingHandler{
		Calendar: calendar, Pricing: pricing, Publisher: publisher, Effects: effects, Logger: logger,
	})
	commands.Register(bus, &ConfirmBookingHandler{transitions})
	commands.Register(bus, &RejectBookingHandler{transitions})
	commands.Register(bus, &WithdrawBookingHandler{transitions})
	commands.Register(bus, &CancelBookingHandler{transitions})
	commands.Register(bus, &RevertBookingHandler{transitions})
	commands.Register(bus, &DeleteBookingHandler{Calendar: calendar, Publisher: publisher, Logger: logger})
	commands.Register(bus, &AdvanceLifecycleHandler{Calendar: calendar, Publisher: publisher, Logger: logger})

	f.bus = middleware.ChainCommands(bus,
		middleware.SideEffects(logger),
		middleware.Transaction(factory, nil),
	)

	item, err := domainitems.NewItem(domainitems.CreateParams{
		ID: "drill", OwnerID: "owner", Title: "Cordless drill", DailyRate: 100, Currency: "EUR", Now: clock,
	})
	require.NoError(t, err)
	require.NoError(t, factory.ItemsRepo.Save(context.Background(), item))
	return f
}

func (f *fixture) request(t *testing.T, borrower, start, end string) (*RequestBookingResult, error) {
	t.Helper()
	return commands.Dispatch[RequestBookingCommand, *RequestBookingResult](context.Background(), f.bus, RequestBookingCommand{
		BorrowerID: borrower,
		ItemID:     "drill",
		StartDate:  start,
		EndDate:    end,
		Message:    "Need it for a shelf",
	})
}

func (f *fixture) mustRequest(t *testing.T, borrower, start, end string) string {
	t.Helper()
	res, err := f.request(t, borrower, start, end)
	require.NoError(t, err)
	return res.BookingID
}

func (f *fixture) act(t *testing.T, cmd commands.Command) (*dto.BookingActionResult, error) {
	t.Helper()
	return commands.Dispatch[commands.Command, *dto.BookingActionResult](context.Background(), f.bus, cmd)
}

func (f *fixture) status(t *testing.T, id string) domainbooking.Status {
	t.Helper()
	b, err := f.factory.BookingRepo.ByID(context.Background(), domainbooking.BookingID(id))
	require.NoError(t, err)
	return b.Status
}

func (f *fixture) notifications(t *testing.T, user string) []*domainnotifications.Notification {
	t.Helper()
	list, err := f.factory.NotificationsRepo.ListByUser(context.Background(), user, false, 0)
	require.NoError(t, err)
	return list
}

func TestRequestBookingPricesAndOpensChannel(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.request(t, "borrower", "2024-06-03", "2024-06-09")
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, dto.MoneyDTO{Amount: 630, Currency: "EUR"}, res.Total)

	b, err := f.factory.BookingRepo.ByID(context.Background(), domainbooking.BookingID(res.BookingID))
	require.NoError(t, err)
	assert.Equal(t, "owner", b.OwnerID)
	assert.Equal(t, 7, b.Range.Days())
	assert.Equal(t, []string{"booking.requested"}, f.box.Names())

	convs, err := f.chat.ListConversations(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, domainitems.ItemID("drill"), convs[0].ItemID)
	msgs, err := f.chat.ListMessages(context.Background(), convs[0].ID, 10, "")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "2024-06-03 to 2024-06-09")
	assert.Contains(t, msgs[0].Text, "Need it for a shelf")

	owner := f.notifications(t, "owner")
	require.Len(t, owner, 1)
	assert.Equal(t, domainnotifications.KindBookingRequested, owner[0].Kind)
}

func TestRequestBookingRejectsUnavailableRanges(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")

	_, err := f.request(t, "other", "2024-06-12", "2024-06-14")
	assert.ErrorIs(t, err, domainbooking.ErrRangeUnavailable, "pending hold blocks overlap")

	_, err = f.act(t, WithdrawBookingCommand{BorrowerID: "borrower", BookingID: first})
	require.NoError(t, err)

	_, err = f.request(t, "other", "2024-06-12", "2024-06-14")
	assert.NoError(t, err, "cancelled booking frees its days")
}

func TestRequestBookingValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.request(t, "borrower", "2024-05-31", "2024-06-02")
	assert.ErrorIs(t, err, domainbooking.ErrStartInPast)

	_, err = f.request(t, "owner", "2024-06-03", "2024-06-04")
	assert.ErrorIs(t, err, domainbooking.ErrSelfBooking)

	_, err = f.request(t, "borrower", "2024-06-31", "2024-07-02")
	assert.Error(t, err)

	_, err = f.request(t, "borrower", "2024-06-03", "9999-12-31")
	assert.ErrorIs(t, err, domainbooking.ErrRangeTooLong)
	bookings, err := f.factory.BookingRepo.ListByItem(context.Background(), "drill")
	require.NoError(t, err)
	assert.Empty(t, bookings, "an oversized request leaves no hold")

	item, err := f.factory.ItemsRepo.ByID(context.Background(), "drill")
	require.NoError(t, err)
	item.Active = false
	require.NoError(t, f.factory.ItemsRepo.Save(context.Background(), item))
	_, err = f.request(t, "borrower", "2024-06-03", "2024-06-04")
	assert.ErrorIs(t, err, domainitems.ErrInactive)
}

func TestRequestBookingSurvivesSideEffectFailure(t *testing.T) {
	f := newFixture(t, failingChat{})
	res, err := f.request(t, "borrower", "2024-06-03", "2024-06-04")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, f.status(t, res.BookingID))
	assert.Contains(t, f.logs.String(), "side effect failed")
	assert.Contains(t, f.logs.String(), "booking.open_channel")
	assert.Len(t, f.notifications(t, "owner"), 1, "notification still delivered")
}

func TestOwnerActions(t *testing.T) {
	f := newFixture(t, nil)
	id := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")

	_, err := f.act(t, ConfirmBookingCommand{OwnerID: "borrower", BookingID: id})
	assert.ErrorIs(t, err, ErrWrongParty)
	_, err = f.act(t, ConfirmBookingCommand{OwnerID: "stranger", BookingID: id})
	assert.ErrorIs(t, err, domainbooking.ErrNotParticipant)

	res, err := f.act(t, ConfirmBookingCommand{OwnerID: "owner", BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", res.Status)

	res, err = f.act(t, RevertBookingCommand{OwnerID: "owner", BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)

	res, err = f.act(t, RejectBookingCommand{OwnerID: "owner", BookingID: id, Reason: "drill is broken"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)

	b, err := f.factory.BookingRepo.ByID(context.Background(), domainbooking.BookingID(id))
	require.NoError(t, err)
	assert.Equal(t, "drill is broken", b.Message)
	assert.Equal(t, int64(300), b.TotalAmount)

	var kinds []domainnotifications.Kind
	for _, n := range f.notifications(t, "borrower") {
		kinds = append(kinds, n.Kind)
	}
	assert.ElementsMatch(t, []domainnotifications.Kind{
		domainnotifications.KindBookingConfirmed,
		domainnotifications.KindBookingReverted,
		domainnotifications.KindBookingRejected,
	}, kinds)
}

func TestCancelNotifiesCounterparty(t *testing.T) {
	f := newFixture(t, nil)
	id := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")
	_, err := f.act(t, CancelBookingCommand{UserID: "borrower", BookingID: id})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState, "pending bookings are withdrawn, not cancelled")

	_, err = f.act(t, ConfirmBookingCommand{OwnerID: "owner", BookingID: id})
	require.NoError(t, err)
	_, err = f.act(t, CancelBookingCommand{UserID: "borrower", BookingID: id, Reason: "plans changed"})
	require.NoError(t, err)

	var cancelled *domainnotifications.Notification
	for _, n := range f.notifications(t, "owner") {
		if n.Kind == domainnotifications.KindBookingCancelled {
			cancelled = n
		}
	}
	require.NotNil(t, cancelled)
	assert.Contains(t, cancelled.Body, "plans changed")
}

func TestWithdrawRequiresBorrower(t *testing.T) {
	f := newFixture(t, nil)
	id := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")
	_, err := f.act(t, WithdrawBookingCommand{BorrowerID: "owner", BookingID: id})
	assert.ErrorIs(t, err, ErrWrongParty)
	_, err = f.act(t, WithdrawBookingCommand{BorrowerID: "borrower", BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, f.status(t, id))
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t, nil)
	id := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")

	_, err := f.act(t, DeleteBookingCommand{UserID: "owner", BookingID: id})
	assert.ErrorIs(t, err, domainbooking.ErrDeleteNotAllowed)

	res, err := f.act(t, DeleteBookingCommand{UserID: "borrower", BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, "deleted", res.Status)
	_, err = f.factory.BookingRepo.ByID(context.Background(), domainbooking.BookingID(id))
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Contains(t, f.box.Names(), "booking.deleted")
}

func (f *fixture) sweep(t *testing.T) *LifecycleResult {
	t.Helper()
	ctx := context.Background()
	due, err := (&DueBookingsHandler{UoWFactory: f.factory, Calendar: f.calendar}).Handle(ctx, DueBookingsQuery{})
	require.NoError(t, err)
	total := &LifecycleResult{}
	for _, id := range due.IDs {
		res, err := commands.Dispatch[AdvanceLifecycleCommand, *LifecycleResult](ctx, f.bus, AdvanceLifecycleCommand{BookingID: id})
		require.NoError(t, err)
		total.Add(res)
	}
	return total
}

func TestAdvanceLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	startsToday := f.mustRequest(t, "borrower", "2024-06-01", "2024-06-03")
	later := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")
	for _, id := range []string{startsToday, later} {
		_, err := f.act(t, ConfirmBookingCommand{OwnerID: "owner", BookingID: id})
		require.NoError(t, err)
	}

	assert.Equal(t, &LifecycleResult{Activated: 1}, f.sweep(t))
	assert.Equal(t, domainbooking.StatusActive, f.status(t, startsToday))
	assert.Equal(t, domainbooking.StatusConfirmed, f.status(t, later))

	clock = clock.AddDate(0, 0, 3)
	defer func() { clock = clock.AddDate(0, 0, -3) }()
	assert.Equal(t, &LifecycleResult{Completed: 1}, f.sweep(t))
	assert.Equal(t, domainbooking.StatusCompleted, f.status(t, startsToday))
}

func TestAdvanceLifecycleSkipsBookingsWithNothingDue(t *testing.T) {
	f := newFixture(t, nil)
	later := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")
	_, err := f.act(t, ConfirmBookingCommand{OwnerID: "owner", BookingID: later})
	require.NoError(t, err)

	due, err := (&DueBookingsHandler{UoWFactory: f.factory, Calendar: f.calendar}).Handle(context.Background(), DueBookingsQuery{})
	require.NoError(t, err)
	assert.Empty(t, due.IDs)

	res, err := commands.Dispatch[AdvanceLifecycleCommand, *LifecycleResult](context.Background(), f.bus, AdvanceLifecycleCommand{BookingID: later})
	require.NoError(t, err)
	assert.Equal(t, &LifecycleResult{}, res)
	assert.Equal(t, domainbooking.StatusConfirmed, f.status(t, later))
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mustRequest(t, "borrower", "2024-06-10", "2024-06-12")
	f.mustRequest(t, "borrower", "2024-06-20", "2024-06-21")
	_, err := f.act(t, ConfirmBookingCommand{OwnerID: "owner", BookingID: first})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	borrower := &ListBorrowerBookingsHandler{UoWFactory: f.factory, Logger: logger}
	owner := &ListOwnerBookingsHandler{UoWFactory: f.factory, Logger: logger}

	all, err := borrower.Handle(context.Background(), ListBorrowerBookingsQuery{BorrowerID: "borrower"})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "Cordless drill", all.Items[0].Item.Title)

	confirmed, err := owner.Handle(context.Background(), ListOwnerBookingsQuery{OwnerID: "owner", Status: "Confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.Equal(t, first, confirmed.Items[0].ID)
	assert.False(t, confirmed.Items[0].CanDelete)

	_, err = owner.Handle(context.Background(), ListOwnerBookingsQuery{OwnerID: "owner", Status: "approved"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidStatus)

	none, err := owner.Handle(context.Background(), ListOwnerBookingsQuery{OwnerID: "borrower"})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}

var errChatDown = errors.New("chat unavailable")

type failingChat struct{ domainchat.Store }

func (failingChat) GetOrCreateConversation(context.Context, domainitems.ItemID, []string, time.Time) (*domainchat.Conversation, error) {
	return nil, errChatDown
}

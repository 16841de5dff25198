package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/sideeffects"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainreviews "rentshare/internal/domain/reviews"
)

type reserveCommand struct {
	UserID string
	Ref    string
}

func (reserveCommand) Key() string              { return "test.reserve" }
func (c reserveCommand) ActorID() string        { return c.UserID }
func (c reserveCommand) IdempotencyKey() string { return c.Ref }
func (reserveCommand) ResultPrototype() any     { return &reserveResult{} }

type reserveResult struct {
	Seq int `json:"seq"`
}

type systemCommand struct{}

func (systemCommand) Key() string { return "test.system" }

type counterBus struct {
	mu    sync.Mutex
	calls int
	err   error
	hook  func(ctx context.Context)
}

func (b *counterBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	if b.hook != nil {
		b.hook(ctx)
	}
	if b.err != nil {
		return nil, b.err
	}
	return &reserveResult{Seq: n}, nil
}

type mapStore struct {
	items map[string]IdempotencyRecord
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	if s.items == nil {
		s.items = map[string]IdempotencyRecord{}
	}
	s.items[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	base := &counterBus{}
	bus := ChainCommands(base, Idempotency(&mapStore{}, nil))
	ctx := context.Background()

	first, err := bus.Dispatch(ctx, reserveCommand{UserID: "u1", Ref: "k1"})
	require.NoError(t, err)
	again, err := bus.Dispatch(ctx, reserveCommand{UserID: "u1", Ref: "k1"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, base.calls)

	other, err := bus.Dispatch(ctx, reserveCommand{UserID: "u2", Ref: "k1"})
	require.NoError(t, err)
	assert.Equal(t, &reserveResult{Seq: 2}, other, "keys are scoped per actor")

	_, err = bus.Dispatch(ctx, reserveCommand{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, base.calls, "empty key is not deduplicated")
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	base := &counterBus{err: errors.New("boom")}
	store := &mapStore{}
	bus := ChainCommands(base, Idempotency(store, nil))
	_, err := bus.Dispatch(context.Background(), reserveCommand{UserID: "u1", Ref: "k1"})
	assert.Error(t, err)
	assert.Empty(t, store.items)
}

func TestRequireActor(t *testing.T) {
	bus := ChainCommands(&counterBus{}, Authorization(RequireActor{}))
	_, err := bus.Dispatch(context.Background(), reserveCommand{UserID: "  "})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = bus.Dispatch(context.Background(), systemCommand{})
	assert.NoError(t, err)
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Items() domainitems.Repository                 { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository            { return nil }
func (u *fakeUnit) Reviews() domainreviews.Repository             { return nil }
func (u *fakeUnit) Notifications() domainnotifications.Repository { return nil }
func (u *fakeUnit) Commit(ctx context.Context) error              { u.committed = true; return nil }
func (u *fakeUnit) Rollback(ctx context.Context) error            { u.rolledBack = true; return nil }

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	factory := &fakeFactory{}
	var sawUnit bool
	ok := &counterBus{hook: func(ctx context.Context) {
		_, sawUnit = uow.FromContext(ctx)
	}}
	_, err := ChainCommands(ok, Transaction(factory, nil)).Dispatch(context.Background(), systemCommand{})
	require.NoError(t, err)
	assert.True(t, sawUnit)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)

	failing := &counterBus{err: errors.New("conflict")}
	_, err = ChainCommands(failing, Transaction(factory, nil)).Dispatch(context.Background(), systemCommand{})
	assert.Error(t, err)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

func TestSideEffectsRunOnlyAfterSuccess(t *testing.T) {
	var ran []string
	queue := func(name string) func(ctx context.Context) {
		return func(ctx context.Context) {
			sideeffects.Defer(ctx, nil, name, func(context.Context) error {
				ran = append(ran, name)
				return nil
			})
		}
	}

	ok := &counterBus{hook: queue("ok")}
	_, err := ChainCommands(ok, SideEffects(nil), Transaction(&fakeFactory{}, nil)).Dispatch(context.Background(), systemCommand{})
	require.NoError(t, err)

	failing := &counterBus{hook: queue("failed"), err: errors.New("rejected")}
	_, err = ChainCommands(failing, SideEffects(nil), Transaction(&fakeFactory{}, nil)).Dispatch(context.Background(), systemCommand{})
	assert.Error(t, err)

	assert.Equal(t, []string{"ok"}, ran)
}

type countingOutbox struct {
	flushes int
	err     error
}

func (o *countingOutbox) Add(ctx context.Context, record outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(ctx context.Context) error                          { o.flushes++; return o.err }

func TestOutboxFlushAfterSuccess(t *testing.T) {
	box := &countingOutbox{}
	_, err := ChainCommands(&counterBus{}, OutboxFlush(box, nil)).Dispatch(context.Background(), systemCommand{})
	require.NoError(t, err)
	_, err = ChainCommands(&counterBus{err: errors.New("x")}, OutboxFlush(box, nil)).Dispatch(context.Background(), systemCommand{})
	assert.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestOutboxFlushFailureKeepsCommittedResult(t *testing.T) {
	box := &countingOutbox{err: errors.New("broker down")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := ChainCommands(&counterBus{}, OutboxFlush(box, logger)).Dispatch(context.Background(), systemCommand{})
	require.NoError(t, err)
	assert.Equal(t, &reserveResult{Seq: 1}, res)
	assert.Equal(t, 1, box.flushes)
}

type rejectEmpty struct{}

func (rejectEmpty) Validate(_ context.Context, message any) error {
	if c, ok := message.(reserveCommand); ok && c.Ref == "" {
		return errors.New("ref required")
	}
	return nil
}

func TestGuardsRunInChainOrder(t *testing.T) {
	base := &counterBus{}
	bus := ChainCommands(base, Authorization(RequireActor{}), Validation(rejectEmpty{}))

	_, err := bus.Dispatch(context.Background(), reserveCommand{})
	assert.ErrorIs(t, err, ErrUnauthenticated, "authorization runs before validation")

	_, err = bus.Dispatch(context.Background(), reserveCommand{UserID: "u1"})
	assert.EqualError(t, err, "ref required")

	_, err = bus.Dispatch(context.Background(), reserveCommand{UserID: "u1", Ref: "r"})
	require.NoError(t, err)
	assert.Equal(t, 1, base.calls)
}

type failingRollbackUnit struct{ fakeUnit }

func (u *failingRollbackUnit) Rollback(ctx context.Context) error { return errors.New("rollback lost") }

type failingRollbackFactory struct{}

func (failingRollbackFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &failingRollbackUnit{}, nil
}

func TestTransactionJoinsRollbackError(t *testing.T) {
	conflict := errors.New("conflict")
	_, err := ChainCommands(&counterBus{err: conflict}, Transaction(failingRollbackFactory{}, nil)).Dispatch(context.Background(), systemCommand{})
	assert.ErrorIs(t, err, conflict)
	assert.ErrorContains(t, err, "rollback lost")
}

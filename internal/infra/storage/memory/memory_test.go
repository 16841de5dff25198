package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/middleware"
	appoutbox "rentshare/internal/app/outbox"
	domainbooking "rentshare/internal/domain/booking"
	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/daterange"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestItemRepositoryVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	item, err := domainitems.NewItem(domainitems.CreateParams{ID: "drill", OwnerID: "owner", Title: "Drill", DailyRate: 10, Now: now})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, item))
	assert.Equal(t, int64(1), item.Version)

	first, err := repo.ByID(ctx, "drill")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "drill")
	require.NoError(t, err)

	first.Title = "Cordless drill"
	require.NoError(t, repo.Save(ctx, first))
	second.Title = "Hammer drill"
	assert.ErrorIs(t, repo.Save(ctx, second), ErrVersionConflict)

	stored, err := repo.ByID(ctx, "drill")
	require.NoError(t, err)
	assert.Equal(t, "Cordless drill", stored.Title)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainitems.ErrItemNotFound)
}

func TestItemRepositorySearchPages(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	for i, title := range []string{"Tent", "Tent stakes", "Kayak"} {
		item, err := domainitems.NewItem(domainitems.CreateParams{
			ID:        domainitems.ItemID(title),
			OwnerID:   "owner",
			Title:     title,
			Category:  "outdoor",
			DailyRate: int64(10 * (i + 1)),
			Now:       now.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, item))
	}

	res, err := repo.Search(ctx, domainitems.SearchParams{Query: "tent", Sort: domainitems.SortByRateDesc, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Tent stakes", res.Items[0].Title)

	res, err = repo.Search(ctx, domainitems.SearchParams{Category: "outdoor", Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Items)
}

func TestBookingRepositoryCopiesAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	r, err := daterange.ParseRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: "b1", ItemID: "drill", BorrowerID: "u1", OwnerID: "owner", Range: r, CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	loaded, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Pending())
	require.NoError(t, loaded.Confirm(now))

	unsaved, err := repo.ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, unsaved.Status)

	require.NoError(t, repo.Save(ctx, loaded))
	assert.ErrorIs(t, repo.Save(ctx, unsaved), domainbooking.ErrConcurrentUpdate)

	confirmed, err := repo.ListByStatus(ctx, domainbooking.StatusConfirmed)
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)
	byOwner, err := repo.ListByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)
	byBorrower, err := repo.ListByBorrower(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, byBorrower)

	require.NoError(t, repo.Delete(ctx, "b1"))
	assert.ErrorIs(t, repo.Delete(ctx, "b1"), domainbooking.ErrBookingNotFound)
}

func TestChatStoreConversationsAndPaging(t *testing.T) {
	ctx := context.Background()
	store := NewChatStore()

	conv, err := store.GetOrCreateConversation(ctx, "drill", []string{"owner", "u1"}, now)
	require.NoError(t, err)
	again, err := store.GetOrCreateConversation(ctx, "drill", []string{"u1", "owner", "u1"}, now)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	_, err = store.GetOrCreateConversation(ctx, "drill", []string{"u1"}, now)
	assert.ErrorIs(t, err, domainchat.ErrParticipants)

	var ids []domainchat.MessageID
	for i := 0; i < 5; i++ {
		msg, err := store.SendMessage(ctx, &domainchat.Message{
			ID:             domainchat.MessageID(string(rune('a' + i))),
			ConversationID: conv.ID,
			SenderID:       "u1",
			Text:           "hello",
			CreatedAt:      now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	_, err = store.SendMessage(ctx, &domainchat.Message{ConversationID: conv.ID, SenderID: "stranger", Text: "hi"})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)

	page1, err := store.ListMessages(ctx, conv.ID, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page2, err := store.ListMessages(ctx, conv.ID, 2, page1[1].ID)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ID)

	listed, err := store.ListConversations(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, now.Add(4*time.Minute), listed[0].LastMessageAt)
}

func TestChatStoreReactions(t *testing.T) {
	ctx := context.Background()
	store := NewChatStore()
	conv, err := store.GetOrCreateConversation(ctx, "drill", []string{"owner", "u1"}, now)
	require.NoError(t, err)
	msg, err := store.SendMessage(ctx, &domainchat.Message{ID: "m1", ConversationID: conv.ID, SenderID: "u1", Text: "hi", CreatedAt: now})
	require.NoError(t, err)

	msg.Toggle("👍", "owner")
	require.NoError(t, store.SaveReactions(ctx, msg))

	loaded, err := store.Message(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, loaded.Reactions["👍"])

	assert.ErrorIs(t, store.SaveReactions(ctx, &domainchat.Message{ID: "nope"}), domainchat.ErrMessageNotFound)
}

func TestIdempotencyStoreExpiresAndKeepsFirst(t *testing.T) {
	store := NewIdempotencyStore(time.Hour)
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte("1"), OccurredAt: clock}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte("2"), OccurredAt: clock}))
	rec, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), rec.Payload)

	clock = clock.Add(2 * time.Hour)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutboxFlushKeepsBoundedHistory(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	for i := 0; i < outboxHistory+3; i++ {
		require.NoError(t, box.Add(ctx, appoutbox.EventRecord{Name: "item.listed"}))
	}
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{Name: "item.updated"}))
	assert.Len(t, box.Names(), outboxHistory+4)

	require.NoError(t, box.Flush(ctx))
	assert.Empty(t, box.Names())
	flushed := box.Flushed()
	assert.Len(t, flushed, outboxHistory)
	assert.Equal(t, "item.updated", flushed[len(flushed)-1])
}

package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainchat "rentshare/internal/domain/chat"
	"rentshare/internal/infra/storage/memory"
)

var clock = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Handlers, domainchat.ConversationID) {
	t.Helper()
	store := memory.NewChatStore()
	conv, err := store.GetOrCreateConversation(context.Background(), "drill", []string{"owner", "borrower"}, clock)
	require.NoError(t, err)
	return &Handlers{
		Store:  store,
		Filter: domainchat.NewContentFilter([]string{"scam"}),
		Now:    func() time.Time { return clock },
	}, conv.ID
}

func TestSendMessageFiltersAndChecksMembership(t *testing.T) {
	h, convID := setup(t)
	ctx := context.Background()

	msg, err := h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "borrower", ConversationID: string(convID), Text: "  not a SCAM, promise "})
	require.NoError(t, err)
	assert.Equal(t, "not a ****, promise", msg.Text)

	_, err = h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "stranger", ConversationID: string(convID), Text: "hi"})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)

	_, err = h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "owner", ConversationID: string(convID), Text: "   "})
	assert.ErrorIs(t, err, domainchat.ErrEmptyMessage)

	_, err = h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "owner", ConversationID: "missing", Text: "hi"})
	assert.ErrorIs(t, err, domainchat.ErrConversationNotFound)

	list, err := h.ListConversations().Handle(ctx, ListConversationsQuery{UserID: "owner"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "borrower", list.Items[0].LastMessageSender)
}

func TestToggleReaction(t *testing.T) {
	h, convID := setup(t)
	ctx := context.Background()
	msg, err := h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "borrower", ConversationID: string(convID), Text: "see you"})
	require.NoError(t, err)

	out, err := h.ToggleReaction().Handle(ctx, ToggleReactionCommand{UserID: "owner", MessageID: msg.ID, Emoji: "👍"})
	require.NoError(t, err)
	require.Len(t, out.Reactions, 1)
	assert.Equal(t, []string{"owner"}, out.Reactions[0].Users)

	out, err = h.ToggleReaction().Handle(ctx, ToggleReactionCommand{UserID: "owner", MessageID: msg.ID, Emoji: "👍"})
	require.NoError(t, err)
	assert.Empty(t, out.Reactions)

	_, err = h.ToggleReaction().Handle(ctx, ToggleReactionCommand{UserID: "stranger", MessageID: msg.ID, Emoji: "👍"})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)
}

func TestListMessagesPages(t *testing.T) {
	h, convID := setup(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.Now = func() time.Time { return clock.Add(time.Duration(i) * time.Minute) }
		_, err := h.SendMessage().Handle(ctx, SendMessageCommand{SenderID: "owner", ConversationID: string(convID), Text: "msg"})
		require.NoError(t, err)
	}

	page, err := h.ListMessages().Handle(ctx, ListMessagesQuery{UserID: "borrower", ConversationID: string(convID), Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := h.ListMessages().Handle(ctx, ListMessagesQuery{UserID: "borrower", ConversationID: string(convID), Limit: 2, Before: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	_, err = h.ListMessages().Handle(ctx, ListMessagesQuery{UserID: "stranger", ConversationID: string(convID)})
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)
}

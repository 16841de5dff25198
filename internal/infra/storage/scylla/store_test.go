package scylla

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"

	domainchat "rentshare/internal/domain/chat"
)

func TestConversationKeyUsesNormalizedParticipants(t *testing.T) {
	a := conversationKey("item-1", domainchat.NormalizeParticipants([]string{"u2", "u1"}))
	b := conversationKey("item-1", domainchat.NormalizeParticipants([]string{" u1", "u2", "u1"}))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, conversationKey("item-2", []string{"u1", "u2"}))
}

func TestRowsMapToDomain(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id := gocql.UUIDFromTime(at)
	conv := conversationRow{ID: id, ItemID: "item-1", Participants: []string{"a", "b"}, CreatedAt: at}.toDomain()
	assert.Equal(t, domainchat.ConversationID(id.String()), conv.ID)
	assert.True(t, conv.HasParticipant("b"))
	assert.Equal(t, at, conv.LastActivity())

	msg := messageRow{ConversationID: id, ID: id, SenderID: "a", Text: "hi", CreatedAt: at}.toDomain()
	assert.Equal(t, domainchat.MessageID(id.String()), msg.ID)
	assert.Equal(t, "hi", msg.Text)
}

func TestStoreWithoutSession(t *testing.T) {
	s := NewStore(nil, nil)
	_, err := s.ListConversations(t.Context(), "u1")
	assert.ErrorIs(t, err, errNoSession)
}

func TestPingWithoutSession(t *testing.T) {
	assert.ErrorIs(t, NewStore(nil, nil).Ping(t.Context()), errNoSession)
}

package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"rentshare/internal/domain/items"
)

var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrMessageNotFound      = errors.New("chat: message not found")
	ErrNotParticipant       = errors.New("chat: sender is not a participant")
	ErrEmptyMessage         = errors.New("chat: message text is empty")
	ErrMessageTooLong       = errors.New("chat: message text is too long")
	ErrEmptyReaction        = errors.New("chat: reaction is empty")
	ErrParticipants         = errors.New("chat: a conversation needs two distinct participants")
)

const MaxMessageLength = 4000

type ConversationID string

type MessageID string

type Conversation struct {
	ID                  ConversationID
	ItemID              items.ItemID
	Participants        []string
	CreatedAt           time.Time
	LastMessageAt       time.Time
	LastMessageSenderID string
	LastMessageText     string
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// LastActivity is the time of the latest message, or creation when empty.
func (c *Conversation) LastActivity() time.Time {
	if !c.LastMessageAt.IsZero() {
		return c.LastMessageAt
	}
	return c.CreatedAt
}

type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       string
	Text           string
	CreatedAt      time.Time
	// Reactions maps an emoji to the users that added it.
	Reactions map[string][]string
}

// Toggle adds userID to emoji, or removes it when already present. It reports
// whether the reaction is now set.
func (m *Message) Toggle(emoji, userID string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	users := m.Reactions[emoji]
	for i, u := range users {
		if u == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = users
			}
			return false
		}
	}
	m.Reactions[emoji] = append(users, userID)
	return true
}

// Store persists conversations and messages. Implementations live in
// infra/storage (memory and scylla).
type Store interface {
	GetOrCreateConversation(ctx context.Context, itemID items.ItemID, participants []string, now time.Time) (*Conversation, error)
	Conversation(ctx context.Context, id ConversationID) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*Conversation, error)
	SendMessage(ctx context.Context, msg *Message) (*Message, error)
	ListMessages(ctx context.Context, id ConversationID, limit int, before MessageID) ([]*Message, error)
	Message(ctx context.Context, id MessageID) (*Message, error)
	SaveReactions(ctx context.Context, msg *Message) error
}

// NormalizeParticipants trims, de-duplicates and sorts user ids so the same
// pair always maps to one conversation.
func NormalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func SameParticipants(a, b []string) bool {
	an, bn := NormalizeParticipants(a), NormalizeParticipants(b)
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if an[i] != bn[i] {
			return false
		}
	}
	return true
}

// Snippet trims text to at most max runes for conversation previews.
func Snippet(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}

// SortByActivity orders conversations newest first.
func SortByActivity(conversations []*Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastActivity().After(conversations[j].LastActivity())
	})
}

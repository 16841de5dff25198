package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/queries"
	domainchat "rentshare/internal/domain/chat"
)

const (
	sendMessageKey       = "chat.message.send"
	toggleReactionKey    = "chat.reaction.toggle"
	listConversationsKey = "chat.conversations.list"
	listMessagesKey      = "chat.messages.list"

	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

type SendMessageCommand struct {
	SenderID       string `json:"-" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required"`
	Text           string `json:"text" validate:"required"`
}

func (c SendMessageCommand) Key() string     { return sendMessageKey }
func (c SendMessageCommand) ActorID() string { return c.SenderID }

// ToggleReactionCommand adds the user's reaction, or removes it when present.
type ToggleReactionCommand struct {
	UserID    string `json:"-" validate:"required"`
	MessageID string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
}

func (c ToggleReactionCommand) Key() string     { return toggleReactionKey }
func (c ToggleReactionCommand) ActorID() string { return c.UserID }

type ListConversationsQuery struct {
	UserID string `json:"-" validate:"required"`
}

func (q ListConversationsQuery) Key() string     { return listConversationsKey }
func (q ListConversationsQuery) ActorID() string { return q.UserID }

// ListMessagesQuery pages backwards from Before, newest first.
type ListMessagesQuery struct {
	UserID         string `json:"-" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"required"`
	Limit          int    `json:"limit" validate:"gte=0"`
	Before         string `json:"before"`
}

func (q ListMessagesQuery) Key() string     { return listMessagesKey }
func (q ListMessagesQuery) ActorID() string { return q.UserID }

// Handlers serves chat commands and queries straight from the chat store; chat
// is not part of the booking unit of work.
type Handlers struct {
	Store  domainchat.Store
	Filter *domainchat.ContentFilter
	Logger *slog.Logger
	IDs    func() string
	Now    func() time.Time
}

func (h *Handlers) SendMessage() commands.Handler[SendMessageCommand, *dto.ChatMessage] {
	return commands.HandlerFunc[SendMessageCommand, *dto.ChatMessage](h.sendMessage)
}

func (h *Handlers) ToggleReaction() commands.Handler[ToggleReactionCommand, *dto.ChatMessage] {
	return commands.HandlerFunc[ToggleReactionCommand, *dto.ChatMessage](h.toggleReaction)
}

func (h *Handlers) ListConversations() queries.Handler[ListConversationsQuery, dto.ConversationList] {
	return queries.HandlerFunc[ListConversationsQuery, dto.ConversationList](h.listConversations)
}

func (h *Handlers) ListMessages() queries.Handler[ListMessagesQuery, dto.ChatMessageList] {
	return queries.HandlerFunc[ListMessagesQuery, dto.ChatMessageList](h.listMessages)
}

func (h *Handlers) sendMessage(ctx context.Context, cmd SendMessageCommand) (*dto.ChatMessage, error) {
	conv, err := h.participantConversation(ctx, domainchat.ConversationID(cmd.ConversationID), cmd.SenderID)
	if err != nil {
		return nil, err
	}
	text, err := h.Filter.Prepare(cmd.Text)
	if err != nil {
		return nil, err
	}
	msg, err := h.Store.SendMessage(ctx, &domainchat.Message{
		ID:             domainchat.MessageID(h.newID()),
		ConversationID: conv.ID,
		SenderID:       cmd.SenderID,
		Text:           text,
		CreatedAt:      h.now(),
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("chat message sent", "conversation_id", conv.ID, "message_id", msg.ID, "sender_id", msg.SenderID)
	}
	out := dto.MapMessage(msg)
	return &out, nil
}

func (h *Handlers) toggleReaction(ctx context.Context, cmd ToggleReactionCommand) (*dto.ChatMessage, error) {
	emoji := strings.TrimSpace(cmd.Emoji)
	if emoji == "" {
		return nil, domainchat.ErrEmptyReaction
	}
	msg, err := h.Store.Message(ctx, domainchat.MessageID(strings.TrimSpace(cmd.MessageID)))
	if err != nil {
		return nil, err
	}
	if _, err := h.participantConversation(ctx, msg.ConversationID, cmd.UserID); err != nil {
		return nil, err
	}
	added := msg.Toggle(emoji, cmd.UserID)
	if err := h.Store.SaveReactions(ctx, msg); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("chat reaction toggled", "message_id", msg.ID, "user_id", cmd.UserID, "emoji", emoji, "added", added)
	}
	out := dto.MapMessage(msg)
	return &out, nil
}

func (h *Handlers) listConversations(ctx context.Context, q ListConversationsQuery) (dto.ConversationList, error) {
	conversations, err := h.Store.ListConversations(ctx, q.UserID)
	if err != nil {
		return dto.ConversationList{}, err
	}
	domainchat.SortByActivity(conversations)
	out := make([]dto.Conversation, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, dto.MapConversation(c))
	}
	return dto.ConversationList{Items: out}, nil
}

func (h *Handlers) listMessages(ctx context.Context, q ListMessagesQuery) (dto.ChatMessageList, error) {
	conv, err := h.participantConversation(ctx, domainchat.ConversationID(q.ConversationID), q.UserID)
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	messages, err := h.Store.ListMessages(ctx, conv.ID, limit, domainchat.MessageID(strings.TrimSpace(q.Before)))
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	out := dto.ChatMessageList{Items: make([]dto.ChatMessage, 0, len(messages))}
	for _, m := range messages {
		out.Items = append(out.Items, dto.MapMessage(m))
	}
	if len(messages) == limit {
		out.NextCursor = string(messages[len(messages)-1].ID)
	}
	return out, nil
}

func (h *Handlers) participantConversation(ctx context.Context, id domainchat.ConversationID, userID string) (*domainchat.Conversation, error) {
	conv, err := h.Store.Conversation(ctx, domainchat.ConversationID(strings.TrimSpace(string(id))))
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, domainchat.ErrNotParticipant
	}
	return conv, nil
}

func (h *Handlers) newID() string {
	if h.IDs != nil {
		return h.IDs()
	}
	return uuid.NewString()
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

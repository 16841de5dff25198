package dto

import (
	"sort"
	"time"

	domainchat "rentshare/internal/domain/chat"
)

// Conversation describes chat metadata.
type Conversation struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"item_id,omitempty"`
	Participants      []string  `json:"participants"`
	CreatedAt         time.Time `json:"created_at"`
	LastMessageAt     time.Time `json:"last_message_at,omitempty"`
	LastMessageSender string    `json:"last_message_sender_id,omitempty"`
	LastMessageText   string    `json:"last_message_text,omitempty"`
}

type ConversationList struct {
	Items []Conversation `json:"items"`
}

type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
	Reactions      []Reaction `json:"reactions"`
}

// ChatMessageList is a page of messages, newest first.
type ChatMessageList struct {
	Items      []ChatMessage `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func MapConversation(c *domainchat.Conversation) Conversation {
	return Conversation{
		ID:                string(c.ID),
		ItemID:            string(c.ItemID),
		Participants:      append([]string{}, c.Participants...),
		CreatedAt:         c.CreatedAt,
		LastMessageAt:     c.LastMessageAt,
		LastMessageSender: c.LastMessageSenderID,
		LastMessageText:   c.LastMessageText,
	}
}

func MapMessage(m *domainchat.Message) ChatMessage {
	reactions := make([]Reaction, 0, len(m.Reactions))
	for emoji, users := range m.Reactions {
		reactions = append(reactions, Reaction{Emoji: emoji, Users: append([]string{}, users...)})
	}
	sort.Slice(reactions, func(i, j int) bool { return reactions[i].Emoji < reactions[j].Emoji })
	return ChatMessage{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		SenderID:       m.SenderID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
		Reactions:      reactions,
	}
}

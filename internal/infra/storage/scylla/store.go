package scylla

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gocql/gocql"

	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
)

const (
	snippetLength   = 140
	maxMessagesPage = 200

	conversationColumns = `id, item_id, participants, created_at, last_message_at, last_message_sender_id, last_message_text`
)

var errNoSession = errors.New("scylla session not initialized")

// Store keeps conversations and messages in Scylla. Message ids are time
// uuids so the clustering order doubles as the paging cursor.
type Store struct {
	session *gocql.Session
	logger  *slog.Logger
}

// NewStore builds a Store.
func NewStore(session *gocql.Session, logger *slog.Logger) *Store {
	return &Store{session: session, logger: logger}
}

// Ping reads the local node row, which needs no keyspace tables.
func (s *Store) Ping(ctx context.Context) error {
	if s.session == nil {
		return errNoSession
	}
	return s.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Exec()
}

func conversationKey(itemID domainitems.ItemID, participants []string) string {
	return string(itemID) + "|" + strings.Join(participants, ",")
}

func (s *Store) GetOrCreateConversation(ctx context.Context, itemID domainitems.ItemID, participants []string, now time.Time) (*domainchat.Conversation, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	members := domainchat.NormalizeParticipants(participants)
	if len(members) < 2 {
		return nil, domainchat.ErrParticipants
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	key := conversationKey(itemID, members)

	id := gocql.TimeUUID()
	existing := map[string]interface{}{}
	applied, err := s.session.
		Query(`INSERT INTO conversations_by_key (conversation_key, conversation_id) VALUES (?, ?) IF NOT EXISTS`, key, id).
		WithContext(ctx).
		MapScanCAS(existing)
	if err != nil {
		return nil, err
	}
	if !applied {
		storedID, ok := existing["conversation_id"].(gocql.UUID)
		if !ok {
			return nil, domainchat.ErrConversationNotFound
		}
		return s.conversation(ctx, storedID)
	}

	if err := s.session.
		Query(`INSERT INTO conversations (id, item_id, participants, created_at) VALUES (?, ?, ?, ?)`,
			id, string(itemID), members, now).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec(); err != nil {
		return nil, err
	}
	return &domainchat.Conversation{
		ID:           domainchat.ConversationID(id.String()),
		ItemID:       itemID,
		Participants: members,
		CreatedAt:    now,
	}, nil
}

func (s *Store) Conversation(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	uuid, err := gocql.ParseUUID(strings.TrimSpace(string(id)))
	if err != nil {
		return nil, domainchat.ErrConversationNotFound
	}
	return s.conversation(ctx, uuid)
}

func (s *Store) conversation(ctx context.Context, id gocql.UUID) (*domainchat.Conversation, error) {
	var row conversationRow
	err := s.session.
		Query(`SELECT `+conversationColumns+` FROM conversations WHERE id = ? LIMIT 1`, id).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(row.targets()...)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, domainchat.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]*domainchat.Conversation, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	iter := s.session.
		Query(`SELECT `+conversationColumns+` FROM conversations WHERE participants CONTAINS ? ALLOW FILTERING`, userID).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	var row conversationRow
	out := make([]*domainchat.Conversation, 0)
	for iter.Scan(row.targets()...) {
		out = append(out, row.toDomain())
		row = conversationRow{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	domainchat.SortByActivity(out)
	return out, nil
}

// SendMessage appends a message and updates the conversation preview. The
// stored id is a time uuid derived from CreatedAt.
func (s *Store) SendMessage(ctx context.Context, msg *domainchat.Message) (*domainchat.Message, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	conv, err := s.Conversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(msg.SenderID) {
		return nil, domainchat.ErrNotParticipant
	}
	convID, _ := gocql.ParseUUID(string(conv.ID))

	at := msg.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	messageID := gocql.UUIDFromTime(at)

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO messages (conversation_id, message_id, sender_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		convID, messageID, msg.SenderID, msg.Text, at)
	batch.Query(`INSERT INTO message_index (message_id, conversation_id) VALUES (?, ?)`, messageID, convID)
	if err := s.session.ExecuteBatch(batch); err != nil {
		return nil, err
	}

	if err := s.session.
		Query(`UPDATE conversations SET last_message_at = ?, last_message_sender_id = ?, last_message_text = ? WHERE id = ?`,
			at, msg.SenderID, domainchat.Snippet(msg.Text, snippetLength), convID).
		WithContext(ctx).
		Consistency(gocql.One).
		Exec(); err != nil && s.logger != nil {
		s.logger.Warn("failed to update last message meta", "error", err, "conversation_id", conv.ID)
	}
	return &domainchat.Message{
		ID:             domainchat.MessageID(messageID.String()),
		ConversationID: conv.ID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		CreatedAt:      at,
	}, nil
}

// ListMessages returns messages ordered from newest to oldest with an optional cursor.
func (s *Store) ListMessages(ctx context.Context, id domainchat.ConversationID, limit int, before domainchat.MessageID) ([]*domainchat.Message, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	convID, err := gocql.ParseUUID(string(id))
	if err != nil {
		return nil, domainchat.ErrConversationNotFound
	}
	if limit <= 0 || limit > maxMessagesPage {
		limit = maxMessagesPage
	}

	var iter *gocql.Iter
	if before != "" {
		cursor, err := gocql.ParseUUID(string(before))
		if err != nil {
			return nil, domainchat.ErrMessageNotFound
		}
		iter = s.session.
			Query(`SELECT conversation_id, message_id, sender_id, text, created_at FROM messages WHERE conversation_id = ? AND message_id < ? ORDER BY message_id DESC LIMIT ?`,
				convID, cursor, limit).
			WithContext(ctx).
			Consistency(gocql.One).
			Iter()
	} else {
		iter = s.session.
			Query(`SELECT conversation_id, message_id, sender_id, text, created_at FROM messages WHERE conversation_id = ? ORDER BY message_id DESC LIMIT ?`,
				convID, limit).
			WithContext(ctx).
			Consistency(gocql.One).
			Iter()
	}

	messages := make([]*domainchat.Message, 0, limit)
	var row messageRow
	for iter.Scan(row.targets()...) {
		messages = append(messages, row.toDomain())
		row = messageRow{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	for _, msg := range messages {
		reactions, err := s.reactions(ctx, msg.ID)
		if err != nil {
			return nil, err
		}
		msg.Reactions = reactions
	}
	return messages, nil
}

func (s *Store) Message(ctx context.Context, id domainchat.MessageID) (*domainchat.Message, error) {
	if s.session == nil {
		return nil, errNoSession
	}
	messageID, err := gocql.ParseUUID(string(id))
	if err != nil {
		return nil, domainchat.ErrMessageNotFound
	}
	var convID gocql.UUID
	err = s.session.
		Query(`SELECT conversation_id FROM message_index WHERE message_id = ?`, messageID).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&convID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, domainchat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	var row messageRow
	err = s.session.
		Query(`SELECT conversation_id, message_id, sender_id, text, created_at FROM messages WHERE conversation_id = ? AND message_id = ?`, convID, messageID).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(row.targets()...)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, domainchat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	msg := row.toDomain()
	if msg.Reactions, err = s.reactions(ctx, msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// SaveReactions replaces the reaction rows of a message.
func (s *Store) SaveReactions(ctx context.Context, msg *domainchat.Message) error {
	if s.session == nil {
		return errNoSession
	}
	messageID, err := gocql.ParseUUID(string(msg.ID))
	if err != nil {
		return domainchat.ErrMessageNotFound
	}
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM reactions WHERE message_id = ?`, messageID)
	for emoji, users := range msg.Reactions {
		if len(users) == 0 {
			continue
		}
		batch.Query(`INSERT INTO reactions (message_id, emoji, user_ids) VALUES (?, ?, ?)`, messageID, emoji, users)
	}
	return s.session.ExecuteBatch(batch)
}

func (s *Store) reactions(ctx context.Context, id domainchat.MessageID) (map[string][]string, error) {
	messageID, err := gocql.ParseUUID(string(id))
	if err != nil {
		return nil, err
	}
	iter := s.session.
		Query(`SELECT emoji, user_ids FROM reactions WHERE message_id = ?`, messageID).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()
	var (
		emoji string
		users []string
		out   map[string][]string
	)
	for iter.Scan(&emoji, &users) {
		if out == nil {
			out = make(map[string][]string)
		}
		out[emoji] = append([]string(nil), users...)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

type conversationRow struct {
	ID            gocql.UUID
	ItemID        string
	Participants  []string
	CreatedAt     time.Time
	LastMessageAt time.Time
	LastSenderID  string
	LastText      string
}

func (r *conversationRow) targets() []interface{} {
	return []interface{}{&r.ID, &r.ItemID, &r.Participants, &r.CreatedAt, &r.LastMessageAt, &r.LastSenderID, &r.LastText}
}

func (r conversationRow) toDomain() *domainchat.Conversation {
	return &domainchat.Conversation{
		ID:                  domainchat.ConversationID(r.ID.String()),
		ItemID:              domainitems.ItemID(r.ItemID),
		Participants:        append([]string(nil), r.Participants...),
		CreatedAt:           r.CreatedAt.UTC(),
		LastMessageAt:       r.LastMessageAt.UTC(),
		LastMessageSenderID: r.LastSenderID,
		LastMessageText:     r.LastText,
	}
}

type messageRow struct {
	ConversationID gocql.UUID
	ID             gocql.UUID
	SenderID       string
	Text           string
	CreatedAt      time.Time
}

func (r *messageRow) targets() []interface{} {
	return []interface{}{&r.ConversationID, &r.ID, &r.SenderID, &r.Text, &r.CreatedAt}
}

func (r messageRow) toDomain() *domainchat.Message {
	return &domainchat.Message{
		ID:             domainchat.MessageID(r.ID.String()),
		ConversationID: domainchat.ConversationID(r.ConversationID.String()),
		SenderID:       r.SenderID,
		Text:           r.Text,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

var _ domainchat.Store = (*Store)(nil)

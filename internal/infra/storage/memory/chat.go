package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
)

const snippetLength = 140

// ChatStore is the in-memory chat backend used when CHAT_STORE=memory.
type ChatStore struct {
	mu            sync.RWMutex
	conversations map[domainchat.ConversationID]*domainchat.Conversation
	byKey         map[string]domainchat.ConversationID
	messages      map[domainchat.ConversationID][]*domainchat.Message
	index         map[domainchat.MessageID]domainchat.ConversationID
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		conversations: make(map[domainchat.ConversationID]*domainchat.Conversation),
		byKey:         make(map[string]domainchat.ConversationID),
		messages:      make(map[domainchat.ConversationID][]*domainchat.Message),
		index:         make(map[domainchat.MessageID]domainchat.ConversationID),
	}
}

func conversationKey(itemID domainitems.ItemID, participants []string) string {
	return string(itemID) + "|" + strings.Join(participants, ",")
}

func (s *ChatStore) GetOrCreateConversation(ctx context.Context, itemID domainitems.ItemID, participants []string, now time.Time) (*domainchat.Conversation, error) {
	members := domainchat.NormalizeParticipants(participants)
	if len(members) < 2 {
		return nil, domainchat.ErrParticipants
	}
	key := conversationKey(itemID, members)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return cloneConversation(s.conversations[id]), nil
	}
	conv := &domainchat.Conversation{
		ID:           domainchat.ConversationID(uuid.NewString()),
		ItemID:       itemID,
		Participants: members,
		CreatedAt:    now.UTC(),
	}
	s.conversations[conv.ID] = conv
	s.byKey[key] = conv.ID
	return cloneConversation(conv), nil
}

func (s *ChatStore) Conversation(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domainchat.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (s *ChatStore) ListConversations(ctx context.Context, userID string) ([]*domainchat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domainchat.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, cloneConversation(conv))
		}
	}
	domainchat.SortByActivity(out)
	return out, nil
}

func (s *ChatStore) SendMessage(ctx context.Context, msg *domainchat.Message) (*domainchat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, domainchat.ErrConversationNotFound
	}
	if !conv.HasParticipant(msg.SenderID) {
		return nil, domainchat.ErrNotParticipant
	}
	stored := cloneMessage(msg)
	if stored.ID == "" {
		stored.ID = domainchat.MessageID(uuid.NewString())
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	s.messages[conv.ID] = append(s.messages[conv.ID], stored)
	s.index[stored.ID] = conv.ID

	conv.LastMessageAt = stored.CreatedAt
	conv.LastMessageSenderID = stored.SenderID
	conv.LastMessageText = domainchat.Snippet(stored.Text, snippetLength)
	return cloneMessage(stored), nil
}

// ListMessages returns up to limit messages older than before, newest first.
func (s *ChatStore) ListMessages(ctx context.Context, id domainchat.ConversationID, limit int, before domainchat.MessageID) ([]*domainchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[id]; !ok {
		return nil, domainchat.ErrConversationNotFound
	}
	all := s.messages[id]
	end := len(all)
	if before != "" {
		end = 0
		for i, m := range all {
			if m.ID == before {
				end = i
				break
			}
		}
	}
	out := make([]*domainchat.Message, 0)
	for i := end - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, cloneMessage(all[i]))
	}
	return out, nil
}

func (s *ChatStore) Message(ctx context.Context, id domainchat.MessageID) (*domainchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg := s.lookup(id)
	if msg == nil {
		return nil, domainchat.ErrMessageNotFound
	}
	return cloneMessage(msg), nil
}

func (s *ChatStore) SaveReactions(ctx context.Context, msg *domainchat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.lookup(msg.ID)
	if stored == nil {
		return domainchat.ErrMessageNotFound
	}
	stored.Reactions = cloneReactions(msg.Reactions)
	return nil
}

func (s *ChatStore) lookup(id domainchat.MessageID) *domainchat.Message {
	convID, ok := s.index[id]
	if !ok {
		return nil
	}
	for _, m := range s.messages[convID] {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func cloneConversation(c *domainchat.Conversation) *domainchat.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

func cloneMessage(m *domainchat.Message) *domainchat.Message {
	cp := *m
	cp.Reactions = cloneReactions(m.Reactions)
	return &cp
}

func cloneReactions(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, users := range in {
		out[k] = append([]string(nil), users...)
	}
	return out
}

var _ domainchat.Store = (*ChatStore)(nil)

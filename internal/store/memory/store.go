package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bibliafides/backend/internal/model/chat"
)

// Store keeps conversations and turns in process memory.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	turns         map[string][]chat.Turn
}

// New bootstraps an empty in-memory store.
func New() *Store {
	return &Store{
		conversations: make(map[string]chat.Conversation),
		turns:         make(map[string][]chat.Turn),
	}
}

func (s *Store) CreateConversation(_ context.Context, conversation chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conversation.ID] = conversation
	s.turns[conversation.ID] = make([]chat.Turn, 0, 16)
	return nil
}

func (s *Store) GetConversation(_ context.Context, conversationID string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, chat.ErrNotFound
	}
	return conversation, nil
}

func (s *Store) AppendTurn(_ context.Context, userID string, turn chat.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[turn.ConversationID]
	if !ok || conversation.UserID != userID {
		return chat.ErrNotFound
	}

	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], copyTurn(turn))
	conversation.UpdatedAt = turn.CreatedAt
	s.conversations[turn.ConversationID] = conversation
	return nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	conversations, err := s.ScanConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return conversations, nil
}

func (s *Store) ScanConversations(_ context.Context, userID string) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Conversation, 0)
	for _, conversation := range s.conversations {
		if conversation.UserID == userID {
			out = append(out, conversation)
		}
	}
	return out, nil
}

func (s *Store) ListTurns(_ context.Context, conversationID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}

	copied := make([]chat.Turn, len(turns))
	for i, turn := range turns {
		copied[i] = copyTurn(turn)
	}
	return copied, nil
}

func copyTurn(turn chat.Turn) chat.Turn {
	if turn.Answer != nil {
		answer := *turn.Answer
		if answer.ReferenceAPI != nil {
			ref := *answer.ReferenceAPI
			answer.ReferenceAPI = &ref
		}
		turn.Answer = &answer
	}
	return turn
}

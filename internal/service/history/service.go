package history

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/chat"
)

var (
	// ErrStoreUnavailable wraps any failure of the underlying store on a write.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrConversationNotFound is returned when the conversation does not exist
	// or belongs to another user.
	ErrConversationNotFound = errors.New("conversation not found")
)

const (
	// DefaultTitleLength is the number of runes kept from the first message.
	DefaultTitleLength = 30
	// DefaultTitle replaces a blank stored title.
	DefaultTitle = "Nova Conversa"

	titleSuffix = "..."
)

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTitleLength overrides the title prefix length.
func WithTitleLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.titleLength = n
		}
	}
}

// Service persists conversations and turns on top of a chat.Store. Reads never
// fail: store errors are logged and an empty result is returned.
type Service struct {
	store       chat.Store
	log         *logger.Logger
	now         func() time.Time
	titleLength int
}

// NewService wraps store.
func NewService(store chat.Store, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         log.With("component", "history"),
		now:         func() time.Time { return time.Now().UTC() },
		titleLength: DefaultTitleLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Title derives the display title of a conversation from its first message.
func Title(firstText string, length int) string {
	runes := []rune(firstText)
	if len(runes) > length {
		runes = runes[:length]
	}
	return string(runes) + titleSuffix
}

// CreateConversation stores a new conversation owned by userID and returns its id.
func (s *Service) CreateConversation(ctx context.Context, userID, firstText string) (string, error) {
	now := s.now()
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     Title(firstText, s.titleLength),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		s.log.Error("create conversation failed", "user", userID, "error", err)
		return "", errors.Join(ErrStoreUnavailable, err)
	}

	s.log.Debug("conversation created", "user", userID, "conversation", conv.ID)
	return conv.ID, nil
}

// AppendTurn stores one question with its answer in a conversation owned by
// userID, bumps the conversation's update time and returns the stored turn.
func (s *Service) AppendTurn(ctx context.Context, userID, conversationID, userText string, answer chat.BibleResponse) (chat.Turn, error) {
	turn := chat.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Question:       userText,
		Answer:         &answer,
		CreatedAt:      s.now(),
	}

	if err := s.store.AppendTurn(ctx, userID, turn); err != nil {
		s.log.Error("append turn failed", "conversation", conversationID, "error", err)
		if errors.Is(err, chat.ErrNotFound) {
			return chat.Turn{}, ErrConversationNotFound
		}
		return chat.Turn{}, errors.Join(ErrStoreUnavailable, err)
	}
	return turn, nil
}

// Conversation returns the conversation if it exists and is owned by userID.
func (s *Service) Conversation(ctx context.Context, userID, conversationID string) (chat.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, chat.ErrNotFound) {
		return chat.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		s.log.Error("load conversation failed", "conversation", conversationID, "error", err)
		return chat.Conversation{}, errors.Join(ErrStoreUnavailable, err)
	}
	if conv.UserID != userID {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return normalizeConversation(conv), nil
}

// ListConversations returns the user's conversations, most recently updated
// first. When the ordered query fails it retries unordered and sorts locally.
func (s *Service) ListConversations(ctx context.Context, userID string) []chat.Conversation {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		s.log.Warn("ordered conversation listing failed, sorting locally", "user", userID, "error", err)

		convs, err = s.store.ScanConversations(ctx, userID)
		if err != nil {
			s.log.Error("conversation listing failed", "user", userID, "error", err)
			return []chat.Conversation{}
		}
		sort.SliceStable(convs, func(i, j int) bool {
			if !convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
				return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
			}
			return convs[i].CreatedAt.After(convs[j].CreatedAt)
		})
	}

	out := make([]chat.Conversation, 0, len(convs))
	for _, conv := range convs {
		if conv.ID == "" {
			continue
		}
		out = append(out, normalizeConversation(conv))
	}
	return out
}

// ListTurns returns the conversation's turns, oldest first. Turns with an empty
// question are dropped; answers that fail validation are cleared.
func (s *Service) ListTurns(ctx context.Context, conversationID string) []chat.Turn {
	turns, err := s.store.ListTurns(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, chat.ErrNotFound) {
			s.log.Error("turn listing failed", "conversation", conversationID, "error", err)
		}
		return []chat.Turn{}
	}

	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})

	out := make([]chat.Turn, 0, len(turns))
	for _, turn := range turns {
		if strings.TrimSpace(turn.Question) == "" {
			s.log.Warn("dropping stored turn without question", "turn", turn.ID)
			continue
		}
		if turn.Answer != nil {
			if err := turn.Answer.Validate(); err != nil {
				s.log.Warn("clearing invalid stored answer", "turn", turn.ID, "error", err)
				turn.Answer = nil
			}
		}
		out = append(out, turn)
	}
	return out
}

func normalizeConversation(conv chat.Conversation) chat.Conversation {
	if strings.TrimSpace(conv.Title) == "" {
		conv.Title = DefaultTitle
	}
	return conv
}

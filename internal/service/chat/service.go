package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibliafides/backend/internal/lock"
	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/chat"
	aiService "github.com/bibliafides/backend/internal/service/ai"
	"github.com/bibliafides/backend/internal/service/history"
)

var (
	ErrEmptyMessage         = errors.New("message text is required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTurnInFlight         = errors.New("a reply is already being generated for this conversation")
)

// Answerer produces a validated answer for one question.
type Answerer interface {
	Answer(ctx context.Context, userText string) (chat.BibleResponse, error)
}

// TurnResult is what a submitted message yields: the user message and the bot
// reply. ConversationID is empty when a new conversation could not be stored.
type TurnResult struct {
	ConversationID string         `json:"conversationId"`
	Messages       []chat.Message `json:"messages"`
	Persisted      bool           `json:"persisted"`
}

// Service runs chat turns: gate, generate, persist.
type Service struct {
	answers Answerer
	history *history.Service
	gate    lock.Gate
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires the turn pipeline.
func NewService(answers Answerer, hist *history.Service, gate lock.Gate, log *logger.Logger) *Service {
	return &Service{
		answers: answers,
		history: hist,
		gate:    gate,
		log:     log.With("component", "chat"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Send answers text within conversationID, or within a new conversation when
// conversationID is empty. A failed generation still yields a bot message
// carrying the labeled error answer; nothing is persisted for it. A turn whose
// conversation owner cannot be verified is answered but not saved. Once
// started, a turn runs to completion even if ctx is cancelled.
func (s *Service) Send(ctx context.Context, userID, conversationID, text string) (TurnResult, error) {
	ctx = context.WithoutCancel(ctx)
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	key := "new:" + userID
	owned := true
	if conversationID != "" {
		key = conversationID
		if _, err := s.history.Conversation(ctx, userID, conversationID); err != nil {
			if errors.Is(err, history.ErrConversationNotFound) {
				return TurnResult{}, ErrConversationNotFound
			}
			s.log.Warn("conversation ownership unverified, turn will not be saved", "conversation", conversationID, "error", err)
			owned = false
		}
	}

	release, err := s.gate.TryAcquire(ctx, key)
	if errors.Is(err, lock.ErrBusy) {
		return TurnResult{}, ErrTurnInFlight
	}
	if err != nil {
		return TurnResult{}, fmt.Errorf("acquire turn gate: %w", err)
	}
	defer release()

	answer, err := s.answers.Answer(ctx, text)
	if err != nil {
		s.log.Error("generation failed", "user", userID, "conversation", conversationID, "error", err)
		return s.failedTurn(conversationID, text, err), nil
	}

	result := TurnResult{ConversationID: conversationID}
	if !owned {
		result.Messages = Assemble([]chat.Turn{s.localTurn(conversationID, text, &answer)})
		return result, nil
	}

	turn, persisted := s.persist(ctx, userID, &result.ConversationID, text, answer)
	result.Messages = Assemble([]chat.Turn{turn})
	result.Persisted = persisted
	return result, nil
}

// persist stores the turn, creating the conversation first when needed. On
// failure the turn is returned unsaved and the reply is still delivered.
func (s *Service) persist(ctx context.Context, userID string, conversationID *string, text string, answer chat.BibleResponse) (chat.Turn, bool) {
	if *conversationID == "" {
		id, err := s.history.CreateConversation(ctx, userID, text)
		if err != nil {
			s.log.Error("turn not saved: conversation could not be created", "user", userID, "error", err)
			return s.localTurn("", text, &answer), false
		}
		*conversationID = id
	}

	turn, err := s.history.AppendTurn(ctx, userID, *conversationID, text, answer)
	if err != nil {
		s.log.Error("turn not saved", "conversation", *conversationID, "error", err)
		return s.localTurn(*conversationID, text, &answer), false
	}
	return turn, true
}

func (s *Service) failedTurn(conversationID, text string, cause error) TurnResult {
	fallback := aiService.ErrorAnswer(cause)
	messages := Assemble([]chat.Turn{s.localTurn(conversationID, text, &fallback)})
	messages[len(messages)-1].Failed = true

	return TurnResult{
		ConversationID: conversationID,
		Messages:       messages,
		Persisted:      false,
	}
}

func (s *Service) localTurn(conversationID, text string, answer *chat.BibleResponse) chat.Turn {
	return chat.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Question:       text,
		Answer:         answer,
		CreatedAt:      s.now(),
	}
}

// Conversations lists the user's conversations, most recent first. It never
// fails; an unavailable store yields an empty list.
func (s *Service) Conversations(ctx context.Context, userID string) []chat.Conversation {
	return s.history.ListConversations(ctx, userID)
}

// Transcript returns the conversation replayed as display messages.
func (s *Service) Transcript(ctx context.Context, userID, conversationID string) ([]chat.Message, error) {
	if _, err := s.history.Conversation(ctx, userID, conversationID); err != nil {
		if errors.Is(err, history.ErrConversationNotFound) {
			return nil, ErrConversationNotFound
		}
		return []chat.Message{}, nil
	}
	return Assemble(s.history.ListTurns(ctx, conversationID)), nil
}

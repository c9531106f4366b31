package chat

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists conversations and their turns.
type Store interface {
	CreateConversation(ctx context.Context, conversation Conversation) error
	GetConversation(ctx context.Context, conversationID string) (Conversation, error)
	// AppendTurn stores the turn and moves the parent conversation's UpdatedAt
	// to the turn's CreatedAt. It returns ErrNotFound unless the conversation
	// exists and belongs to userID.
	AppendTurn(ctx context.Context, userID string, turn Turn) error
	// ListConversations returns the user's conversations, most recently updated first.
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	// ScanConversations returns the user's conversations in no particular order.
	ScanConversations(ctx context.Context, userID string) ([]Conversation, error)
	// ListTurns returns the conversation's turns, oldest first.
	ListTurns(ctx context.Context, conversationID string) ([]Turn, error)
}

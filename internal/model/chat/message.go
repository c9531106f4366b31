package chat

import "time"

// MessageType identifies the author of a message.
type MessageType string

const (
	MessageUser MessageType = "USER"
	MessageBot  MessageType = "BOT"
)

// Message is one displayable entry of a conversation. User messages carry Text,
// bot messages carry Answer.
type Message struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Text      string         `json:"text,omitempty"`
	Answer    *BibleResponse `json:"answer,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Failed    bool           `json:"failed,omitempty"`
}

// Turn persists one question together with the answer it produced.
type Turn struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversationId"`
	Question       string         `json:"pergunta"`
	Answer         *BibleResponse `json:"answer,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

package chat

import "github.com/bibliafides/backend/internal/model/chat"

// Assemble expands stored turns into display messages: one user message per
// turn followed by its bot message when an answer exists. Order is preserved.
func Assemble(turns []chat.Turn) []chat.Message {
	messages := make([]chat.Message, 0, 2*len(turns))
	for _, turn := range turns {
		messages = append(messages, chat.Message{
			ID:        turn.ID + "_user",
			Type:      chat.MessageUser,
			Text:      turn.Question,
			Timestamp: turn.CreatedAt,
		})
		if turn.Answer == nil {
			continue
		}
		answer := *turn.Answer
		messages = append(messages, chat.Message{
			ID:        turn.ID + "_bot",
			Type:      chat.MessageBot,
			Answer:    &answer,
			Timestamp: turn.CreatedAt,
		})
	}
	return messages
}

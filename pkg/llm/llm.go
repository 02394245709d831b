// Package llm provides the chat-completion client used by the intent
// classifier, plus tolerant JSON decoding of model output.
package llm

import (
	"context"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage builds a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// NewUserMessage builds a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Response is a completed chat turn.
type Response struct {
	Content string `json:"content"`
}

// Client completes chat conversations.
type Client interface {
	Chat(ctx context.Context, messages []Message) (*Response, error)
}

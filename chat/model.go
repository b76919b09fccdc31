// Package chat keeps the conversations shown in chat windows and produces
// simulated replies from the models selected in each one.
package chat

import (
	"errors"
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Model     string    `json:"model,omitempty"` // set on assistant messages
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is one chat window's history and model selection.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Models    []string  `json:"models"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Conversation) clone() Conversation {
	c.Models = slices.Clone(c.Models)
	c.Messages = slices.Clone(c.Messages)
	if c.Models == nil {
		c.Models = []string{}
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return c
}

// Event is one step of a streamed reply.
type Event struct {
	Type    string   `json:"type"` // "message", "chunk", "done" or "error"
	Model   string   `json:"model,omitempty"`
	Data    string   `json:"data,omitempty"`
	Message *Message `json:"message,omitempty"`
}

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrNoModels     = errors.New("no models selected")
	ErrEmptyMessage = errors.New("message is empty")
)

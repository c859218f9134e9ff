// Package model defines data structures for the trip assistant.
package model

import (
	"time"
)

// Role represents the role of a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role may appear in a conversation sent to the model.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// MessageType tags an assistant turn as plain text or an executed action.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeAction MessageType = "action"
)

// Turn is one message in a user's conversation.
type Turn struct {
	ID             string      `json:"id" db:"id"`
	UserID         string      `json:"user_id" db:"user_id"`
	Role           Role        `json:"role" db:"role"`
	Content        string      `json:"message" db:"message"`
	MessageType    MessageType `json:"message_type" db:"message_type"`
	RawModelOutput *string     `json:"raw_model_output,omitempty" db:"raw_model_output"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Package domain contains core concepts of the chat system.
// This file defines Message entities. Messages are validated by the services
// layer and persisted by the repositories layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message inside a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Sender         UserID    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Deleted        bool      `json:"deleted,omitempty"`
	ReadBy         []UserID  `json:"read_by,omitempty"`
}

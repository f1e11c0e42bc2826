package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups participants exchanging messages.
// Participants is the authoritative recipient list for every event produced
// about this conversation.
type Conversation struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Creator      UserID    `json:"creator"`
	Participants []UserID  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c Conversation) HasParticipant(id UserID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

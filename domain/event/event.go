// Package event defines the domain events fanned out to live connections.
// The dispatcher is agnostic to payload shapes: it only sees a kind, opaque
// payload bytes, and a recipient set.
package event

import (
	"chat-relay/domain"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of event kinds exposed to clients.
type Kind string

const (
	UserOnline          Kind = "user.online"
	UserOffline         Kind = "user.offline"
	MessageCreated      Kind = "message.created"
	MessageUpdated      Kind = "message.updated"
	MessageDeleted      Kind = "message.deleted"
	MessageRead         Kind = "message.read"
	ParticipantsJoined  Kind = "participants.joined"
	ParticipantLeft     Kind = "participant.left"
	ParticipantRemoved  Kind = "participant.removed"
	ConversationCreated Kind = "conversation.created"
)

// DomainEvent is a single fan-out unit: an already-resolved payload addressed
// to a set of logical recipients. Ephemeral, never persisted.
type DomainEvent struct {
	Kind       Kind
	Payload    json.RawMessage
	Recipients []domain.UserID
}

// New marshals the payload once and builds the event.
func New(kind Kind, payload any, recipients []domain.UserID) (DomainEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, err
	}
	return DomainEvent{Kind: kind, Payload: raw, Recipients: recipients}, nil
}

// frame is the JSON envelope written to a connection.
type frame struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ts      int64           `json:"ts"`
}

// Frame encodes the wire envelope for this event.
func (e DomainEvent) Frame(now time.Time) ([]byte, error) {
	return json.Marshal(frame{Kind: e.Kind, Payload: e.Payload, Ts: now.UnixMilli()})
}

// PresencePayload is carried by user.online and user.offline events.
type PresencePayload struct {
	UserID domain.UserID `json:"user_id"`
}

// MembershipPayload is carried by participant change events.
type MembershipPayload struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	UserIDs        []domain.UserID `json:"user_ids"`
}

// ReadPayload is carried by message.read events.
type ReadPayload struct {
	ConversationID uuid.UUID     `json:"conversation_id"`
	MessageID      uuid.UUID     `json:"message_id"`
	Reader         domain.UserID `json:"reader"`
}

// DeliveryReport is the best-effort outcome of one Dispatch call.
// Offline counts recipients that had no live connection at lookup time.
type DeliveryReport struct {
	Recipients int
	Delivered  int
	Failed     int
	Offline    int
}

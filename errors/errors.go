package errors

import "fmt"

var (
	// Connection handshake failures. Both terminate the connection attempt
	// before any registry mutation.
	ErrMissingCredential = fmt.Errorf("missing bearer credential")
	ErrInvalidCredential = fmt.Errorf("invalid or expired credential")

	// ErrRegistryUnavailable signals that the presence backing store could not
	// be reached. Callers keep the connection open and degrade instead of
	// failing the operation.
	ErrRegistryUnavailable = fmt.Errorf("presence registry unavailable")

	// ErrUnknownConnection is returned when a push targets a connection id the
	// local table no longer holds.
	ErrUnknownConnection = fmt.Errorf("unknown connection")

	// ErrSendBufferFull is returned when a connection's outbound buffer is
	// saturated. The push is dropped, not queued.
	ErrSendBufferFull = fmt.Errorf("connection send buffer full")

	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrNotParticipant       = fmt.Errorf("user is not a participant of the conversation")
	ErrNotSender            = fmt.Errorf("user is not the sender of the message")

	ErrEmptyCensoredWords = fmt.Errorf("no censored words have been provided")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

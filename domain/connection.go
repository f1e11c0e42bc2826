package domain

import "time"

// Connection is the handle for one live transport session of a user, one of
// potentially several (multi-device). The transport layer owns the underlying
// socket; the presence registry only indexes the ID.
type Connection struct {
	ID          string
	Owner       UserID
	ConnectedAt time.Time
}

// Package domain contains core concepts of the chat system.
// This file defines user identity. Identities are created by the auth
// service and only referenced everywhere else.
package domain

// UserID is the opaque key identifying an authenticated principal.
type UserID string

func (u UserID) String() string {
	return string(u)
}

// Package domain contains core concepts of the chat system.
// This file defines users and the identity used to route messages to them.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Identity is the username of a user. It is the single routing key used by
// direct delivery, group membership and the connection registry.
type Identity string

func (i Identity) String() string { return string(i) }

type User struct {
	ID           string
	Username     Identity
	PasswordHash string
	CreatedAt    time.Time
}

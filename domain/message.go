// Package domain contains core concepts of the chat system.
// This file defines Message and related rules.
// Messages are immutable once created by ingestion.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	DirectMessage MessageKind = "direct"
	GroupMessage  MessageKind = "group"
)

// Message represents an immutable chat message.
// Receiver is set for direct messages, GroupID for group messages.
type Message struct {
	ID        uuid.UUID
	Kind      MessageKind
	Sender    Identity
	Receiver  Identity
	GroupID   GroupID
	Content   string
	CreatedAt time.Time
}

func NewDirectMessage(sender, receiver Identity, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      DirectMessage,
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: at,
	}
}

func NewGroupMessage(sender Identity, groupID GroupID, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      GroupMessage,
		Sender:    sender,
		GroupID:   groupID,
		Content:   content,
		CreatedAt: at,
	}
}

func (m Message) IsGroup() bool { return m.Kind == GroupMessage }

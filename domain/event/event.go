package event

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	NewMessageType      Type = "newMessage"
	NewGroupMessageType Type = "newGroupMessage"
)

// DomainEvent is pushed to live connections by the delivery router.
type DomainEvent interface {
	EventType() Type
}

type NewMessage struct {
	MessageID uuid.UUID `json:"messageId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (NewMessage) EventType() Type { return NewMessageType }

type NewGroupMessage struct {
	MessageID uuid.UUID `json:"messageId"`
	GroupID   string    `json:"groupId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (NewGroupMessage) EventType() Type { return NewGroupMessageType }

// FromMessage builds the event announcing a persisted message.
func FromMessage(m domain.Message) DomainEvent {
	if m.IsGroup() {
		return NewGroupMessage{
			MessageID: m.ID,
			GroupID:   string(m.GroupID),
			Sender:    m.Sender.String(),
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		}
	}
	return NewMessage{
		MessageID: m.ID,
		Sender:    m.Sender.String(),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}
}

// Envelope is the wire format of an event on the live channel.
type Envelope struct {
	Type Type        `json:"type"`
	Data DomainEvent `json:"data"`
}

func Wrap(e DomainEvent) Envelope {
	return Envelope{Type: e.EventType(), Data: e}
}

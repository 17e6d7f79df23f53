// Package chat holds the commands accepted by the ingestion API.
package chat

import "chat-relay/domain"

type SendDirectCommand struct {
	Sender   domain.Identity
	Receiver domain.Identity `validate:"required"`
	Content  string
}

type SendGroupCommand struct {
	Sender  domain.Identity
	GroupID domain.GroupID `validate:"required"`
	Content string
}

type ListMessagesCommand struct {
	Identity domain.Identity
	Cursor   *string
	Limit    int `validate:"gte=0"`
}

type ListGroupMessagesCommand struct {
	Identity domain.Identity
	GroupID  domain.GroupID `validate:"required"`
	Cursor   *string
	Limit    int `validate:"gte=0"`
}

type CreateGroupCommand struct {
	Creator domain.Identity
	Name    string            `validate:"required,max=64"`
	Members []domain.Identity `validate:"max=256,dive,required"`
}

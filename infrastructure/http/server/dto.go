package server

import (
	"chat-relay/domain"
	"time"

	"github.com/samber/lo"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendDirectRequest struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

type sendGroupRequest struct {
	Content string `json:"content"`
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type messagePageResponse struct {
	Messages   []messageResponse `json:"messages"`
	NextCursor *string           `json:"nextCursor"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	Admins    []string  `json:"admins"`
	CreatedAt time.Time `json:"createdAt"`
}

type attachmentResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username.String(), CreatedAt: u.CreatedAt}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		Sender:    m.Sender.String(),
		Receiver:  m.Receiver.String(),
		GroupID:   string(m.GroupID),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse { return toMessageResponse(m) })
}

func toGroupResponse(g domain.Group) groupResponse {
	return groupResponse{
		ID:        string(g.ID),
		Name:      g.Name,
		Members:   toStrings(g.Members),
		Admins:    toStrings(g.Admins),
		CreatedAt: g.CreatedAt,
	}
}

func toAttachmentResponse(a domain.Attachment) attachmentResponse {
	return attachmentResponse{
		Filename:     a.StoredName,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		Size:         a.Size,
	}
}

func toStrings(identities []domain.Identity) []string {
	return lo.Map(identities, func(i domain.Identity, _ int) string { return i.String() })
}

func toIdentities(names []string) []domain.Identity {
	return lo.Map(names, func(n string, _ int) domain.Identity { return domain.Identity(n) })
}

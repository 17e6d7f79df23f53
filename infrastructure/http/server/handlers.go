package server

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.registry.Count(),
	})
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := s.services.Auth.Register(req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := s.services.Auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{AccessToken: token.String()})
}

func (s *Server) handleSendDirect(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req sendDirectRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	message, err := s.services.Chat.SendDirect(c.Request().Context(), chat.SendDirectCommand{
		Sender:   identity,
		Receiver: domain.Identity(req.Receiver),
		Content:  req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMessageResponse(message))
}

func (s *Server) handleListMessages(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	cursor, limit, err := pagination(c)
	if err != nil {
		return err
	}
	messages, next, err := s.services.Chat.ListMessages(chat.ListMessagesCommand{
		Identity: identity,
		Cursor:   cursor,
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagePageResponse{Messages: toMessagesResponse(messages), NextCursor: next})
}

func (s *Server) handleSearch(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	messages, err := s.services.Chat.Search(c.Request().Context(), identity, c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMessagesResponse(messages))
}

func (s *Server) handleCreateGroup(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req createGroupRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	group, err := s.services.Groups.CreateGroup(chat.CreateGroupCommand{
		Creator: identity,
		Name:    req.Name,
		Members: toIdentities(req.Members),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	groups, err := s.services.Groups.ListGroups(identity)
	if err != nil {
		return err
	}
	response := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		response = append(response, toGroupResponse(g))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleSendGroup(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req sendGroupRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	message, err := s.services.Chat.SendGroup(c.Request().Context(), chat.SendGroupCommand{
		Sender:  identity,
		GroupID: domain.GroupID(c.Param("groupId")),
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMessageResponse(message))
}

func (s *Server) handleListGroupMessages(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	cursor, limit, err := pagination(c)
	if err != nil {
		return err
	}
	messages, next, err := s.services.Chat.ListGroupMessages(chat.ListGroupMessagesCommand{
		Identity: identity,
		GroupID:  domain.GroupID(c.Param("groupId")),
		Cursor:   cursor,
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagePageResponse{Messages: toMessagesResponse(messages), NextCursor: next})
}

func (s *Server) handleUpload(c echo.Context) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: no file uploaded", errors.ErrInvalidRequest)
	}
	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	defer func() { _ = file.Close() }()

	attachment, err := s.services.Files.Upload(identity, header.Filename, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAttachmentResponse(attachment))
}

func (s *Server) handleDownload(c echo.Context) error {
	attachment, content, err := s.services.Files.Download(c.Param("filename"))
	if err != nil {
		return err
	}
	defer func() { _ = content.Close() }()

	c.Response().Header().Set(echo.HeaderContentType, attachment.MimeType)
	http.ServeContent(c.Response(), c.Request(), attachment.StoredName, time.Time{}, content)
	return nil
}

func bind(c echo.Context, out any) error {
	if err := c.Bind(out); err != nil {
		return fmt.Errorf("%w: malformed body", errors.ErrInvalidRequest)
	}
	return nil
}

// pagination reads the optional "cursor" and "limit" query parameters.
func pagination(c echo.Context) (*string, int, error) {
	var cursor *string
	if raw := c.QueryParam("cursor"); raw != "" {
		cursor = &raw
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, 0, fmt.Errorf("%w: limit must be a positive integer", errors.ErrInvalidRequest)
		}
		limit = n
	}
	return cursor, limit, nil
}

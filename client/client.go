// Package client talks to a chat-relay server: the JSON API for requests and
// the websocket channel for live events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	MessageID string    `json:"messageId"`
	GroupID   string    `json:"groupId,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Page struct {
	Messages   []Message `json:"messages"`
	NextCursor *string   `json:"nextCursor"`
}

type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// APIError is a non 2xx answer of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/register", credentials{username, password}, nil)
}

// Login keeps the issued token for the following calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var response struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", credentials{username, password}, &response); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = response.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) SendDirect(ctx context.Context, receiver, content string) (Message, error) {
	var message Message
	body := map[string]string{"receiver": receiver, "content": content}
	err := c.do(ctx, http.MethodPost, "/messages", body, &message)
	return message, err
}

func (c *Client) SendGroup(ctx context.Context, groupID, content string) (Message, error) {
	var message Message
	body := map[string]string{"content": content}
	err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/messages", body, &message)
	return message, err
}

func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	err := c.do(ctx, http.MethodGet, "/groups", nil, &groups)
	return groups, err
}

// History returns one page of direct messages, newest first.
func (c *Client) History(ctx context.Context, cursor string, limit int) (Page, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/messages"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var page Page
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

// Listen opens the live channel and calls handle for every event until ctx
// is cancelled or the server closes the connection.
func (c *Client) Listen(ctx context.Context, handle func(Event)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws?token=" + url.QueryEscape(c.currentToken())
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var evt Event
		if err = conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		handle(evt)
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if token := c.currentToken(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&failure)
		return &APIError{Status: response.StatusCode, Message: failure.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

// Package client is a Go client for the Parley chat service. It wraps the
// REST API, the real-time WebSocket connection, and the bridge between the
// two: messages are stored over REST first, then announced on the socket
// with the exact document the server returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a REST API client. It stores the bearer token returned by
// Register or Login and sends it on every subsequent request.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a Client for the service at baseURL (e.g. "http://localhost:5001").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current bearer token, empty before authentication.
func (c *Client) Token() string {
	return c.token
}

// SetToken installs an existing bearer token, skipping Register/Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// AuthResult is the profile-plus-token document returned by register and
// login.
type AuthResult struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Pic   string `json:"pic,omitempty"`
	Token string `json:"token"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password, pic string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/user/register", map[string]string{
		"name": name, "email": email, "password": password, "pic": pic,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/user/login", map[string]string{
		"email": email, "password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// SearchUsers returns users matching the term, excluding the requester.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]User, error) {
	var users []User
	path := "/api/user?search=" + url.QueryEscape(term)
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AccessChat finds or creates the one-to-one chat with the given user.
func (c *Client) AccessChat(ctx context.Context, userID string) (*Chat, error) {
	var chat Chat
	if err := c.do(ctx, http.MethodPost, "/api/chat", map[string]string{"userId": userID}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats returns the authenticated user's chats, most recently active
// first.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := c.do(ctx, http.MethodGet, "/api/chat", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateGroup creates a group chat with the given members. The requester is
// added automatically and becomes the admin.
func (c *Client) CreateGroup(ctx context.Context, name string, userIDs []string) (*Chat, error) {
	var chat Chat
	err := c.do(ctx, http.MethodPost, "/api/chat/group", map[string]any{
		"name": name, "users": userIDs,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// RenameGroup renames a group chat.
func (c *Client) RenameGroup(ctx context.Context, chatID, name string) (*Chat, error) {
	var chat Chat
	err := c.do(ctx, http.MethodPut, "/api/chat/rename", map[string]string{
		"chatId": chatID, "chatName": name,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AddToGroup adds a member to a group chat.
func (c *Client) AddToGroup(ctx context.Context, chatID, userID string) (*Chat, error) {
	var chat Chat
	err := c.do(ctx, http.MethodPut, "/api/chat/groupadd", map[string]string{
		"chatId": chatID, "userId": userID,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// RemoveFromGroup removes a member from a group chat.
func (c *Client) RemoveFromGroup(ctx context.Context, chatID, userID string) (*Chat, error) {
	var chat Chat
	err := c.do(ctx, http.MethodPut, "/api/chat/groupremove", map[string]string{
		"chatId": chatID, "userId": userID,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// DeleteChat deletes a chat. Group chats can only be deleted by their admin.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/"+chatID, nil, nil)
}

// ListMessages returns a chat's transcript, oldest first.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	var messages []Message
	if err := c.do(ctx, http.MethodGet, "/api/message/"+chatID, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage stores a message over REST and returns the canonical populated
// document, both decoded and as the raw bytes the server sent. The raw form
// is what gets relayed on the socket.
func (c *Client) PostMessage(ctx context.Context, chatID, content string) (*Message, json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/api/message", map[string]string{
		"chatId": chatID, "content": content,
	}, &raw)
	if err != nil {
		return nil, nil, err
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil, fmt.Errorf("decoding stored message: %w", err)
	}
	return &msg, raw, nil
}

// SendMessage stores a message and then announces it on the socket with the
// exact payload the server returned. A failed POST announces nothing; a
// failed announcement is not retried, since the message is already stored
// and recipients will see it on their next transcript fetch.
func (c *Client) SendMessage(ctx context.Context, socket *Socket, chatID, content string) (*Message, error) {
	msg, raw, err := c.PostMessage(ctx, chatID, content)
	if err != nil {
		return nil, err
	}
	if err := socket.EmitRaw(EventNewMessage, raw); err != nil {
		return msg, fmt.Errorf("message stored but not announced: %w", err)
	}
	return msg, nil
}

// OnlineUsers returns the ids of currently online users.
func (c *Client) OnlineUsers(ctx context.Context) ([]string, error) {
	var resp struct {
		OnlineUsers []string `json:"online_users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/presence", nil, &resp); err != nil {
		return nil, err
	}
	return resp.OnlineUsers, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

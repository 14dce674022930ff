package handlers

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// RegisterRequest is the DTO for POST /api/user/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Pic      string `json:"pic"`
}

// LoginRequest is the DTO for POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccessChatRequest is the DTO for POST /api/chat.
type AccessChatRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// CreateGroupRequest is the DTO for POST /api/chat/group. Users accepts
// either a JSON array or a JSON-encoded string containing one, matching what
// existing web clients send.
type CreateGroupRequest struct {
	Name  string    `json:"name" validate:"required"`
	Users UserIDSet `json:"users" validate:"required,min=2"`
}

// UserIDSet unmarshals from ["id", ...] or from "[\"id\", ...]".
type UserIDSet []string

func (s *UserIDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*s = ids
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return err
	}
	*s = ids
	return nil
}

// RenameGroupRequest is the DTO for PUT /api/chat/rename.
type RenameGroupRequest struct {
	ChatID   string `json:"chatId" validate:"required"`
	ChatName string `json:"chatName" validate:"required"`
}

// GroupMemberRequest is the DTO for PUT /api/chat/groupadd and groupremove.
type GroupMemberRequest struct {
	ChatID string `json:"chatId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// SendMessageRequest is the DTO for POST /api/message.
type SendMessageRequest struct {
	ChatID  string `json:"chatId" validate:"required"`
	Content string `json:"content" validate:"required"`
}

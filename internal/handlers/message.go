package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// MessageHandler serves the message endpoints.
type MessageHandler struct {
	messages domain.MessageRepository
	chats    domain.ChatRepository
}

func NewMessageHandler(messages domain.MessageRepository, chats domain.ChatRepository) *MessageHandler {
	return &MessageHandler{messages: messages, chats: chats}
}

// Send handles POST /api/message. The response is the canonical populated
// message document: sender and chat (with members) resolved. Clients relay
// exactly this payload over the real-time connection.
func (h *MessageHandler) Send(c echo.Context) error {
	requester := middleware.CurrentUser(c)

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "chatId and content are required"})
	}

	ctx := c.Request().Context()
	chat, err := h.chats.FindByID(ctx, req.ChatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("loading chat for message", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not send message"})
	}
	if !chat.HasMember(requester.ID) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "not a member of this chat"})
	}

	msg, err := h.messages.Create(ctx, req.ChatID, requester.ID, req.Content)
	if err != nil {
		slog.Error("storing message", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not send message"})
	}

	if err := h.chats.SetLatestMessage(ctx, req.ChatID, msg.ID); err != nil {
		// The message is stored; a stale latestMessage pointer is tolerable.
		slog.Error("updating latest message", "chat_id", req.ChatID, "error", err)
	}

	msg.Sender = requester
	msg.Chat = chat
	return c.JSON(http.StatusCreated, msg)
}

// List handles GET /api/message/:chatId: the chat transcript, oldest first.
func (h *MessageHandler) List(c echo.Context) error {
	requester := middleware.CurrentUser(c)
	chatID := c.Param("chatId")

	ctx := c.Request().Context()
	chat, err := h.chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("loading chat for transcript", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not list messages"})
	}
	if !chat.HasMember(requester.ID) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "not a member of this chat"})
	}

	messages, err := h.messages.ListByChat(ctx, chatID)
	if err != nil {
		slog.Error("listing messages", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not list messages"})
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

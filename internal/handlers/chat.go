package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// ChatHandler serves the chat CRUD endpoints.
type ChatHandler struct {
	chats domain.ChatRepository
	users domain.UserRepository
}

func NewChatHandler(chats domain.ChatRepository, users domain.UserRepository) *ChatHandler {
	return &ChatHandler{chats: chats, users: users}
}

// Access handles POST /api/chat: find or create the one-to-one chat between
// the requester and the given user.
func (h *ChatHandler) Access(c echo.Context) error {
	requester := middleware.CurrentUser(c)

	var req AccessChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "userId is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "user not found"})
		}
		slog.Error("looking up chat partner", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not access chat"})
	}

	chat, err := h.chats.FindDirect(ctx, requester.ID, req.UserID)
	if err == nil {
		return c.JSON(http.StatusOK, chat)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("finding direct chat", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not access chat"})
	}

	chat, err = h.chats.Create(ctx, "sender", false, []string{requester.ID, req.UserID}, "")
	if err != nil {
		slog.Error("creating direct chat", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not access chat"})
	}
	return c.JSON(http.StatusOK, chat)
}

// List handles GET /api/chat: the requester's chats, most recently active
// first.
func (h *ChatHandler) List(c echo.Context) error {
	requester := middleware.CurrentUser(c)

	chats, err := h.chats.ListForUser(c.Request().Context(), requester.ID)
	if err != nil {
		slog.Error("listing chats", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not list chats"})
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return c.JSON(http.StatusOK, chats)
}

// CreateGroup handles POST /api/chat/group. The requester is added to the
// member list and becomes the group admin.
func (h *ChatHandler) CreateGroup(c echo.Context) error {
	requester := middleware.CurrentUser(c)

	var req CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "a name and at least 2 other users are required"})
	}

	memberIDs := append([]string(req.Users), requester.ID)
	chat, err := h.chats.Create(c.Request().Context(), req.Name, true, memberIDs, requester.ID)
	if err != nil {
		slog.Error("creating group chat", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not create group"})
	}
	return c.JSON(http.StatusCreated, chat)
}

// Rename handles PUT /api/chat/rename.
func (h *ChatHandler) Rename(c echo.Context) error {
	var req RenameGroupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "chatId and chatName are required"})
	}

	chat, err := h.chats.Rename(c.Request().Context(), req.ChatID, req.ChatName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("renaming chat", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not rename chat"})
	}
	return c.JSON(http.StatusOK, chat)
}

// AddToGroup handles PUT /api/chat/groupadd.
func (h *ChatHandler) AddToGroup(c echo.Context) error {
	var req GroupMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "chatId and userId are required"})
	}

	chat, err := h.chats.AddUser(c.Request().Context(), req.ChatID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("adding group member", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not add user"})
	}
	return c.JSON(http.StatusOK, chat)
}

// RemoveFromGroup handles PUT /api/chat/groupremove.
func (h *ChatHandler) RemoveFromGroup(c echo.Context) error {
	var req GroupMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "chatId and userId are required"})
	}

	chat, err := h.chats.RemoveUser(c.Request().Context(), req.ChatID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("removing group member", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not remove user"})
	}
	return c.JSON(http.StatusOK, chat)
}

// Delete handles DELETE /api/chat/:id. Members may delete one-to-one chats;
// group chats may only be deleted by their admin.
func (h *ChatHandler) Delete(c echo.Context) error {
	requester := middleware.CurrentUser(c)
	chatID := c.Param("id")

	ctx := c.Request().Context()
	chat, err := h.chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "chat not found"})
		}
		slog.Error("loading chat for delete", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not delete chat"})
	}

	if !chat.HasMember(requester.ID) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "not a member of this chat"})
	}
	if chat.IsGroupChat && (chat.GroupAdmin == nil || chat.GroupAdmin.ID != requester.ID) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "only the group admin can delete this chat"})
	}

	if err := h.chats.Delete(ctx, chatID); err != nil {
		slog.Error("deleting chat", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not delete chat"})
	}
	return c.NoContent(http.StatusNoContent)
}

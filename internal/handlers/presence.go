package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/presence"
)

// PresenceHandler exposes the online user list.
type PresenceHandler struct {
	presence *presence.Service
}

func NewPresenceHandler(svc *presence.Service) *PresenceHandler {
	return &PresenceHandler{presence: svc}
}

// Online handles GET /api/presence.
func (h *PresenceHandler) Online(c echo.Context) error {
	users := h.presence.OnlineUsers()
	return c.JSON(http.StatusOK, PresenceResponse{
		OnlineUsers: users,
		Count:       len(users),
	})
}

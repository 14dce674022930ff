package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// UserHandler serves user lookup endpoints.
type UserHandler struct {
	users domain.UserRepository
}

func NewUserHandler(users domain.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Search handles GET /api/user?search=. The requester is always excluded
// from the results.
func (h *UserHandler) Search(c echo.Context) error {
	requester := middleware.CurrentUser(c)
	term := c.QueryParam("search")

	users, err := h.users.Search(c.Request().Context(), term, requester.ID)
	if err != nil {
		slog.Error("searching users", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not search users"})
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

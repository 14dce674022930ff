package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/auth"
	"github.com/nfrund/parley/internal/domain"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	hasher *auth.PasswordHasher
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository, tokens *auth.TokenManager, hasher *auth.PasswordHasher) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, hasher: hasher}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "name, email and a password of at least 8 characters are required"})
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not create account"})
	}

	user, err := h.users.Create(c.Request().Context(), &domain.User{
		Name:  req.Name,
		Email: req.Email,
		Pic:   req.Pic,
	}, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{Message: "a user with this email already exists"})
		}
		slog.Error("creating user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not create account"})
	}

	token, err := h.tokens.Generate(user.ID, user.Email)
	if err != nil {
		slog.Error("issuing token", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not create account"})
	}

	return c.JSON(http.StatusCreated, NewAuthResponse(user, token))
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "email and password are required"})
	}

	user, err := h.users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid email or password"})
		}
		slog.Error("looking up user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not log in"})
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid email or password"})
	}

	token, err := h.tokens.Generate(user.ID, user.Email)
	if err != nil {
		slog.Error("issuing token", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "could not log in"})
	}

	user.PasswordHash = ""
	return c.JSON(http.StatusOK, NewAuthResponse(user, token))
}

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/auth"
	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	authHandler := handlers.NewAuthHandler(s.users, s.tokens, auth.NewPasswordHasher())
	userHandler := handlers.NewUserHandler(s.users)
	chatHandler := handlers.NewChatHandler(s.chats, s.users)
	messageHandler := handlers.NewMessageHandler(s.messages, s.chats)
	presenceHandler := handlers.NewPresenceHandler(s.presence)

	rateLimiter := middleware.RateLimiter(5)

	api := s.E.Group("/api")
	api.POST("/user/register", authHandler.Register, rateLimiter)
	api.POST("/user/login", authHandler.Login, rateLimiter)

	protected := api.Group("", middleware.Auth(s.tokens, s.users))
	protected.GET("/user", userHandler.Search)

	protected.POST("/chat", chatHandler.Access)
	protected.GET("/chat", chatHandler.List)
	protected.POST("/chat/group", chatHandler.CreateGroup)
	protected.PUT("/chat/rename", chatHandler.Rename)
	protected.PUT("/chat/groupadd", chatHandler.AddToGroup)
	protected.PUT("/chat/groupremove", chatHandler.RemoveFromGroup)
	protected.DELETE("/chat/:id", chatHandler.Delete)

	protected.POST("/message", messageHandler.Send)
	protected.GET("/message/:chatId", messageHandler.List)

	protected.GET("/presence", presenceHandler.Online)

	// The connection is anonymous until the client's setup event, so the
	// upgrade itself is unauthenticated.
	s.E.GET("/ws", s.wsHandler.Serve)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

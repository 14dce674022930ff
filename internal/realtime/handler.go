package realtime

import (
	"log/slog"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// Handler accepts WebSocket upgrade requests and hands the connection to the
// hub. The connection is anonymous until the client sends a setup event.
type Handler struct {
	hub    *Hub
	router *Router
	logger *slog.Logger
}

func NewHandler(hub *Hub, router *Router, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, router: router, logger: logger}
}

// Serve upgrades the request and starts the connection's pumps.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		h.logger.Error("failed to upgrade connection", "error", err)
		return err
	}

	client := newClient(conn, h.hub, h.router, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()

	return nil
}

package realtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	sendBufferSize = 256
	writeTimeout   = 10 * time.Second
)

// Client is a single live WebSocket connection. A user may hold several at
// once (browser tabs, devices); each gets its own Client.
type Client struct {
	// ID uniquely identifies the connection, not the user.
	ID string

	// userID is set once the client completes setup. It is read and written
	// only from the readPump goroutine.
	userID string

	conn   *websocket.Conn
	sendCh chan []byte
	hub    *Hub
	router *Router
	logger *slog.Logger
}

func newClient(conn *websocket.Conn, hub *Hub, router *Router, logger *slog.Logger) *Client {
	return &Client{
		ID:     uuid.NewString(),
		conn:   conn,
		sendCh: make(chan []byte, sendBufferSize),
		hub:    hub,
		router: router,
		logger: logger,
	}
}

// enqueue queues a frame for this connection only, dropping it if the send
// buffer is full.
func (c *Client) enqueue(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.logger.Warn("send buffer full, dropping frame", "client_id", c.ID)
	}
}

// readPump pumps inbound frames from the connection into the router. It owns
// the disconnect path: when the read loop ends for any reason the client is
// unregistered and its rooms are cleaned up.
func (c *Client) readPump() {
	defer func() {
		c.router.HandleDisconnect(c)
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "client disconnected")
	}()

	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.logger.Debug("websocket closed by client", "client_id", c.ID)
			} else if err != io.EOF {
				c.logger.Error("websocket read error", "client_id", c.ID, "error", err)
			}
			return
		}

		c.router.HandleInbound(c, data)
	}
}

// writePump pumps frames from the send channel to the connection until the
// hub closes the channel.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for data := range c.sendCh {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.logger.Error("websocket write error", "client_id", c.ID, "error", err)
			return
		}
	}
}

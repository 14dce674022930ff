package realtime

import (
	"context"
	"log/slog"
)

// broadcast is a frame destined for every member of a room, optionally
// skipping one connection.
type broadcast struct {
	room    string
	data    []byte
	exclude *Client
}

// membership is a join or leave request for a single client and room.
type membership struct {
	client *Client
	room   string
}

// Hub owns every live connection and the room membership table. All state is
// mutated by the single Run goroutine; the exported methods only send on
// channels, so they are safe to call from any goroutine.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	send       chan broadcast

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		send:       make(chan broadcast),
		logger:     logger,
	}
}

// Run processes registration, membership and broadcast events until the
// context is cancelled. It must be running before any client is registered.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", "client_id", client.ID)

		case client := <-h.unregister:
			h.dropClient(client)

		case m := <-h.join:
			room, ok := h.rooms[m.room]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[m.room] = room
			}
			room[m.client] = true

		case m := <-h.leave:
			h.removeFromRoom(m.client, m.room)

		case b := <-h.send:
			for client := range h.rooms[b.room] {
				if client == b.exclude {
					continue
				}
				select {
				case client.sendCh <- b.data:
				default:
					// Slow consumer. Drop the frame rather than stall the
					// loop; the connection itself stays up.
					h.logger.Warn("send buffer full, dropping frame", "client_id", client.ID)
				}
			}
		}
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Unregister removes a connection and all of its room memberships.
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Join adds a connection to a room, creating the room on first use. Joining
// a room twice is a no-op.
func (h *Hub) Join(c *Client, room string) { h.join <- membership{client: c, room: room} }

// Leave removes a connection from a room. Empty rooms are pruned.
func (h *Hub) Leave(c *Client, room string) { h.leave <- membership{client: c, room: room} }

// Broadcast delivers data to every member of a room except exclude. A
// broadcast to an unknown room is a no-op.
func (h *Hub) Broadcast(room string, data []byte, exclude *Client) {
	h.send <- broadcast{room: room, data: data, exclude: exclude}
}

// dropClient removes a client from the hub and every room it belongs to,
// and closes its send channel so writePump exits. Called only from Run.
func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for room := range h.rooms {
		h.removeFromRoom(client, room)
	}
	close(client.sendCh)
	h.logger.Debug("client unregistered", "client_id", client.ID)
}

// removeFromRoom drops one membership and prunes the room once empty.
// Called only from Run.
func (h *Hub) removeFromRoom(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

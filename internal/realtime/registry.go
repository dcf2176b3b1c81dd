package realtime

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// Registry tracks which clients are subscribed to which room. All
// membership state lives behind a single lock; payload delivery happens
// outside it.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string][]*Client
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string][]*Client),
	}
}

// Join adds the client to the room. Joining a closed registry closes the
// client immediately.
func (r *Registry) Join(roomID string, client *Client) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		client.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	r.rooms[roomID] = append(r.rooms[roomID], client)
	clientCount := len(r.rooms[roomID])
	r.mu.Unlock()

	log.Info().
		Str("roomId", roomID).
		Str("clientId", client.ID).
		Int("clientCount", clientCount).
		Msg("client joined room")
}

// Leave removes one registration of the client from the room and drops the
// room once it is empty. It reports whether anything was removed.
func (r *Registry) Leave(roomID string, client *Client) bool {
	r.mu.Lock()
	clients, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return false
	}

	idx := -1
	for i, c := range clients {
		if c == client {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false
	}

	remaining := make([]*Client, 0, len(clients)-1)
	remaining = append(remaining, clients[:idx]...)
	remaining = append(remaining, clients[idx+1:]...)
	if len(remaining) == 0 {
		delete(r.rooms, roomID)
	} else {
		r.rooms[roomID] = remaining
	}
	r.mu.Unlock()

	log.Info().
		Str("roomId", roomID).
		Str("clientId", client.ID).
		Int("clientCount", len(remaining)).
		Msg("client left room")

	return true
}

// Broadcast queues the payload for every client in the room, in join order.
// Clients that cannot accept it are closed and removed. It returns the
// number of clients the payload was queued for.
func (r *Registry) Broadcast(roomID string, payload []byte) int {
	r.mu.RLock()
	clients := append([]*Client(nil), r.rooms[roomID]...)
	r.mu.RUnlock()

	delivered := 0
	var failed []*Client
	for _, c := range clients {
		if c.Enqueue(payload) {
			delivered++
			continue
		}
		failed = append(failed, c)
	}

	for _, c := range failed {
		log.Warn().
			Str("roomId", roomID).
			Str("clientId", c.ID).
			Msg("dropping slow or closed subscriber")
		c.Close(StatusTryAgainLater, "subscriber too slow")
		r.Leave(roomID, c)
	}

	return delivered
}

func (r *Registry) ClientCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) TotalClients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, clients := range r.rooms {
		total += len(clients)
	}
	return total
}

// Close disconnects every client and rejects further joins.
func (r *Registry) Close() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string][]*Client)
	r.closed = true
	r.mu.Unlock()

	count := 0
	for _, clients := range rooms {
		for _, c := range clients {
			c.Close(websocket.StatusGoingAway, "server shutting down")
			count++
		}
	}

	log.Info().Int("clientCount", count).Msg("registry closed")
}

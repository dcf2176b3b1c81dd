package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/config"
)

// StatusTryAgainLater is sent to subscribers evicted for falling behind.
const StatusTryAgainLater websocket.StatusCode = 1013

// Client is one live streaming connection subscribed to a room.
type Client struct {
	ID       string
	RoomID   string
	Identity string

	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(roomID, identity string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, config.StreamSendBuffer),
		done:     make(chan struct{}),
	}
}

// Enqueue hands a payload to the write pump without blocking. It returns
// false when the buffer is full or the client is closed.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close marks the client closed and starts the close handshake. Only the
// first call has any effect.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}
		// The handshake waits for the peer; never hold the caller on it.
		go func() {
			if err := c.conn.Close(code, reason); err != nil {
				log.Debug().Err(err).Str("clientId", c.ID).Msg("websocket close")
			}
		}()
	})
}

// WritePump drains queued payloads to the connection and pings it on an
// interval. It returns when the client closes, ctx ends or a write fails.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(config.StreamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(ctx, msg); err != nil {
				log.Debug().Err(err).Str("clientId", c.ID).Str("roomId", c.RoomID).Msg("websocket write failed")
				c.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, config.StreamWriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("clientId", c.ID).Str("roomId", c.RoomID).Msg("websocket ping failed")
				c.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, config.StreamWriteTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, msg)
}

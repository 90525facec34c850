package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lemuria/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// sendBuffer is the number of frames a socket may lag behind before it is dropped.
	sendBuffer = 256
)

var (
	// ErrSocketClosed is returned by Deliver after Close.
	ErrSocketClosed = errors.New("socket closed")

	// ErrSendQueueFull is returned by Deliver when the client is not keeping up.
	ErrSendQueueFull = errors.New("client send queue full")
)

// Client is one websocket attached to a user.
type Client struct {
	conn *websocket.Conn

	// a buffered channel of frames waiting to be written to the connection.
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection for userID.
func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		logger: logx.Logger().With().
			Str("user_id", userID).
			Str("remote_addr", conn.RemoteAddr().String()).
			Logger(),
	}
}

// Deliver queues frame for writing without blocking.
func (c *Client) Deliver(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSocketClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops the write pump, which sends a close frame and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads frames until the connection fails, handing valid events to the manager.
// Malformed or unknown frames are logged and dropped. On exit the socket is detached from u.
func (c *Client) ReadPump(m *Manager, u *User) {
	defer func() {
		c.logger.Info().Msg("Client connection cleanup starting.")
		m.Detach(u, c)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		ev, err := DecodeInbound(raw)
		if err != nil {
			c.logger.Warn().Err(err).Bytes("message_bytes", raw).Msg("Client sent invalid frame")
			continue
		}

		m.HandleInbound(u, ev)
	}
}

// WritePump writes queued frames and keepalive pings until Close or a write failure.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit so ReadPump unblocks
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeFrame returns true if the WritePump loop should continue.
func (c *Client) writeFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

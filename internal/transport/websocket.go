package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	closeGrace       = 2 * time.Second
)

// Conn is a websocket connection that serializes writes and closes once.
// Reads are single-consumer; the session's read loop is the only reader.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial opens a websocket connection to the given URL
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &Conn{ws: ws}, nil
}

// Send writes a text message to the connection
func (c *Conn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}
	return nil
}

// Receive reads the next message from the connection.
// Binary and text frames are both returned as raw bytes.
func (c *Conn) Receive() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("websocket read failed: %w", err)
	}
	return data, nil
}

// SetReadDeadline sets the deadline for future Receive calls.
// A zero value clears the deadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// Close sends a close frame and tears down the connection.
// Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(closeGrace)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

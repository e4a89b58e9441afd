package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"MandiPulse/internal/domain/models"
)

// Client subscribes to a remote alert stream.
type Client struct {
	url          string
	pingInterval time.Duration

	conn      *websocket.Conn
	connected bool
}

func NewClient(url string, pingInterval time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{url: url, pingInterval: pingInterval}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("alerts connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	return nil
}

// Read streams verdicts until ctx ends or the connection fails.
func (c *Client) Read(ctx context.Context) (<-chan models.PriceVerdict, <-chan error) {
	out := make(chan models.PriceVerdict, 64)
	errs := make(chan error, 1)

	if c.conn == nil {
		errs <- fmt.Errorf("alerts not connected")
		close(out)
		close(errs)
		return out, errs
	}

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = c.conn.Close()
				return
			case <-ticker.C:
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()

	go func() {
		defer close(out)
		defer close(errs)
		for {
			_, b, err := c.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					errs <- fmt.Errorf("alerts read: %w", err)
				}
				return
			}
			var f Frame
			if err := json.Unmarshal(b, &f); err != nil || f.Type != frameType {
				continue
			}
			select {
			case out <- f.Data:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errs
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"token-pulse/internal/domain"
	"token-pulse/internal/view"
)

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the length of the delivered message channel.
	Buffer int
	// Logger receives connection events. Default log.Default().
	Logger *log.Logger
}

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      20 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            64,
	}
}

// Client is a reconnecting feed viewer. After a reconnect it restores the
// sort, filter and timeframe it last saw from the hub.
type Client struct {
	endpoint string
	config   ClientConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	messages chan Message

	// lastView is the most recent view state reported by the hub.
	lastView   *view.State
	lastViewMu sync.Mutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// Dial connects to a feed endpoint (ws://host/ws).
func Dial(ctx context.Context, endpoint string, config *ClientConfig) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		messages: make(chan Message, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Messages returns the channel of hub messages. It is closed by Close.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Send writes one intent to the hub.
func (c *Client) Send(in Intent) error {
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(in); err != nil {
		return fmt.Errorf("write intent: %w", err)
	}
	return nil
}

// ToggleSort asks the hub to toggle sorting on field.
func (c *Client) ToggleSort(field domain.SortField) error {
	return c.Send(Intent{Type: IntentSort, Field: field})
}

// SetFilter asks the hub to switch the category tab.
func (c *Client) SetFilter(f domain.Filter) error {
	return c.Send(Intent{Type: IntentFilter, Filter: f})
}

// SetTimeframe asks the hub to switch the chart timeframe.
func (c *Client) SetTimeframe(tf domain.Timeframe) error {
	return c.Send(Intent{Type: IntentTimeframe, Timeframe: tf})
}

// Buy asks the hub to open the buy modal for id.
func (c *Client) Buy(id string) error {
	return c.Send(Intent{Type: IntentBuy, TokenID: id})
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.messages)
	return nil
}

// readLoop reads messages and delivers them to Messages.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// Connection lost - attempt reconnect with exponential backoff
			if !c.reconnecting.Swap(true) {
				c.wg.Add(1)
				go c.reconnect(reconnectDelay)

				reconnectDelay = reconnectDelay * 2
				if reconnectDelay > c.config.MaxReconnectDelay {
					reconnectDelay = c.config.MaxReconnectDelay
				}
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Printf("Feed connection lost: %v", err)

			// Drop the failed connection; the next iteration reconnects
			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.connMu.Unlock()
			conn.Close()
			continue
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(data)
	}
}

// reconnect dials a fresh connection after delay and restores the view.
func (c *Client) reconnect(delay time.Duration) {
	defer c.wg.Done()
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Printf("Reconnect failed: %v", err)
		return
	}

	if c.closed.Load() {
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
		return
	}

	c.logger.Printf("Feed reconnected to %s", c.endpoint)
	c.restoreView()
}

// restoreView replays the last known view state onto a fresh connection.
func (c *Client) restoreView() {
	c.lastViewMu.Lock()
	last := c.lastView
	c.lastViewMu.Unlock()

	if last == nil {
		return
	}

	intents := []Intent{
		{Type: IntentFilter, Filter: last.Filter},
		{Type: IntentTimeframe, Timeframe: last.Timeframe},
	}
	if last.SortField != domain.SortNone {
		intents = append(intents, Intent{Type: IntentSetSort, Field: last.SortField, Order: last.SortOrder})
	}

	for _, in := range intents {
		if err := c.Send(in); err != nil {
			c.logger.Printf("Restore %s failed: %v", in.Type, err)
			return
		}
	}
}

// handleMessage decodes a hub message and delivers it.
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Printf("Decode message failed: %v", err)
		return
	}

	if msg.Type == MsgSnapshot && msg.View != nil {
		state := *msg.View
		c.lastViewMu.Lock()
		c.lastView = &state
		c.lastViewMu.Unlock()
	}

	// Block until delivered - snapshots are never dropped client side
	select {
	case c.messages <- msg:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Errors surface on the next read, which triggers reconnect
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"token-pulse/internal/domain"
	"token-pulse/internal/observability"
	"token-pulse/internal/session"
	"token-pulse/internal/storage"
	"token-pulse/internal/view"
)

// Source is the live token set the hub projects from.
// *session.Session satisfies it.
type Source interface {
	Snapshot(ctx context.Context) ([]*domain.Token, error)
	Token(ctx context.Context, id string) (*domain.Token, error)
	Subscribe(buffer int) (<-chan session.Event, func())
	ID() string
}

// HubConfig configures per-connection timings.
type HubConfig struct {
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
	// ReadTimeout is how long a connection may stay silent (pongs count).
	ReadTimeout time.Duration
	// PingInterval is the interval for sending ping frames. Must be below ReadTimeout.
	PingInterval time.Duration
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 20 * time.Second,
		SendBuffer:   16,
	}
}

// HubOptions contains configuration for creating a Hub.
type HubOptions struct {
	Source Source
	Config *HubConfig
	Logger *log.Logger
}

// Hub fans session events out to connected viewers. Each viewer has its
// own view.State; every snapshot it receives is projected through it.
type Hub struct {
	source   Source
	config   HubConfig
	logger   *log.Logger
	upgrader websocket.Upgrader

	clients   map[*viewer]struct{}
	clientsMu sync.RWMutex

	lastTick atomic.Uint64
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// NewHub creates a hub over source.
func NewHub(opts HubOptions) *Hub {
	cfg := DefaultHubConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Hub{
		source: opts.Source,
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*viewer]struct{}),
	}
}

// Run pushes a fresh projection to every viewer after each session event.
// It blocks until ctx is cancelled, then disconnects all viewers.
func (h *Hub) Run(ctx context.Context) error {
	events, unsubscribe := h.source.Subscribe(4)
	defer unsubscribe()

	h.logger.Println("Feed hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			h.logger.Println("Feed hub stopped")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				h.shutdown()
				return nil
			}
			if ev.Kind == session.EventReset {
				h.lastTick.Store(0)
			} else {
				h.lastTick.Store(ev.Tick)
			}
			h.broadcast(ctx)
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.RecordFeedError("upgrade")
		h.logger.Printf("Upgrade failed: %v", err)
		return
	}

	v := &viewer{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.config.SendBuffer),
		done:  make(chan struct{}),
		state: view.NewState(),
	}
	h.register(v)

	h.wg.Add(2)
	go v.writeLoop()
	go v.readLoop()

	v.pushSnapshot(r.Context())
}

func (h *Hub) register(v *viewer) {
	h.clientsMu.Lock()
	h.clients[v] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()

	observability.UpdateFeedClients(n)
	h.logger.Printf("Viewer connected from %s (%d connected)", v.conn.RemoteAddr(), n)
}

func (h *Hub) unregister(v *viewer) {
	h.clientsMu.Lock()
	_, ok := h.clients[v]
	delete(h.clients, v)
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		observability.UpdateFeedClients(n)
		h.logger.Printf("Viewer disconnected from %s (%d connected)", v.conn.RemoteAddr(), n)
	}
}

func (h *Hub) broadcast(ctx context.Context) {
	tokens, err := h.source.Snapshot(ctx)
	if err != nil {
		h.logger.Printf("Snapshot failed: %v", err)
		return
	}

	h.clientsMu.RLock()
	viewers := make([]*viewer, 0, len(h.clients))
	for v := range h.clients {
		viewers = append(viewers, v)
	}
	h.clientsMu.RUnlock()

	for _, v := range viewers {
		v.sendSnapshot(tokens)
	}
}

func (h *Hub) shutdown() {
	if h.closed.Swap(true) {
		return
	}

	h.clientsMu.RLock()
	viewers := make([]*viewer, 0, len(h.clients))
	for v := range h.clients {
		viewers = append(viewers, v)
	}
	h.clientsMu.RUnlock()

	for _, v := range viewers {
		v.close()
	}
	h.wg.Wait()
}

// viewer is one connected WebSocket client.
type viewer struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	stateMu sync.Mutex
	state   view.State
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.done)
		v.hub.unregister(v)
	})
}

// readLoop decodes intents until the connection fails.
func (v *viewer) readLoop() {
	defer v.hub.wg.Done()
	defer v.close()

	cfg := v.hub.config
	v.conn.SetReadLimit(4096)
	v.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			return
		}
		v.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		var in Intent
		if err := json.Unmarshal(data, &in); err != nil {
			observability.RecordFeedError("decode")
			v.enqueue(Message{Type: MsgError, Error: fmt.Sprintf("decode intent: %v", err)})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
		err = v.handleIntent(ctx, in)
		cancel()
		if err != nil {
			observability.RecordFeedError("intent")
			v.enqueue(Message{Type: MsgError, Error: err.Error()})
		}
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings.
func (v *viewer) writeLoop() {
	defer v.hub.wg.Done()

	cfg := v.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case <-v.done:
			v.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			v.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				v.close()
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				v.close()
				return
			}
		}
	}
}

func (v *viewer) handleIntent(ctx context.Context, in Intent) error {
	observability.RecordIntent(in.Type)

	if in.Type == IntentBuy {
		if _, err := v.hub.source.Token(ctx, in.TokenID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrUnknownToken, in.TokenID)
			}
			return err
		}
	}

	v.stateMu.Lock()
	var err error
	switch in.Type {
	case IntentSort:
		v.state.ToggleSort(in.Field)
	case IntentSetSort:
		v.state.SetSort(in.Field, in.Order)
	case IntentFilter:
		err = v.state.SetFilter(in.Filter)
	case IntentTimeframe:
		err = v.state.SetTimeframe(in.Timeframe)
	case IntentHover:
		v.state.Hover(in.TokenID)
	case IntentSelect:
		v.state.Select(in.TokenID)
	case IntentModal:
		if in.Open {
			v.state.OpenModal()
		} else {
			v.state.CloseModal()
		}
	case IntentBuy:
		v.state.Buy(in.TokenID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
	v.stateMu.Unlock()
	if err != nil {
		return err
	}

	if in.Type == IntentBuy {
		v.enqueue(Message{Type: MsgBuyAck, SessionID: v.hub.source.ID(), TokenID: in.TokenID})
	}
	v.pushSnapshot(ctx)
	return nil
}

// pushSnapshot sends this viewer a projection of the current token set.
func (v *viewer) pushSnapshot(ctx context.Context) {
	tokens, err := v.hub.source.Snapshot(ctx)
	if err != nil {
		v.hub.logger.Printf("Snapshot failed: %v", err)
		return
	}
	v.sendSnapshot(tokens)
}

func (v *viewer) sendSnapshot(tokens []*domain.Token) {
	v.stateMu.Lock()
	state := v.state
	v.stateMu.Unlock()

	v.enqueue(Message{
		Type:      MsgSnapshot,
		SessionID: v.hub.source.ID(),
		Tick:      v.hub.lastTick.Load(),
		View:      &state,
		Tokens:    state.Project(tokens),
	})
}

// enqueue queues msg without blocking. A full queue drops the message;
// the next snapshot supersedes it.
func (v *viewer) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		v.hub.logger.Printf("Encode %s failed: %v", msg.Type, err)
		return
	}

	select {
	case <-v.done:
		return
	default:
	}

	select {
	case v.send <- data:
		observability.RecordFeedMessage(msg.Type)
	case <-v.done:
	default:
		observability.RecordFeedError("slow_viewer")
	}
}

// Package session owns a live token set and the loop that ticks it.
// Every write to the set (reset, scheduled tick, manual step) runs under a
// single writer lock, so two ticks never interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"token-pulse/internal/domain"
	"token-pulse/internal/factory"
	"token-pulse/internal/market"
	"token-pulse/internal/observability"
	"token-pulse/internal/storage"
	"token-pulse/internal/storage/memory"
)

var (
	// ErrNotRunning is returned when stepping a session that has no token set yet.
	ErrNotRunning = errors.New("session not running")

	// ErrStopped is returned for writes attempted after Stop.
	ErrStopped = errors.New("session stopped")
)

// EventKind tells subscribers what changed.
type EventKind string

const (
	EventReset EventKind = "reset" // token set replaced
	EventTick  EventKind = "tick"  // tick applied
)

// Event is published after every write to the token set.
type Event struct {
	Kind      EventKind
	SessionID string
	Tick      uint64 // ticks applied since the last reset
	Mutated   int
	At        time.Time
}

// Status is a point-in-time view of the session for /status.
type Status struct {
	SessionID    string    `json:"session_id"`
	Running      bool      `json:"running"`
	Mode         string    `json:"mode"`
	Tokens       int       `json:"tokens"`
	Ticks        uint64    `json:"ticks"`
	TickInterval string    `json:"tick_interval"`
	StartedAt    time.Time `json:"started_at"`
	LastTickAt   time.Time `json:"last_tick_at,omitempty"`
	Subscribers  int       `json:"subscribers"`
}

// Options configures a Session.
type Options struct {
	Store        storage.TokenStore // default in-memory store
	Factory      *factory.Factory   // default entropy-seeded factory
	Engine       *market.Engine     // default entropy-seeded engine
	TokenCount   int                // default 20
	TickInterval time.Duration      // default 1s
	Logger       *log.Logger
}

// Session is one simulation run: a token set plus its tick loop.
type Session struct {
	store        storage.TokenStore
	factory      *factory.Factory
	engine       *market.Engine
	tokenCount   int
	tickInterval time.Duration
	logger       *log.Logger

	// writeMu serializes every write to the token set.
	writeMu    sync.Mutex
	id         string
	ticks      uint64
	startedAt  time.Time
	lastTickAt time.Time

	// lifeMu guards the loop handle.
	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	stopping atomic.Bool

	subsMu  sync.RWMutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a session. The token set is empty until Start or Reset.
func New(opts Options) *Session {
	store := opts.Store
	if store == nil {
		store = memory.NewTokenStore()
	}
	f := opts.Factory
	if f == nil {
		f = factory.New(factory.Options{})
	}
	engine := opts.Engine
	if engine == nil {
		engine = market.NewEngine(market.Options{})
	}
	count := opts.TokenCount
	if count == 0 {
		count = 20
	}
	interval := opts.TickInterval
	if interval == 0 {
		interval = 1 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Session{
		store:        store,
		factory:      f,
		engine:       engine,
		tokenCount:   count,
		tickInterval: interval,
		logger:       logger,
		subs:         make(map[int]chan Event),
	}
}

// Start seeds a fresh token set under a new session id and starts the tick
// loop. A loop that is already running is stopped first, so at most one
// loop exists per Session.
func (s *Session) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.stopLocked()
	s.stopping.Store(false)

	if err := s.Reset(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(loopCtx, done)

	s.logger.Printf("Session %s started: %d tokens, tick interval %v, mode %s",
		s.ID(), s.tokenCount, s.tickInterval, s.engine.Mode())
	return nil
}

// Stop cancels the tick loop and waits for it to exit. No token update is
// applied once Stop has been called, including one from a tick already in
// flight. Calling Stop more than once is safe.
func (s *Session) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	s.stopping.Store(true)
	// Wait out a tick or step that passed the stopping check before the flag flipped.
	s.writeMu.Lock()
	s.writeMu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Printf("Session %s stopped after %d ticks", s.ID(), s.Ticks())
}

// Running reports whether the tick loop is active.
func (s *Session) Running() bool {
	s.lifeMu.Lock()
	done := s.done
	s.lifeMu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Reset replaces the whole token set with freshly generated tokens under a
// new session id. Token ids keep increasing across resets.
func (s *Session) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tokens := s.factory.CreateTokenSet(s.tokenCount)
	if err := s.store.ReplaceAll(ctx, tokens); err != nil {
		return fmt.Errorf("replace token set: %w", err)
	}

	now := time.Now()
	s.id = uuid.NewString()
	s.ticks = 0
	s.startedAt = now
	s.lastTickAt = time.Time{}

	observability.RecordReset(len(tokens))
	s.publish(Event{Kind: EventReset, SessionID: s.id, Mutated: len(tokens), At: now})
	return nil
}

// Step applies one tick immediately, outside the schedule.
func (s *Session) Step(ctx context.Context) (market.TickResult, error) {
	return s.tick(ctx)
}

// Snapshot returns a copy of the current token set in creation order.
func (s *Session) Snapshot(ctx context.Context) ([]*domain.Token, error) {
	return s.store.Snapshot(ctx)
}

// Token returns a copy of one token.
func (s *Session) Token(ctx context.Context, id string) (*domain.Token, error) {
	return s.store.Get(ctx, id)
}

// ID returns the current session id, empty before the first reset.
func (s *Session) ID() string {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.id
}

// Ticks returns the number of ticks applied since the last reset.
func (s *Session) Ticks() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ticks
}

// Status returns the session status.
func (s *Session) Status(ctx context.Context) Status {
	running := s.Running()

	s.subsMu.RLock()
	subscribers := len(s.subs)
	s.subsMu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return Status{
		SessionID:    s.id,
		Running:      running,
		Mode:         string(s.engine.Mode()),
		Tokens:       s.store.Len(ctx),
		Ticks:        s.ticks,
		TickInterval: s.tickInterval.String(),
		StartedAt:    s.startedAt,
		LastTickAt:   s.lastTickAt,
		Subscribers:  subscribers,
	}
}

// Subscribe registers for events. Publishing never blocks: an event is
// dropped for a subscriber whose buffer is full. The returned func
// unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) publish(ev Event) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// run is the tick loop. It exits when ctx is cancelled.
func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.tick(ctx); err != nil && !errors.Is(err, ErrStopped) {
				s.logger.Printf("Tick failed: %v", err)
			}
		}
	}
}

// tick computes one pass from the pre-tick snapshot and applies it.
func (s *Session) tick(ctx context.Context) (market.TickResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.stopping.Load() {
		return market.TickResult{}, ErrStopped
	}
	if s.id == "" {
		return market.TickResult{}, ErrNotRunning
	}

	start := time.Now()
	tokens, err := s.store.Snapshot(ctx)
	if err != nil {
		return market.TickResult{}, fmt.Errorf("snapshot: %w", err)
	}

	type pending struct {
		id     string
		update *domain.TokenUpdate
	}
	var batch []pending
	result := s.engine.Tick(tokens, func(id string, u *domain.TokenUpdate) {
		batch = append(batch, pending{id: id, update: u})
	})

	// A tick is applied whole or not at all. Stop waits on writeMu, so a
	// batch that passes this check completes before Stop returns.
	if s.stopping.Load() {
		for range batch {
			observability.RecordMutationDropped()
		}
		return market.TickResult{}, ErrStopped
	}
	for _, p := range batch {
		if err := s.store.Apply(ctx, p.id, p.update); err != nil {
			return result, fmt.Errorf("apply %s: %w", p.id, err)
		}
	}

	now := time.Now()
	s.ticks++
	s.lastTickAt = now
	observability.RecordTick(string(s.engine.Mode()), result.Mutated, result.PriceSkipped, now.Sub(start).Seconds(), now.Unix())
	s.publish(Event{Kind: EventTick, SessionID: s.id, Tick: s.ticks, Mutated: result.Mutated, At: now})
	return result, nil
}

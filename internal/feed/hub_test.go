package feed

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-pulse/internal/domain"
	"token-pulse/internal/factory"
	"token-pulse/internal/market"
	"token-pulse/internal/randsrc"
	"token-pulse/internal/session"
)

var quietLogger = log.New(io.Discard, "", 0)

type hubFixture struct {
	sess   *session.Session
	hub    *Hub
	server *httptest.Server
	wsURL  string
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	sess := session.New(session.Options{
		Factory:      factory.New(factory.Options{Source: randsrc.NewSeeded(1)}),
		Engine:       market.NewEngine(market.Options{Source: randsrc.NewSeeded(2)}),
		TokenCount:   20,
		TickInterval: time.Hour,
		Logger:       quietLogger,
	})
	require.NoError(t, sess.Reset(context.Background()))

	hub := NewHub(HubOptions{Source: sess, Logger: quietLogger})
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	return &hubFixture{
		sess:   sess,
		hub:    hub,
		server: server,
		wsURL:  "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (f *hubFixture) dial(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.Logger = quietLogger
	c, err := Dial(context.Background(), f.wsURL, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// next waits for the next message of msgType, skipping others.
func next(t *testing.T, c *Client, msgType string) Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.Messages():
			if !ok {
				t.Fatalf("messages closed waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s", msgType)
		}
	}
}

func TestHub_InitialSnapshot(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)

	msg := next(t, c, MsgSnapshot)

	assert.Equal(t, f.sess.ID(), msg.SessionID)
	require.NotNil(t, msg.View)
	assert.Equal(t, domain.FilterAll, msg.View.Filter)
	assert.Equal(t, domain.Timeframe1h, msg.View.Timeframe)
	require.Len(t, msg.Tokens, 20)
	assert.Equal(t, "token-0", msg.Tokens[0].ID)

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_FilterIntent(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)
	next(t, c, MsgSnapshot)

	require.NoError(t, c.SetFilter(domain.Filter(domain.CategoryNew)))
	msg := next(t, c, MsgSnapshot)

	assert.Equal(t, domain.Filter("new"), msg.View.Filter)
	require.Len(t, msg.Tokens, 7)
	for _, tok := range msg.Tokens {
		assert.Equal(t, domain.CategoryNew, tok.Category)
	}
}

func TestHub_SortIntentToggles(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)
	next(t, c, MsgSnapshot)

	require.NoError(t, c.ToggleSort(domain.SortMarketCap))
	msg := next(t, c, MsgSnapshot)
	assert.Equal(t, domain.SortDesc, msg.View.SortOrder)
	for i := 1; i < len(msg.Tokens); i++ {
		assert.GreaterOrEqual(t, msg.Tokens[i-1].MarketCap, msg.Tokens[i].MarketCap)
	}

	require.NoError(t, c.ToggleSort(domain.SortMarketCap))
	msg = next(t, c, MsgSnapshot)
	assert.Equal(t, domain.SortAsc, msg.View.SortOrder)
	for i := 1; i < len(msg.Tokens); i++ {
		assert.LessOrEqual(t, msg.Tokens[i-1].MarketCap, msg.Tokens[i].MarketCap)
	}
}

func TestHub_ViewersAreIndependent(t *testing.T) {
	f := newHubFixture(t)
	a := f.dial(t)
	b := f.dial(t)
	next(t, a, MsgSnapshot)
	next(t, b, MsgSnapshot)

	require.NoError(t, a.SetFilter(domain.Filter(domain.CategoryMigrated)))
	msgA := next(t, a, MsgSnapshot)
	assert.Len(t, msgA.Tokens, 6)

	require.NoError(t, b.SetTimeframe(domain.Timeframe5m))
	msgB := next(t, b, MsgSnapshot)
	assert.Equal(t, domain.FilterAll, msgB.View.Filter)
	assert.Len(t, msgB.Tokens, 20)
}

func TestHub_BuyIntent(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)
	next(t, c, MsgSnapshot)

	require.NoError(t, c.Buy("token-4"))

	ack := next(t, c, MsgBuyAck)
	assert.Equal(t, "token-4", ack.TokenID)

	msg := next(t, c, MsgSnapshot)
	assert.True(t, msg.View.ModalOpen)
	assert.Equal(t, "token-4", msg.View.SelectedID)
}

func TestHub_BuyUnknownToken(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)
	next(t, c, MsgSnapshot)

	require.NoError(t, c.Buy("token-999"))

	msg := next(t, c, MsgError)
	assert.Contains(t, msg.Error, ErrUnknownToken.Error())
}

func TestHub_InvalidIntents(t *testing.T) {
	f := newHubFixture(t)
	c := f.dial(t)
	next(t, c, MsgSnapshot)

	tests := []struct {
		name   string
		intent Intent
		want   string
	}{
		{"unknown type", Intent{Type: "teleport"}, "unknown intent"},
		{"bad filter", Intent{Type: IntentFilter, Filter: "old"}, "unknown filter"},
		{"bad timeframe", Intent{Type: IntentTimeframe, Timeframe: "1d"}, "unknown timeframe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, c.Send(tt.intent))
			msg := next(t, c, MsgError)
			assert.Contains(t, msg.Error, tt.want)
		})
	}
}

func TestHub_BroadcastAfterTick(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go f.hub.Run(ctx)
	require.Eventually(t, func() bool {
		return f.sess.Status(ctx).Subscribers == 1
	}, time.Second, 5*time.Millisecond)

	c := f.dial(t)
	next(t, c, MsgSnapshot)

	_, err := f.sess.Step(ctx)
	require.NoError(t, err)

	msg := next(t, c, MsgSnapshot)
	assert.Equal(t, uint64(1), msg.Tick)
	assert.Len(t, msg.Tokens, 20)
}

func TestHub_ShutdownDisconnectsViewers(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.hub.Run(ctx)
		close(done)
	}()

	c := f.dial(t)
	next(t, c, MsgSnapshot)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Zero(t, f.hub.Clients())
}

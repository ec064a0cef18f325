// Package feed streams token projections to viewers over WebSocket and
// accepts their presentation intents (sort, filter, timeframe, selection).
package feed

import (
	"errors"

	"token-pulse/internal/domain"
	"token-pulse/internal/view"
)

// Server message types.
const (
	MsgSnapshot = "snapshot" // projected token set for one viewer
	MsgBuyAck   = "buy_ack"  // buy intent accepted; no trade is executed
	MsgError    = "error"    // intent rejected
)

// Client intent types.
const (
	IntentSort      = "sort"     // toggle sort on field
	IntentSetSort   = "set_sort" // set field and order directly
	IntentFilter    = "filter"
	IntentTimeframe = "timeframe"
	IntentHover     = "hover"
	IntentSelect    = "select"
	IntentModal     = "modal"
	IntentBuy       = "buy"
)

var (
	// ErrUnknownIntent is returned for an intent type the hub does not handle.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrUnknownToken is returned when an intent names a token that is not live.
	ErrUnknownToken = errors.New("unknown token")
)

// Message is sent from the hub to a viewer.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Tick      uint64          `json:"tick,omitempty"`
	View      *view.State     `json:"view,omitempty"`
	Tokens    []*domain.Token `json:"tokens,omitempty"`
	TokenID   string          `json:"token_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Intent is sent from a viewer to the hub.
type Intent struct {
	Type      string           `json:"type"`
	Field     domain.SortField `json:"field,omitempty"`
	Order     domain.SortOrder `json:"order,omitempty"`
	Filter    domain.Filter    `json:"filter,omitempty"`
	Timeframe domain.Timeframe `json:"timeframe,omitempty"`
	TokenID   string           `json:"token_id,omitempty"`
	Open      bool             `json:"open,omitempty"`
}

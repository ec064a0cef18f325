package view

import (
	"errors"
	"fmt"

	"token-pulse/internal/domain"
)

var (
	// ErrUnknownFilter is returned when a filter is neither "all" nor a category.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownTimeframe is returned for a timeframe outside 1m/5m/30m/1h.
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// State is one viewer's presentation state: sort, filter, timeframe,
// hover/selection and modal visibility.
type State struct {
	SortField  domain.SortField `json:"sort_field,omitempty"`
	SortOrder  domain.SortOrder `json:"sort_order"`
	Filter     domain.Filter    `json:"filter"`
	Timeframe  domain.Timeframe `json:"timeframe"`
	HoveredID  string           `json:"hovered_id,omitempty"`
	SelectedID string           `json:"selected_id,omitempty"`
	ModalOpen  bool             `json:"modal_open"`
}

// NewState returns the initial state: no sort, all categories, 1h charts.
func NewState() State {
	return State{
		SortOrder: domain.SortDesc,
		Filter:    domain.FilterAll,
		Timeframe: domain.Timeframe1h,
	}
}

// ToggleSort selects field. Choosing the active field flips the order;
// choosing another field sorts it descending.
func (s *State) ToggleSort(field domain.SortField) {
	if field == s.SortField {
		s.SortOrder = s.SortOrder.Flip()
		return
	}
	s.SortField = field
	s.SortOrder = domain.SortDesc
}

// SetSort sets field and order directly.
func (s *State) SetSort(field domain.SortField, order domain.SortOrder) {
	if order != domain.SortAsc {
		order = domain.SortDesc
	}
	s.SortField = field
	s.SortOrder = order
}

// SetFilter changes the category tab.
func (s *State) SetFilter(f domain.Filter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, f)
	}
	s.Filter = f
	return nil
}

// SetTimeframe changes which price change and history are shown.
func (s *State) SetTimeframe(tf domain.Timeframe) error {
	if !tf.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}
	s.Timeframe = tf
	return nil
}

// Hover marks id as hovered; an empty id clears it.
func (s *State) Hover(id string) {
	s.HoveredID = id
}

// Select marks id as the selected token.
func (s *State) Select(id string) {
	s.SelectedID = id
}

// OpenModal shows the detail modal for the selected token.
func (s *State) OpenModal() {
	s.ModalOpen = true
}

// CloseModal hides the modal and clears the selection.
func (s *State) CloseModal() {
	s.ModalOpen = false
	s.SelectedID = ""
}

// Buy selects id and opens its modal. No trade is executed.
func (s *State) Buy(id string) {
	s.Select(id)
	s.OpenModal()
}

// Project applies the state's filter and sort to tokens.
func (s State) Project(tokens []*domain.Token) []*domain.Token {
	return Project(tokens, s.Filter, s.SortField, s.SortOrder)
}

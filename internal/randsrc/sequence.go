package randsrc

// Sequence replays a fixed list of Float64 values, cycling when exhausted.
// Uint64 draws are derived from the same list. Intended for tests that
// need to steer individual draws.
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence creates a Sequence over values. An empty list yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next value in the sequence.
func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// Uint64 scales the next value to the full uint64 range.
func (s *Sequence) Uint64() uint64 {
	return uint64(s.Float64() * (1 << 63))
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int {
	return s.pos
}

var _ Source = (*Sequence)(nil)

package indicator

import (
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// PriceWindow is a fixed-capacity ring buffer of price observations.
// Once full, each Add evicts the oldest observation. Arrival order is preserved.
type PriceWindow struct {
	values   []types.PriceObservation
	capacity int
	index    int
	filled   bool
}

// NewPriceWindow creates a window holding at most capacity observations.
func NewPriceWindow(capacity int) (*PriceWindow, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "window capacity must be positive, got %d", capacity)
	}

	return &PriceWindow{
		values:   make([]types.PriceObservation, capacity),
		capacity: capacity,
	}, nil
}

// Add appends an observation, evicting the oldest one when the window is full.
func (w *PriceWindow) Add(obs types.PriceObservation) {
	w.values[w.index] = obs
	w.index = (w.index + 1) % w.capacity

	if w.index == 0 {
		w.filled = true
	}
}

// Len returns the number of observations currently held.
func (w *PriceWindow) Len() int {
	if w.filled {
		return w.capacity
	}

	return w.index
}

// Cap returns the maximum number of observations the window holds.
func (w *PriceWindow) Cap() int {
	return w.capacity
}

// Values returns the held observations, oldest first.
func (w *PriceWindow) Values() []types.PriceObservation {
	length := w.Len()
	result := make([]types.PriceObservation, 0, length)

	if length == 0 {
		return result
	}

	if w.filled {
		result = append(result, w.values[w.index:]...)
	}

	return append(result, w.values[:w.index]...)
}

// Closes returns the close prices of the last n observations, oldest first.
// If fewer than n observations are held, all of them are returned. A
// non-positive n returns an empty slice.
func (w *PriceWindow) Closes(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	values := w.Values()
	if n < len(values) {
		values = values[len(values)-n:]
	}

	closes := make([]float64, len(values))
	for i, v := range values {
		closes[i] = v.Close
	}

	return closes
}

// Last returns the most recent observation and false if the window is empty.
func (w *PriceWindow) Last() (types.PriceObservation, bool) {
	if w.Len() == 0 {
		return types.PriceObservation{}, false
	}

	return w.values[(w.index-1+w.capacity)%w.capacity], true
}

// Reset empties the window without changing its capacity.
func (w *PriceWindow) Reset() {
	clear(w.values)
	w.index = 0
	w.filled = false
}

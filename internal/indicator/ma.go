package indicator

import (
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// MA computes a simple moving average over the most recent period closes of a window.
type MA struct {
	period int
}

// NewMA creates a simple moving average with the given period.
func NewMA(period int) (*MA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &MA{period: period}, nil
}

// Period returns the number of closes averaged.
func (m *MA) Period() int {
	return m.period
}

// Ready reports whether the window holds enough observations for a value.
func (m *MA) Ready(window *PriceWindow) bool {
	return window.Len() >= m.period
}

// Value returns the arithmetic mean of the last period closes in the window.
// The sum is recomputed from scratch on every call.
func (m *MA) Value(window *PriceWindow) (float64, error) {
	if window.Cap() < m.period {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "window capacity %d is smaller than period %d", window.Cap(), m.period)
	}

	if !m.Ready(window) {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "need %d observations, have %d", m.period, window.Len())
	}

	return calculateSimpleMovingAverage(window.Closes(m.period)), nil
}

func calculateSimpleMovingAverage(closes []float64) float64 {
	sum := 0.0
	for _, c := range closes {
		sum += c
	}

	return sum / float64(len(closes))
}

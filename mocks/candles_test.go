package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandleGenerator_Generate(t *testing.T) {
	config := DefaultCandleConfig()
	config.Count = 100

	data := NewCandleGenerator(42).Generate(config)
	require.Len(t, data, 100)

	for i, d := range data {
		assert.Equal(t, config.Symbol, d.Symbol)
		assert.Positive(t, d.Close)
		assert.GreaterOrEqual(t, d.High, d.Low, "high below low at index %d", i)

		if i > 0 {
			assert.Equal(t, config.Interval, d.Time.Sub(data[i-1].Time))
		}
	}
}

func TestCandleGenerator_Reproducibility(t *testing.T) {
	config := DefaultCandleConfig()
	config.Count = 10

	first := NewCandleGenerator(7).Generate(config)
	second := NewCandleGenerator(7).Generate(config)

	assert.Equal(t, first, second)
}

func TestCandlesFromCloses(t *testing.T) {
	data := CandlesFromCloses("ETHUSDT", 1, 2, 3)
	require.Len(t, data, 3)

	assert.Equal(t, 3.0, data[2].Close)
	assert.Equal(t, 2*time.Minute, data[2].Time.Sub(data[0].Time))
	assert.NotEqual(t, data[0].Id, data[1].Id)
}

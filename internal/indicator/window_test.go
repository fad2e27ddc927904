package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PriceWindowTestSuite struct {
	suite.Suite
}

func TestPriceWindowSuite(t *testing.T) {
	suite.Run(t, new(PriceWindowTestSuite))
}

func observation(offset int, close float64) types.PriceObservation {
	return types.PriceObservation{
		Time:  time.Date(2024, 1, 1, 0, offset, 0, 0, time.UTC),
		Close: close,
	}
}

func (suite *PriceWindowTestSuite) TestNewPriceWindowInvalidCapacity() {
	window, err := NewPriceWindow(0)
	suite.Nil(window)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = NewPriceWindow(-3)
	suite.Error(err)
}

func (suite *PriceWindowTestSuite) TestAddBelowCapacity() {
	window, err := NewPriceWindow(3)
	suite.Require().NoError(err)

	suite.Equal(0, window.Len())
	suite.Empty(window.Values())

	window.Add(observation(0, 1))
	window.Add(observation(1, 2))

	suite.Equal(2, window.Len())
	suite.Equal(3, window.Cap())
	suite.Equal([]float64{1, 2}, window.Closes(3))
}

func (suite *PriceWindowTestSuite) TestEvictsOldest() {
	window, err := NewPriceWindow(3)
	suite.Require().NoError(err)

	for i, price := range []float64{1, 2, 3, 4, 5} {
		window.Add(observation(i, price))
	}

	suite.Equal(3, window.Len())
	suite.Equal([]float64{3, 4, 5}, window.Closes(3))
	suite.Equal([]float64{4, 5}, window.Closes(2))

	values := window.Values()
	suite.Require().Len(values, 3)
	suite.True(values[0].Time.Before(values[1].Time))
	suite.True(values[1].Time.Before(values[2].Time))
}

func (suite *PriceWindowTestSuite) TestClosesNonPositiveCount() {
	window, err := NewPriceWindow(3)
	suite.Require().NoError(err)

	window.Add(observation(0, 1))
	window.Add(observation(1, 2))

	suite.Empty(window.Closes(0))
	suite.Empty(window.Closes(-1))
	suite.NotNil(window.Closes(-5))
}

func (suite *PriceWindowTestSuite) TestLast() {
	window, err := NewPriceWindow(2)
	suite.Require().NoError(err)

	_, ok := window.Last()
	suite.False(ok)

	window.Add(observation(0, 10))
	window.Add(observation(1, 11))
	window.Add(observation(2, 12))

	last, ok := window.Last()
	suite.True(ok)
	suite.Equal(12.0, last.Close)
}

func (suite *PriceWindowTestSuite) TestReset() {
	window, err := NewPriceWindow(2)
	suite.Require().NoError(err)

	window.Add(observation(0, 10))
	window.Add(observation(1, 11))
	window.Add(observation(2, 12))
	window.Reset()

	suite.Equal(0, window.Len())
	suite.Equal(2, window.Cap())

	window.Add(observation(3, 7))
	suite.Equal([]float64{7}, window.Closes(2))
}

package strategy

import (
	"testing"

	"github.com/rxtech-lab/candle-trader/mocks"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestParseKind() {
	kind, err := ParseKind("sma")
	suite.NoError(err)
	suite.Equal(KindSMA, kind)

	kind, err = ParseKind("echo")
	suite.NoError(err)
	suite.Equal(KindEcho, kind)

	_, err = ParseKind("martingale")
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))
}

func (suite *RegistryTestSuite) TestKindsSorted() {
	suite.Equal([]Kind{KindEcho, KindSMA}, Kinds())
}

func (suite *RegistryTestSuite) TestGetInfo() {
	info, err := GetInfo(KindSMA)
	suite.NoError(err)
	suite.Equal(CrossoverName, info.Name)
	suite.True(info.PlacesOrders)

	info, err = GetInfo(KindEcho)
	suite.NoError(err)
	suite.False(info.PlacesOrders)

	_, err = GetInfo("unknown")
	suite.Error(err)
}

func (suite *RegistryTestSuite) TestNew() {
	ctrl := gomock.NewController(suite.T())
	port := mocks.NewMockOrderPlacer(ctrl)

	s, err := New(KindSMA, Params{
		Port:         port,
		InstrumentID: testInstrument,
		Crossover:    CrossoverConfig{FastWindow: 3, SlowWindow: 5, OrderQuantity: 1},
	})
	suite.Require().NoError(err)
	suite.IsType(&Crossover{}, s)
	suite.Equal(CrossoverName, s.Name())

	s, err = New(KindEcho, Params{InstrumentID: testInstrument})
	suite.Require().NoError(err)
	suite.IsType(&Echo{}, s)
}

func (suite *RegistryTestSuite) TestNewInvalidCrossoverConfig() {
	ctrl := gomock.NewController(suite.T())

	s, err := New(KindSMA, Params{
		Port:      mocks.NewMockOrderPlacer(ctrl),
		Crossover: CrossoverConfig{FastWindow: 5, SlowWindow: 3, OrderQuantity: 1},
	})
	suite.Nil(s)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *RegistryTestSuite) TestNewUnknownKind() {
	s, err := New("grid", Params{})
	suite.Nil(s)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))
}

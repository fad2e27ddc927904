package marketdata

import (
	"testing"

	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProvidersSorted() {
	suite.Equal([]string{"binance", "polygon", "replay"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo() {
	info, err := GetProviderInfo("polygon")
	suite.Require().NoError(err)
	suite.Equal("Polygon.io", info.DisplayName)
	suite.True(info.RequiresAuth)
	suite.True(info.SupportsDownload)

	info, err = GetProviderInfo("binance")
	suite.Require().NoError(err)
	suite.False(info.RequiresAuth)

	info, err = GetProviderInfo("replay")
	suite.Require().NoError(err)
	suite.False(info.SupportsDownload)

	_, err = GetProviderInfo("invalid")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

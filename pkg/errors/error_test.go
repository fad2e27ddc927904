package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidConfiguration, "fast window must be below slow window")
	suite.Equal(ErrCodeInvalidConfiguration, err.Code)
	suite.Equal("fast window must be below slow window", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[101] fast window must be below slow window", err.Error())
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnsupportedStrategy, "unknown strategy %q", "rsi")
	suite.Equal(`[403] unknown strategy "rsi"`, err.Error())
}

func (suite *ErrorTestSuite) TestWrapKeepsCause() {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeOrderFailed, "failed to place order", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[500] failed to place order: connection reset", err.Error())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapf() {
	cause := errors.New("timeout")
	err := Wrapf(ErrCodeMarketDataFetchFailed, cause, "failed to fetch %s", "BTCUSDT")
	suite.Equal("failed to fetch BTCUSDT", err.Message)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCodeThroughWrapping() {
	inner := New(ErrCodeOrderFailed, "rejected")
	wrapped := fmt.Errorf("strategy: %w", inner)

	suite.Equal(ErrCodeOrderFailed, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeOrderFailed))
	suite.True(IsOrderError(wrapped))

	var target *Error
	suite.True(As(wrapped, &target))
	suite.Equal("rejected", target.Message)
}

func (suite *ErrorTestSuite) TestGetCodeUnknown() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.False(IsOrderError(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

package strategy

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// Kind identifies a built-in strategy.
type Kind string

const (
	KindEcho Kind = "echo"
	KindSMA  Kind = "sma"
)

// Params carries everything a strategy constructor may need.
// Strategies ignore the fields they have no use for.
type Params struct {
	Port         OrderPlacer
	InstrumentID string
	Observer     Observer
	Logger       *logger.Logger
	Crossover    CrossoverConfig
}

// Info describes a registered strategy.
type Info struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// PlacesOrders is true when the strategy needs a trading provider.
	PlacesOrders bool `json:"places_orders" yaml:"places_orders"`
}

type registration struct {
	info        Info
	constructor func(Params) (Strategy, error)
}

var registry = map[Kind]registration{
	KindEcho: {
		info: Info{
			Kind:        KindEcho,
			Name:        EchoName,
			Description: "Logs every closed candle without trading",
		},
		constructor: func(p Params) (Strategy, error) {
			return NewEcho(p.InstrumentID, p.Observer, p.Logger), nil
		},
	},
	KindSMA: {
		info: Info{
			Kind:         KindSMA,
			Name:         CrossoverName,
			Description:  "Buys when the fast SMA crosses above the slow SMA and sells on the reverse cross",
			PlacesOrders: true,
		},
		constructor: func(p Params) (Strategy, error) {
			crossover, err := NewCrossover(p.Port, p.InstrumentID, p.Crossover, p.Observer)
			if err != nil {
				return nil, err
			}

			return crossover, nil
		},
	},
}

// ParseKind converts a user supplied name into a Kind.
func ParseKind(name string) (Kind, error) {
	kind := Kind(name)
	if _, ok := registry[kind]; !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q, supported: %v", name, Kinds())
	}

	return kind, nil
}

// Kinds returns all registered strategy kinds in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}

// GetInfo returns the description of a registered strategy.
func GetInfo(kind Kind) (Info, error) {
	reg, ok := registry[kind]
	if !ok {
		return Info{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q", kind)
	}

	return reg.info, nil
}

// New constructs the strategy registered for kind.
func New(kind Kind, params Params) (Strategy, error) {
	reg, ok := registry[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q", kind)
	}

	s, err := reg.constructor(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s strategy: %w", kind, err)
	}

	return s, nil
}

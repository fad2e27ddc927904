package types

// Instrument describes a tradable symbol as reported by the broker.
type Instrument struct {
	Symbol     string `yaml:"symbol" json:"symbol"`
	BaseAsset  string `yaml:"base_asset" json:"base_asset"`
	QuoteAsset string `yaml:"quote_asset" json:"quote_asset"`
	Status     string `yaml:"status" json:"status"`
	// StepSize is the minimum quantity increment, as a decimal string ("0.00001000").
	StepSize string `yaml:"step_size" json:"step_size"`
	// TickSize is the minimum price increment.
	TickSize string `yaml:"tick_size" json:"tick_size"`
}

// IsTrading reports whether the broker currently accepts orders for the instrument.
func (i Instrument) IsTrading() bool {
	return i.Status == "TRADING"
}

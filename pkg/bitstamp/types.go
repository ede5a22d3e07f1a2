package bitstamp

// TradingPair is one entry of GET /api/v2/trading-pairs-info/.
type TradingPair struct {
	Name            string `json:"name"`       // e.g., "BTC/USD"
	URLSymbol       string `json:"url_symbol"` // e.g., "btcusd", the symbol used in channel names
	BaseDecimals    int    `json:"base_decimals"`
	CounterDecimals int    `json:"counter_decimals"`
	MinimumOrder    string `json:"minimum_order"`
	Trading         string `json:"trading"` // "Enabled" or "Disabled"
	Description     string `json:"description"`
}

// IsTrading reports whether the pair is currently enabled for trading.
func (p TradingPair) IsTrading() bool {
	return p.Trading == "Enabled"
}

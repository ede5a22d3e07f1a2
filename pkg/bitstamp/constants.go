package bitstamp

import "strings"

const (
	// DefaultWSURL is the public Bitstamp WebSocket API v2 endpoint.
	DefaultWSURL = "wss://ws.bitstamp.net"
	// DefaultRESTURL is the public Bitstamp HTTP API base.
	DefaultRESTURL = "https://www.bitstamp.net"
	// DefaultSymbol is used when no market symbol is configured.
	DefaultSymbol = "btcusdt"
)

const (
	EventSubscribe      = "bts:subscribe"
	EventSubscribed     = "bts:subscription_succeeded"
	EventRequestReconn  = "bts:request_reconnect"
	OrderBookChanPrefix = "order_book_"
)

// OrderBookChannel returns the order book channel name for a market symbol,
// e.g. "BTCUSD" → "order_book_btcusd".
func OrderBookChannel(symbol string) string {
	return OrderBookChanPrefix + strings.ToLower(symbol)
}

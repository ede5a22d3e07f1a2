package symbolmeta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookstream/pkg/bitstamp"

	"go.uber.org/zap"
)

var (
	ErrSymbolNotFound   = errors.New("symbol not listed")
	ErrSymbolNotTrading = errors.New("symbol not trading")
)

// PairLister is the part of the REST client the loader needs.
type PairLister interface {
	GetTradingPairs(ctx context.Context) ([]bitstamp.TradingPair, error)
}

type SymbolLoader struct {
	RestClient PairLister
	Timeout    time.Duration
	Logger     *zap.Logger
}

// LoadSymbols fetches the exchange's trading pairs keyed by url symbol.
func (l *SymbolLoader) LoadSymbols(ctx context.Context) (map[string]bitstamp.TradingPair, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	pairs, err := l.RestClient.GetTradingPairs(ctx)
	if err != nil {
		l.Logger.Error("failed to load trading pairs", zap.Error(err))
		return nil, err
	}
	l.Logger.Info("loaded symbols", zap.Int("count", len(pairs)))

	out := make(map[string]bitstamp.TradingPair, len(pairs))
	for _, p := range pairs {
		out[strings.ToLower(p.URLSymbol)] = p
	}
	return out, nil
}

// Validate checks that symbol is listed and enabled for trading.
func (l *SymbolLoader) Validate(ctx context.Context, symbol string) (bitstamp.TradingPair, error) {
	pairs, err := l.LoadSymbols(ctx)
	if err != nil {
		return bitstamp.TradingPair{}, fmt.Errorf("validate symbol %q: %w", symbol, err)
	}

	pair, ok := pairs[strings.ToLower(symbol)]
	if !ok {
		return bitstamp.TradingPair{}, fmt.Errorf("%w: %q", ErrSymbolNotFound, symbol)
	}
	if !pair.IsTrading() {
		return pair, fmt.Errorf("%w: %q is %s", ErrSymbolNotTrading, symbol, pair.Trading)
	}

	l.Logger.Info("symbol validated", zap.String("symbol", pair.URLSymbol), zap.String("name", pair.Name))
	return pair, nil
}

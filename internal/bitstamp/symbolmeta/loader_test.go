package symbolmeta

import (
	"context"
	"errors"
	"testing"

	"bookstream/pkg/bitstamp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLister struct {
	pairs []bitstamp.TradingPair
	err   error
}

func (f fakeLister) GetTradingPairs(_ context.Context) ([]bitstamp.TradingPair, error) {
	return f.pairs, f.err
}

func newLoader(l PairLister) *SymbolLoader {
	return &SymbolLoader{RestClient: l, Logger: zap.NewNop()}
}

var pairs = []bitstamp.TradingPair{
	{Name: "BTC/USD", URLSymbol: "btcusd", Trading: "Enabled"},
	{Name: "XYZ/EUR", URLSymbol: "xyzeur", Trading: "Disabled"},
}

// go test -v --run TestValidate
func TestValidate(t *testing.T) {
	loader := newLoader(fakeLister{pairs: pairs})

	pair, err := loader.Validate(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", pair.Name)

	_, err = loader.Validate(context.Background(), "dogeusd")
	assert.True(t, errors.Is(err, ErrSymbolNotFound))

	pair, err = loader.Validate(context.Background(), "xyzeur")
	assert.True(t, errors.Is(err, ErrSymbolNotTrading))
	assert.Equal(t, "xyzeur", pair.URLSymbol)
}

func TestValidate_ListerError(t *testing.T) {
	listErr := errors.New("bitstamp error: status 503")
	loader := newLoader(fakeLister{err: listErr})

	_, err := loader.Validate(context.Background(), "btcusd")
	assert.True(t, errors.Is(err, listErr))
	assert.False(t, errors.Is(err, ErrSymbolNotFound))
}

func TestLoadSymbols(t *testing.T) {
	symbols, err := newLoader(fakeLister{pairs: pairs}).LoadSymbols(context.Background())
	require.NoError(t, err)
	assert.Len(t, symbols, 2)
	assert.Contains(t, symbols, "btcusd")
	assert.Contains(t, symbols, "xyzeur")
}

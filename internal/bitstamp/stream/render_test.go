package stream

import (
	"testing"

	"bookstream/pkg/bitstamp"

	"github.com/stretchr/testify/assert"
)

// go test -v --run TestRenderAsks
func TestRenderAsks(t *testing.T) {
	book := &bitstamp.OrderBook{
		Asks: []bitstamp.Offer{
			{Price: 29001, Qty: 0.5},
			{Price: 28000.25, Qty: 2}, // out of price order on purpose: no re-sorting
			{Price: 29010.5, Qty: 0.001},
		},
	}

	got := RenderAsks(book, 10)
	assert.Equal(t, []AskLevel{
		{Index: 0, Price: "29001", Qty: "0.5"},
		{Index: 1, Price: "28000.25", Qty: "2"},
		{Index: 2, Price: "29010.5", Qty: "0.001"},
	}, got)
	assert.Equal(t, "1. ask: 28000.25, size: 2", got[1].String())

	assert.Len(t, RenderAsks(book, 2), 2)
	assert.Empty(t, RenderAsks(book, 0))
	assert.Empty(t, RenderAsks(nil, 10))
	assert.Empty(t, RenderAsks(&bitstamp.OrderBook{}, 10))
}

func TestFormatDecimal32(t *testing.T) {
	cases := map[float32]string{
		0:          "0",
		-1.5:       "-1.5",
		0.1:        "0.1",
		1000:       "1000",
		0.00012345: "0.00012345",
		29001.25:   "29001.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDecimal32(in))
	}

	// Text from the wire survives decode and render.
	for _, text := range []string{"0.1", "29001.37", "0.00000001", "-3.75"} {
		v, err := bitstamp.ParseDecimal32("price", text)
		assert.NoError(t, err)
		assert.Equal(t, text, FormatDecimal32(v))
	}
}

package stream

import (
	"fmt"
	"strconv"

	"bookstream/pkg/bitstamp"
)

// AskLevel is one rendered line of the ask side.
type AskLevel struct {
	Index int
	Price string
	Qty   string
}

func (l AskLevel) String() string {
	return fmt.Sprintf("%d. ask: %s, size: %s", l.Index, l.Price, l.Qty)
}

// RenderAsks returns up to depth asks in the order the server sent them.
func RenderAsks(book *bitstamp.OrderBook, depth int) []AskLevel {
	if book == nil || depth <= 0 {
		return nil
	}

	n := min(len(book.Asks), depth)
	levels := make([]AskLevel, n)
	for i, ask := range book.Asks[:n] {
		levels[i] = AskLevel{
			Index: i,
			Price: FormatDecimal32(ask.Price),
			Qty:   FormatDecimal32(ask.Qty),
		}
	}
	return levels
}

// FormatDecimal32 prints the shortest decimal that parses back to v.
func FormatDecimal32(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

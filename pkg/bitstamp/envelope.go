package bitstamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformedEnvelope is returned when the outer message is not a valid envelope object.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrUnexpectedShape is returned by Offer.UnmarshalJSON when a price level
	// is neither a [price, qty] array nor a {price, qty} object of strings.
	ErrUnexpectedShape = errors.New("unexpected shape")
)

// SubscribeRequest is the first message sent on a new connection.
type SubscribeRequest struct {
	Event string        `json:"event"`
	Data  SubscribeData `json:"data"`
}

type SubscribeData struct {
	Channel string `json:"channel"`
}

// NewSubscribeRequest builds the order book subscription for a market symbol.
func NewSubscribeRequest(symbol string) SubscribeRequest {
	return SubscribeRequest{
		Event: EventSubscribe,
		Data:  SubscribeData{Channel: OrderBookChannel(symbol)},
	}
}

// Encode serializes the request to its JSON wire form.
func (r SubscribeRequest) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode subscribe request: %w", err)
	}
	return b, nil
}

// Envelope is one decoded inbound application message.
type Envelope struct {
	Channel string
	Event   string
	Data    Payload
	Raw     []byte // raw frame text, kept for logging
}

// Payload is either *OrderBook or Unrecognized.
type Payload interface {
	payload()
}

// OrderBook is a full order book snapshot. Levels keep the server's ordering,
// best price first.
type OrderBook struct {
	Timestamp      string  `json:"timestamp"`
	Microtimestamp string  `json:"microtimestamp"`
	Bids           []Offer `json:"bids"`
	Asks           []Offer `json:"asks"`
}

// Unrecognized is any payload that does not have the order book shape,
// such as subscription acknowledgements.
type Unrecognized struct{}

func (*OrderBook) payload()   {}
func (Unrecognized) payload() {}

// OrderBook returns the envelope's order book, if it carries one.
func (e Envelope) OrderBook() (*OrderBook, bool) {
	book, ok := e.Data.(*OrderBook)
	return book, ok
}

// Offer is one price level.
type Offer struct {
	Price float32 `json:"price"`
	Qty   float32 `json:"qty"`
}

// UnmarshalJSON accepts ["price","qty"] and {"price":"..","qty":".."} levels.
// Both fields travel as decimal text and are parsed with ParseDecimal32.
func (o *Offer) UnmarshalJSON(b []byte) error {
	t, ok := offerText(b)
	if !ok {
		return fmt.Errorf("%w: offer %s", ErrUnexpectedShape, b)
	}
	return o.set(t)
}

func (o *Offer) set(t levelText) error {
	price, err := ParseDecimal32("price", t.price)
	if err != nil {
		return err
	}
	qty, err := ParseDecimal32("qty", t.qty)
	if err != nil {
		return err
	}
	o.Price, o.Qty = price, qty
	return nil
}

// NumberError reports a numeric field whose text is not a float literal.
type NumberError struct {
	Field string
	Text  string
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Text, e.Err)
}

func (e *NumberError) Unwrap() error { return e.Err }

// ParseDecimal32 parses decimal text into a float32. Empty or non-numeric
// text is an error, never zero. Magnitudes beyond float32 become ±Inf.
// Hexadecimal literals are not decimal text and are rejected.
func ParseDecimal32(field, text string) (float32, error) {
	if hasHexPrefix(text) {
		return 0, &NumberError{Field: field, Text: text, Err: strconv.ErrSyntax}
	}
	f, err := strconv.ParseFloat(text, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, &NumberError{Field: field, Text: text, Err: err}
	}
	return float32(f), nil
}

func hasHexPrefix(text string) bool {
	if len(text) > 0 && (text[0] == '+' || text[0] == '-') {
		text = text[1:]
	}
	return len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X')
}

// DecodeEnvelope decodes one text frame.
//
// The data field is resolved in order: if it has the order book shape it is
// decoded as *OrderBook, otherwise it is Unrecognized. A shape mismatch is
// not an error. A matched order book with a price or quantity that is not a
// float literal is an error wrapping *NumberError.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, fmt.Errorf("%w: not a JSON object", ErrMalformedEnvelope)
	}

	var wire struct {
		Channel *string         `json:"channel"`
		Event   *string         `json:"event"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if wire.Channel == nil || wire.Event == nil {
		return Envelope{}, fmt.Errorf("%w: missing channel or event", ErrMalformedEnvelope)
	}

	env := Envelope{
		Channel: *wire.Channel,
		Event:   *wire.Event,
		Data:    Unrecognized{},
		Raw:     raw,
	}

	book, matched, err := decodeOrderBook(wire.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode %s payload: %w", env.Channel, err)
	}
	if matched {
		env.Data = book
	}
	return env, nil
}

// orderBookShape is the structural probe for an order book payload.
// Nil fields mean the key was absent or null.
type orderBookShape struct {
	Timestamp      *string            `json:"timestamp"`
	Microtimestamp *string            `json:"microtimestamp"`
	Bids           *[]json.RawMessage `json:"bids"`
	Asks           *[]json.RawMessage `json:"asks"`
}

type levelText struct {
	price, qty string
}

// decodeOrderBook checks the whole shape first and parses numbers only once
// the shape matched, so a value error is never mistaken for a mismatch.
func decodeOrderBook(data json.RawMessage) (*OrderBook, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	var shape orderBookShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, false, nil
	}
	if shape.Timestamp == nil || shape.Microtimestamp == nil || shape.Bids == nil || shape.Asks == nil {
		return nil, false, nil
	}

	if !levelsMatch(*shape.Bids) || !levelsMatch(*shape.Asks) {
		return nil, false, nil
	}

	book := &OrderBook{
		Timestamp:      *shape.Timestamp,
		Microtimestamp: *shape.Microtimestamp,
		Bids:           make([]Offer, len(*shape.Bids)),
		Asks:           make([]Offer, len(*shape.Asks)),
	}
	for i, raw := range *shape.Bids {
		if err := json.Unmarshal(raw, &book.Bids[i]); err != nil {
			return nil, true, fmt.Errorf("bids[%d]: %w", i, err)
		}
	}
	for i, raw := range *shape.Asks {
		if err := json.Unmarshal(raw, &book.Asks[i]); err != nil {
			return nil, true, fmt.Errorf("asks[%d]: %w", i, err)
		}
	}
	return book, true, nil
}

func levelsMatch(levels []json.RawMessage) bool {
	for _, raw := range levels {
		if _, ok := offerText(raw); !ok {
			return false
		}
	}
	return true
}

func offerText(raw []byte) (levelText, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return levelText{}, false
	}

	switch raw[0] {
	case '[':
		var pair []*string
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 || pair[0] == nil || pair[1] == nil {
			return levelText{}, false
		}
		return levelText{price: *pair[0], qty: *pair[1]}, true
	case '{':
		var obj struct {
			Price *string `json:"price"`
			Qty   *string `json:"qty"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Price == nil || obj.Qty == nil {
			return levelText{}, false
		}
		return levelText{price: *obj.Price, qty: *obj.Qty}, true
	}
	return levelText{}, false
}

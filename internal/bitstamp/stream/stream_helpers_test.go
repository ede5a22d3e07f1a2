package stream

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"bookstream/pkg/bitstamp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedReader replays frames, then returns err (io.EOF when nil).
type scriptedReader struct {
	frames []bitstamp.Frame
	err    error
	reads  int
}

func (s *scriptedReader) ReadFrame(_ context.Context) (bitstamp.Frame, error) {
	if s.reads < len(s.frames) {
		f := s.frames[s.reads]
		s.reads++
		return f, nil
	}
	s.reads++
	if s.err != nil {
		return bitstamp.Frame{}, s.err
	}
	return bitstamp.Frame{}, io.EOF
}

// blockingReader waits for cancellation.
type blockingReader struct{}

func (blockingReader) ReadFrame(ctx context.Context) (bitstamp.Frame, error) {
	<-ctx.Done()
	return bitstamp.Frame{}, ctx.Err()
}

// recordingSink stands in for the frame queue.
type recordingSink struct {
	mu     sync.Mutex
	frames []bitstamp.Frame
	closed bool
}

func (s *recordingSink) Push(f bitstamp.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

type countingStats struct {
	frames       map[bitstamp.FrameKind]int
	books        int
	unrecognized int
}

func newCountingStats() *countingStats {
	return &countingStats{frames: make(map[bitstamp.FrameKind]int)}
}

func (c *countingStats) AddFrame(kind bitstamp.FrameKind) { c.frames[kind]++ }
func (c *countingStats) AddBook()                         { c.books++ }
func (c *countingStats) AddUnrecognized()                 { c.unrecognized++ }

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func textFrame(s string) bitstamp.Frame {
	return bitstamp.Frame{Kind: bitstamp.TextFrame, Payload: []byte(s)}
}

// bookJSON builds an order book envelope with n asks priced 100.5, 101.5, ...
// and quantities 0.25, 1.25, ...
func bookJSON(n int) string {
	asks := make([]string, n)
	for i := range asks {
		asks[i] = fmt.Sprintf(`["%d.5","%d.25"]`, 100+i, i)
	}
	return `{"channel":"order_book_btcusd","event":"data","data":{` +
		`"timestamp":"1700000000","microtimestamp":"1700000000000001",` +
		`"bids":[["99","1"]],"asks":[` + strings.Join(asks, ",") + `]}}`
}

func askMessages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		if strings.Contains(e.Message, ". ask: ") {
			out = append(out, e.Message)
		}
	}
	return out
}

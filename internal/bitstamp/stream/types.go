package stream

import (
	"context"
	"errors"

	"bookstream/pkg/bitstamp"
)

var (
	ErrRead   = errors.New("websocket read failed")
	ErrWrite  = errors.New("websocket write failed")
	ErrDecode = errors.New("envelope decode failed")
)

// DefaultDepth is the number of ask levels rendered per order book.
const DefaultDepth = 10

// FrameReader is the inbound half of a session.
type FrameReader interface {
	ReadFrame(ctx context.Context) (bitstamp.Frame, error)
}

// FrameWriter is the outbound half of a session.
type FrameWriter interface {
	WriteFrame(f bitstamp.Frame) error
}

// FrameSink queues frames for the writer. Close signals that no more frames follow.
type FrameSink interface {
	Push(f bitstamp.Frame) bool
	Close()
}

// StatsRecorder counts what the reader has seen.
type StatsRecorder interface {
	AddFrame(kind bitstamp.FrameKind)
	AddBook()
	AddUnrecognized()
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bookstream/pkg/bitstamp"

	"go.uber.org/zap"
)

// Reader consumes inbound frames one at a time. It never writes to the
// socket; keepalive replies go to the writer through the sink.
type Reader struct {
	frames FrameReader
	queue  FrameSink
	stats  StatsRecorder
	depth  int
	logger *zap.Logger
}

func NewReader(frames FrameReader, queue FrameSink, stats StatsRecorder, depth int, logger *zap.Logger) *Reader {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Reader{
		frames: frames,
		queue:  queue,
		stats:  stats,
		depth:  depth,
		logger: logger,
	}
}

// Run reads until a close frame, the end of the stream, or a fatal error.
// A close frame or end of stream returns nil. The sink is closed on return.
func (r *Reader) Run(ctx context.Context) error {
	defer r.queue.Close()

	for {
		f, err := r.frames.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Info("stream ended")
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.logger.Error("WebSocket read error", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrRead, err)
		}

		r.stats.AddFrame(f.Kind)
		closed, err := r.handle(f)
		if err != nil {
			return err
		}
		if closed {
			return nil
		}
	}
}

func (r *Reader) handle(f bitstamp.Frame) (closed bool, err error) {
	switch f.Kind {
	case bitstamp.TextFrame:
		return false, r.handleText(f.Payload)
	case bitstamp.PingFrame:
		r.logger.Info("Ping message received", zap.ByteString("payload", f.Payload))
		if !r.queue.Push(bitstamp.Pong()) {
			r.logger.Warn("outbound queue stopped, pong dropped")
		}
	case bitstamp.PongFrame:
		r.logger.Info("Pong received", zap.ByteString("payload", f.Payload))
	case bitstamp.CloseFrame:
		r.logger.Info("Close received",
			zap.Int("code", f.CloseCode),
			zap.String("reason", f.CloseText),
		)
		return true, nil
	default:
		r.logger.Warn("unexpected frame",
			zap.Stringer("kind", f.Kind),
			zap.Int("bytes", len(f.Payload)),
		)
	}
	return false, nil
}

func (r *Reader) handleText(payload []byte) error {
	env, err := bitstamp.DecodeEnvelope(payload)
	if err != nil {
		r.logger.Error("failed to decode envelope", zap.ByteString("received_text", payload), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	book, ok := env.OrderBook()
	if !ok {
		r.stats.AddUnrecognized()
		r.logger.Info("unrecognized envelope",
			zap.String("channel", env.Channel),
			zap.String("event", env.Event),
			zap.ByteString("received_text", env.Raw),
		)
		switch env.Event {
		case bitstamp.EventSubscribed:
			r.logger.Info("subscription succeeded", zap.String("channel", env.Channel))
		case bitstamp.EventRequestReconn:
			// Reconnecting is left to whoever restarts the process.
			r.logger.Warn("server requested reconnect", zap.String("channel", env.Channel))
		}
		return nil
	}

	r.stats.AddBook()
	for _, lvl := range RenderAsks(book, r.depth) {
		r.logger.Info(lvl.String(),
			zap.Int("index", lvl.Index),
			zap.String("price", lvl.Price),
			zap.String("size", lvl.Qty),
		)
	}
	return nil
}

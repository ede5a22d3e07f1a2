package stream

import (
	"context"
	"fmt"

	"bookstream/pkg/bitstamp"

	"go.uber.org/zap"
)

// Writer is the only component that writes to the outbound half.
type Writer struct {
	frames <-chan bitstamp.Frame
	conn   FrameWriter
	logger *zap.Logger
}

func NewWriter(frames <-chan bitstamp.Frame, conn FrameWriter, logger *zap.Logger) *Writer {
	return &Writer{
		frames: frames,
		conn:   conn,
		logger: logger,
	}
}

// Run writes queued frames in order until the queue is closed. The first
// write failure ends the task; nothing is retried.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case f, ok := <-w.frames:
			if !ok {
				return nil
			}
			if err := w.conn.WriteFrame(f); err != nil {
				w.logger.Error("failed to write frame", zap.Stringer("kind", f.Kind), zap.Error(err))
				return fmt.Errorf("%w: %s: %w", ErrWrite, f.Kind, err)
			}
			w.logger.Debug("frame sent", zap.Stringer("kind", f.Kind))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

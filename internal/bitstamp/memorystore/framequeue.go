package memorystore

import (
	"sync"

	"bookstream/pkg/bitstamp"
)

// FrameQueue is an unbounded FIFO of outbound frames with one producer and
// one consumer. Push never waits on the consumer.
type FrameQueue struct {
	in   chan bitstamp.Frame
	out  chan bitstamp.Frame
	stop chan struct{}

	closeOnce sync.Once
	stopOnce  sync.Once
}

func NewFrameQueue() *FrameQueue {
	q := &FrameQueue{
		in:   make(chan bitstamp.Frame),
		out:  make(chan bitstamp.Frame),
		stop: make(chan struct{}),
	}
	go q.worker()
	return q
}

// Push appends a frame. It reports false if the queue was stopped.
// Push must not be called after Close.
func (q *FrameQueue) Push(f bitstamp.Frame) bool {
	select {
	case q.in <- f:
		return true
	case <-q.stop:
		return false
	}
}

// Close marks the end of input. Frames already pushed are still delivered,
// then Frames is closed.
func (q *FrameQueue) Close() {
	q.closeOnce.Do(func() { close(q.in) })
}

// Stop discards anything still queued and releases the worker.
func (q *FrameQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
}

// Frames is the consumer side, in push order.
func (q *FrameQueue) Frames() <-chan bitstamp.Frame {
	return q.out
}

func (q *FrameQueue) worker() {
	defer close(q.out)

	var pending []bitstamp.Frame
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan<- bitstamp.Frame
		var next bitstamp.Frame
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case f, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, f)
		case out <- next:
			pending[0] = bitstamp.Frame{}
			pending = pending[1:]
		case <-q.stop:
			return
		}
	}
}

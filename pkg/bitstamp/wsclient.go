package bitstamp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnect   = errors.New("websocket connect failed")
	ErrSubscribe = errors.New("websocket subscribe failed")
)

// WSOptions tunes the WebSocket session.
type WSOptions struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration // zero means no write deadline
	FrameBuffer      int           // inbound frames buffered ahead of the reader
}

// DefaultWSOptions returns the options used when none are configured.
func DefaultWSOptions() WSOptions {
	return WSOptions{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		FrameBuffer:      64,
	}
}

// Session owns one WebSocket connection to Bitstamp.
type Session struct {
	url    string
	conn   *websocket.Conn
	opts   WSOptions
	logger *zap.Logger

	splitOnce sync.Once
	in        *Inbound
	out       *Outbound
}

// Dial connects to url and logs the handshake response.
func Dial(ctx context.Context, url string, opts WSOptions, logger *zap.Logger) (*Session, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		logger.Debug("Failed to connect to WebSocket", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, url, err)
	}
	logger.Info("WebSocket connected", zap.String("url", url))
	if resp != nil {
		logger.Info("handshake response",
			zap.Int("status", resp.StatusCode),
			zap.Any("headers", resp.Header),
		)
	}

	return &Session{
		url:    url,
		conn:   conn,
		opts:   opts,
		logger: logger,
	}, nil
}

// URL returns the endpoint the session is connected to.
func (s *Session) URL() string {
	return s.url
}

// Subscribe sends the subscription as the first outbound text frame.
// It must be called before Split.
func (s *Session) Subscribe(req SubscribeRequest) error {
	payload, err := req.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	_ = s.conn.SetWriteDeadline(deadline(s.opts.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Debug("Failed to send subscription", zap.String("channel", req.Data.Channel), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	s.logger.Info("subscription sent", zap.String("channel", req.Data.Channel))
	return nil
}

// Split hands out the inbound and outbound halves of the connection. From
// then on only the Inbound reads and only the Outbound writes. Repeated calls
// return the same halves.
func (s *Session) Split() (*Inbound, *Outbound) {
	s.splitOnce.Do(func() {
		s.in = newInbound(s.conn, s.opts.FrameBuffer)
		s.out = &Outbound{conn: s.conn, writeTimeout: s.opts.WriteTimeout}
	})
	return s.in, s.out
}

// Close stops the inbound pump and closes the socket.
func (s *Session) Close() error {
	if s.in != nil {
		s.in.Close()
	}
	return s.conn.Close()
}

type inboundResult struct {
	frame Frame
	err   error
}

// Inbound is the read half of a session. gorilla consumes control frames
// inside ReadMessage, so ping, pong and close are captured by handlers and
// delivered in arrival order alongside data frames. No automatic replies are
// written.
type Inbound struct {
	conn      *websocket.Conn
	frames    chan inboundResult
	done      chan struct{}
	closeOnce sync.Once

	// set by the close handler; only touched on the pump goroutine
	closeSeen bool
}

func newInbound(conn *websocket.Conn, buffer int) *Inbound {
	if buffer < 0 {
		buffer = 0
	}
	in := &Inbound{
		conn:   conn,
		frames: make(chan inboundResult, buffer),
		done:   make(chan struct{}),
	}

	conn.SetPingHandler(func(data string) error {
		in.emit(Frame{Kind: PingFrame, Payload: []byte(data)})
		return nil
	})
	conn.SetPongHandler(func(data string) error {
		in.emit(Frame{Kind: PongFrame, Payload: []byte(data)})
		return nil
	})
	conn.SetCloseHandler(func(code int, text string) error {
		in.closeSeen = true
		in.emit(Frame{Kind: CloseFrame, CloseCode: code, CloseText: text})
		return nil
	})

	go in.pump()
	return in
}

// ReadFrame returns the next frame in arrival order. It returns io.EOF once
// the stream has ended after a close frame, and the read error otherwise.
func (in *Inbound) ReadFrame(ctx context.Context) (Frame, error) {
	select {
	case r, ok := <-in.frames:
		if !ok {
			return Frame{}, io.EOF
		}
		return r.frame, r.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close stops delivering frames. It does not close the socket.
func (in *Inbound) Close() {
	in.closeOnce.Do(func() { close(in.done) })
}

func (in *Inbound) emit(f Frame) bool {
	select {
	case in.frames <- inboundResult{frame: f}:
		return true
	case <-in.done:
		return false
	}
}

func (in *Inbound) pump() {
	defer close(in.frames)

	for {
		mt, data, err := in.conn.ReadMessage()
		if err != nil {
			// A close frame was already delivered by the handler. gorilla also
			// reports a dropped connection as a CloseError (1006), which is a
			// read error.
			var ce *websocket.CloseError
			if in.closeSeen && errors.As(err, &ce) {
				return
			}
			select {
			case in.frames <- inboundResult{err: err}:
			case <-in.done:
			}
			return
		}

		kind := TextFrame
		if mt == websocket.BinaryMessage {
			kind = BinaryFrame
		}
		if !in.emit(Frame{Kind: kind, Payload: data}) {
			return
		}
	}
}

// Outbound is the write half of a session. It is not safe for concurrent
// use; a single writer owns it.
type Outbound struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// WriteFrame writes one frame to the socket.
func (o *Outbound) WriteFrame(f Frame) error {
	mt, ok := f.Kind.messageType()
	if !ok {
		return fmt.Errorf("unsupported frame kind %s", f.Kind)
	}

	if f.Kind.isControl() {
		payload := f.Payload
		if f.Kind == CloseFrame {
			code := f.CloseCode
			if code == 0 {
				code = websocket.CloseNormalClosure
			}
			payload = websocket.FormatCloseMessage(code, f.CloseText)
		}
		return o.conn.WriteControl(mt, payload, deadline(o.writeTimeout))
	}

	_ = o.conn.SetWriteDeadline(deadline(o.writeTimeout))
	return o.conn.WriteMessage(mt, f.Payload)
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

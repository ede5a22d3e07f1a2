package bitstamp

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// FrameKind is the transport type of a WebSocket frame.
type FrameKind int

const (
	TextFrame FrameKind = iota + 1
	BinaryFrame
	PingFrame
	PongFrame
	CloseFrame
)

func (k FrameKind) String() string {
	switch k {
	case TextFrame:
		return "text"
	case BinaryFrame:
		return "binary"
	case PingFrame:
		return "ping"
	case PongFrame:
		return "pong"
	case CloseFrame:
		return "close"
	default:
		return fmt.Sprintf("frame(%d)", int(k))
	}
}

// messageType maps the kind to gorilla's message type constant.
func (k FrameKind) messageType() (int, bool) {
	switch k {
	case TextFrame:
		return websocket.TextMessage, true
	case BinaryFrame:
		return websocket.BinaryMessage, true
	case PingFrame:
		return websocket.PingMessage, true
	case PongFrame:
		return websocket.PongMessage, true
	case CloseFrame:
		return websocket.CloseMessage, true
	}
	return 0, false
}

func (k FrameKind) isControl() bool {
	return k == PingFrame || k == PongFrame || k == CloseFrame
}

// Frame is a single transport-level WebSocket message.
type Frame struct {
	Kind    FrameKind
	Payload []byte

	// Set on close frames only.
	CloseCode int
	CloseText string
}

// Pong returns an empty pong frame, the reply to a server ping.
func Pong() Frame {
	return Frame{Kind: PongFrame}
}

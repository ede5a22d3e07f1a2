package bitstamp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain keeps reading so control handlers run, until the client goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func testOptions() WSOptions {
	opts := DefaultWSOptions()
	opts.HandshakeTimeout = 2 * time.Second
	return opts
}

// go test -v --run TestDial_Failure
func TestDial_Failure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	_, err := Dial(context.Background(), url, testOptions(), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnect), "got %v", err)
}

func TestDial_NotWebSocket(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	assert.True(t, errors.Is(err, ErrConnect), "got %v", err)
}

// go test -v --run TestSession_Subscribe
func TestSession_Subscribe(t *testing.T) {
	received := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt == websocket.TextMessage {
			received <- string(msg)
		}
		drain(conn)
	})

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, wsURL(server), session.URL())
	require.NoError(t, session.Subscribe(NewSubscribeRequest("BTCUSD")))

	select {
	case msg := <-received:
		assert.Equal(t, `{"event":"bts:subscribe","data":{"channel":"order_book_btcusd"}}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscribe request")
	}
}

// go test -v --run TestInbound_FrameOrder
func TestInbound_FrameOrder(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.PingMessage, []byte("hb"), deadline)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"x","channel":"c","data":{}}`))
		_ = conn.WriteControl(websocket.PongMessage, []byte("p"), deadline)
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02})
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), deadline)
		drain(conn)
	})

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	in, _ := session.Split()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []Frame
	for {
		f, err := in.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, f)
	}

	require.Len(t, got, 5)
	assert.Equal(t, Frame{Kind: PingFrame, Payload: []byte("hb")}, got[0])
	assert.Equal(t, TextFrame, got[1].Kind)
	assert.Equal(t, `{"event":"x","channel":"c","data":{}}`, string(got[1].Payload))
	assert.Equal(t, Frame{Kind: PongFrame, Payload: []byte("p")}, got[2])
	assert.Equal(t, Frame{Kind: BinaryFrame, Payload: []byte{0x01, 0x02}}, got[3])
	assert.Equal(t, CloseFrame, got[4].Kind)
	assert.Equal(t, websocket.CloseGoingAway, got[4].CloseCode)
	assert.Equal(t, "bye", got[4].CloseText)
}

func TestInbound_ReadFrameHonoursContext(t *testing.T) {
	server := mockWSServer(t, drain)

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	in, _ := session.Split()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = in.ReadFrame(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestInbound_ReadError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Drop the TCP connection without a close frame.
		conn.UnderlyingConn().Close()
	})

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	in, _ := session.Split()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = in.ReadFrame(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}

// go test -v --run TestOutbound_WriteFrame
func TestOutbound_WriteFrame(t *testing.T) {
	pongs := make(chan string, 1)
	texts := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(data string) error {
			pongs <- data
			return nil
		})
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.TextMessage {
				texts <- string(msg)
			}
		}
	})

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	_, out := session.Split()
	require.NoError(t, out.WriteFrame(Pong()))
	require.NoError(t, out.WriteFrame(Frame{Kind: TextFrame, Payload: []byte("hello")}))

	select {
	case p := <-pongs:
		assert.Equal(t, "", p)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pong")
	}
	select {
	case msg := <-texts:
		assert.Equal(t, "hello", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for text frame")
	}

	assert.Error(t, out.WriteFrame(Frame{Kind: FrameKind(99)}))
}

func TestSession_SplitIsIdempotent(t *testing.T) {
	server := mockWSServer(t, drain)

	session, err := Dial(context.Background(), wsURL(server), testOptions(), zap.NewNop())
	require.NoError(t, err)
	defer session.Close()

	in1, out1 := session.Split()
	in2, out2 := session.Split()
	assert.Same(t, in1, in2)
	assert.Same(t, out1, out2)
}

func TestFrameKind_String(t *testing.T) {
	assert.Equal(t, "ping", PingFrame.String())
	assert.Equal(t, "close", CloseFrame.String())
	assert.Equal(t, "frame(42)", FrameKind(42).String())
}

package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/session"
	"github.com/mcoot/rpsduel/internal/testutil"
)

// echoHandler writes every frame back, reporting oversized input as an
// error frame before hanging up
type echoHandler struct {
	served atomic.Int32
}

func (h *echoHandler) Serve(ctx context.Context, conn session.Conn) {
	h.served.Add(1)
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		frame, err := conn.ReadFrame()
		if errors.Is(err, model.ErrMessageTooLarge) {
			_ = conn.WriteFrame([]byte(`{"type":"error","note":"message_too_large"}`))
			return
		}
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteFrame(frame); err != nil {
			return
		}
	}
}

type TCPServerSuite struct {
	suite.Suite
	handler *echoHandler
	server  *Server
	addr    string
	done    chan error
}

func TestTCPServerSuite(t *testing.T) {
	suite.Run(t, new(TCPServerSuite))
}

func (s *TCPServerSuite) SetupTest() {
	s.handler = &echoHandler{}
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.MaxLineBytes = 256
	cfg.ShutdownTimeout = 2 * time.Second
	s.server = NewServer(s.handler, cfg, testutil.NopLogger())

	addr, err := s.server.Listen()
	s.Require().NoError(err)
	s.addr = addr.String()

	s.done = make(chan error, 1)
	go func() { s.done <- s.server.Serve() }()
}

func (s *TCPServerSuite) TearDownTest() {
	_ = s.server.Shutdown(context.Background())
}

func (s *TCPServerSuite) dial() (net.Conn, *bufio.Reader) {
	conn, err := net.Dial("tcp", s.addr)
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func (s *TCPServerSuite) readLine(r *bufio.Reader, conn net.Conn) string {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	line, err := r.ReadString('\n')
	s.Require().NoError(err)
	return line
}

func (s *TCPServerSuite) TestLinesAreFramed() {
	conn, r := s.dial()

	_, err := conn.Write([]byte("{\"a\":1}\n\n  {\"b\":2}  \n"))
	s.Require().NoError(err)

	s.Equal("{\"a\":1}\n", s.readLine(r, conn))
	s.Equal("{\"b\":2}\n", s.readLine(r, conn))
}

func (s *TCPServerSuite) TestSplitWritesAreReassembled() {
	conn, r := s.dial()

	_, err := conn.Write([]byte(`{"action":`))
	s.Require().NoError(err)
	time.Sleep(20 * time.Millisecond)
	_, err = conn.Write([]byte("\"list\"}\n"))
	s.Require().NoError(err)

	s.Equal("{\"action\":\"list\"}\n", s.readLine(r, conn))
}

func (s *TCPServerSuite) TestOversizedLineIsRejected() {
	conn, r := s.dial()

	_, err := conn.Write([]byte(`{"name":"` + strings.Repeat("x", 1024) + "\"}\n"))
	s.Require().NoError(err)

	s.Contains(s.readLine(r, conn), "message_too_large")
}

func (s *TCPServerSuite) TestShutdownClosesConnections() {
	conn, r := s.dial()
	_, err := conn.Write([]byte("{}\n"))
	s.Require().NoError(err)
	s.readLine(r, conn)

	s.Require().NoError(s.server.Shutdown(context.Background()))

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, err = r.ReadString('\n')
	s.ErrorIs(err, io.EOF)

	select {
	case err := <-s.done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("Serve did not return")
	}
}

func (s *TCPServerSuite) TestAddrReportsBoundPort() {
	s.Equal(s.addr, s.server.Addr())
}

func TestWebSocketBridge(t *testing.T) {
	handler := &echoHandler{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(NewWebSocketHandler(ctx, handler, 128, nil, testutil.NopLogger()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"list"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, `{"action":"list"}`, string(data))

	// Oversized frames close the connection with a protocol close code
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 512))))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
	assert.Equal(t, int32(1), handler.served.Load())
}

func TestWebSocketOriginCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(NewWebSocketHandler(ctx, &echoHandler{}, 128, []string{"https://play.example.com"}, testutil.NopLogger()))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "no origin header", origin: "", allowed: true},
		{name: "same origin", origin: srv.URL, allowed: true},
		{name: "listed origin", origin: "https://play.example.com", allowed: true},
		{name: "listed origin differing in case", origin: "https://PLAY.example.com", allowed: true},
		{name: "foreign origin", origin: "https://evil.example.com", allowed: false},
		{name: "malformed origin", origin: "://nope", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/protocol"
)

// WebSocketHandler bridges WebSocket clients onto the game protocol. Each
// text frame carries exactly one JSON message.
type WebSocketHandler struct {
	ctx             context.Context
	handler         Handler
	upgrader        websocket.Upgrader
	maxMessageBytes int64
	logger          *slog.Logger
}

// NewWebSocketHandler creates a handler whose sessions end when ctx is done.
// Browsers may only connect from the server's own origin or one listed in
// allowedOrigins; clients that send no Origin header are always accepted.
func NewWebSocketHandler(ctx context.Context, handler Handler, maxMessageBytes int, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if maxMessageBytes <= 0 {
		maxMessageBytes = protocol.DefaultMaxLineBytes
	}
	return &WebSocketHandler{
		ctx:     ctx,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		maxMessageBytes: int64(maxMessageBytes),
		logger:          logger,
	}
}

// ServeHTTP upgrades the request and serves the session until it ends
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	conn.SetReadLimit(h.maxMessageBytes)

	h.handler.Serve(h.ctx, &wsConn{conn: conn})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	extra := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		extra[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := extra[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				return nil, model.ErrMessageTooLarge
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				return nil, io.EOF
			}
			return nil, err
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) WriteFrame(frame []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }
func (c *wsConn) Transport() string  { return "ws" }

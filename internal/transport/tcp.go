// Package transport accepts player connections over TCP and WebSocket and
// hands each one to a session handler.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/protocol"
	"github.com/mcoot/rpsduel/internal/session"
)

// Handler serves one connection until it ends
type Handler interface {
	Serve(ctx context.Context, conn session.Conn)
}

// ServerConfig holds configuration for the TCP game server
type ServerConfig struct {
	Host            string
	Port            int
	MaxLineBytes    int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns sensible defaults for server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            9999,
		MaxLineBytes:    protocol.DefaultMaxLineBytes,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server accepts newline-delimited JSON connections
type Server struct {
	config  ServerConfig
	handler Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates a new TCP server
func NewServer(handler Handler, config ServerConfig, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:  config,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket. Port 0 picks a free port.
func (s *Server) Listen() (net.Addr, error) {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))
	return ln.Addr(), nil
}

// Serve accepts connections until Shutdown is called. Listen must have
// been called first.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("temporary accept error", slog.String("error", err.Error()))
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		go s.serveConn(conn)
	}
}

// Start listens and serves, blocking until shutdown
func (s *Server) Start() error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting, ends every session and waits for them to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down game server")

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	// Sessions flush and close their connections once cancelled
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		s.logger.Info("game server stopped")
		return nil
	case <-shutdownCtx.Done():
		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		return fmt.Errorf("shutdown error: %w", shutdownCtx.Err())
	}
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	s.handler.Serve(s.ctx, newLineConn(conn, s.config.MaxLineBytes))
}

// lineConn frames a stream connection as one JSON message per line
type lineConn struct {
	conn net.Conn
	r    *protocol.Reader
	w    *protocol.Writer
}

func newLineConn(conn net.Conn, maxLineBytes int) *lineConn {
	return &lineConn{
		conn: conn,
		r:    protocol.NewReader(conn, maxLineBytes),
		w:    protocol.NewWriter(conn),
	}
}

func (c *lineConn) ReadFrame() ([]byte, error) {
	line, err := c.r.ReadLine()
	if errors.Is(err, net.ErrClosed) {
		return nil, io.EOF
	}
	return line, err
}

func (c *lineConn) WriteFrame(frame []byte) error     { return c.w.WriteFrame(frame) }
func (c *lineConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *lineConn) Close() error                       { return c.conn.Close() }
func (c *lineConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }
func (c *lineConn) Transport() string                  { return "tcp" }

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/registry"
)

// Session is the server side of one connection. It implements
// registry.Handle: other sessions deliver events to it through Send, and a
// single writer goroutine owns the connection's write side.
type Session struct {
	mgr    *Manager
	conn   Conn
	logger *slog.Logger

	outbox chan []byte

	mu   sync.Mutex
	name model.PlayerName

	closeOnce  sync.Once
	done       chan struct{}
	writerDone chan struct{}
}

var _ registry.Handle = (*Session)(nil)

func newSession(mgr *Manager, conn Conn) *Session {
	return &Session{
		mgr:  mgr,
		conn: conn,
		logger: mgr.logger.With(
			slog.String("remote_addr", conn.RemoteAddr()),
			slog.String("transport", conn.Transport()),
		),
		outbox:     make(chan []byte, mgr.cfg.OutboxSize),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// Name returns the registered player name, or "" before registration
func (s *Session) Name() model.PlayerName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) setName(name model.PlayerName) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Send queues ev for the writer. A client that lets its outbox fill up is
// disconnected rather than allowed to stall the sender.
func (s *Session) Send(ev model.Event) bool {
	frame, err := s.mgr.encode(ev)
	if err != nil {
		s.logger.Error("failed to encode event",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return false
	}

	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.outbox <- frame:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn("outbox full, closing slow client",
			slog.String("player", string(s.Name())),
		)
		s.Close()
		return false
	}
}

// Close stops the session. Frames already queued are flushed before the
// connection is closed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)
	defer s.conn.Close()

	for {
		select {
		case frame := <-s.outbox:
			if err := s.write(frame); err != nil {
				s.logger.Debug("write failed", slog.String("error", err.Error()))
				s.Close()
				return
			}
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *Session) flush() {
	for {
		select {
		case frame := <-s.outbox:
			if err := s.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(frame []byte) error {
	if s.mgr.cfg.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.mgr.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteFrame(frame)
}

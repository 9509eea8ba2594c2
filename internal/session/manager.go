// Package session drives one client connection: it decodes requests,
// dispatches them to the registry or coordinator and delivers the
// resulting events.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/mcoot/rpsduel/internal/metrics"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/msgcat"
	"github.com/mcoot/rpsduel/internal/protocol"
	"github.com/mcoot/rpsduel/internal/registry"
	"github.com/mcoot/rpsduel/internal/services/match"
)

// Config holds per-connection settings
type Config struct {
	// OutboxSize is how many outbound frames may queue before the client is
	// considered too slow and disconnected
	OutboxSize int

	// WriteTimeout bounds each frame write
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for sessions
func DefaultConfig() Config {
	return Config{
		OutboxSize:   64,
		WriteTimeout: 10 * time.Second,
	}
}

// Manager runs sessions against the shared registry and coordinator
type Manager struct {
	cfg         Config
	registry    *registry.Registry
	coordinator *match.Coordinator
	renderer    *Renderer
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewManager creates a new Manager
func NewManager(
	cfg Config,
	registry *registry.Registry,
	coordinator *match.Coordinator,
	catalog *msgcat.Catalog,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Manager {
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = DefaultConfig().OutboxSize
	}
	return &Manager{
		cfg:         cfg,
		registry:    registry,
		coordinator: coordinator,
		renderer:    NewRenderer(catalog, logger),
		metrics:     m,
		logger:      logger,
	}
}

// Serve runs a session on conn until the peer disconnects, the player
// quits or ctx is cancelled. The connection is closed when Serve returns.
func (m *Manager) Serve(ctx context.Context, conn Conn) {
	s := newSession(m, conn)
	m.metrics.SessionOpened(conn.Transport())
	s.logger.Info("connection opened")

	go s.writeLoop()
	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	m.readLoop(s)

	player := s.Name()
	m.cleanup(s)
	s.Close()
	<-s.writerDone

	s.logger.Info("connection closed", slog.String("player", string(player)))
}

func (m *Manager) readLoop(s *Session) {
	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, model.ErrMessageTooLarge):
				m.reportError(s, err)
			case errors.Is(err, io.EOF):
			default:
				select {
				case <-s.done:
				default:
					s.logger.Debug("read failed", slog.String("error", err.Error()))
				}
			}
			return
		}

		m.handle(s, frame)

		select {
		case <-s.done:
			return
		default:
		}
	}
}

// handle processes one inbound frame. A panic is reported to the client as
// a server error and does not take down the connection.
func (m *Manager) handle(s *Session, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
			)
			m.reportError(s, fmt.Errorf("panic: %v", r))
		}
	}()

	cmd, err := protocol.ParseCommand(frame)
	if err != nil {
		m.reportError(s, err)
		return
	}
	m.metrics.MessageReceived(string(cmd.Action()))

	events, err := m.dispatch(s, cmd)
	if err != nil {
		m.reportError(s, err)
		return
	}
	m.deliver(s, events)
}

func (m *Manager) reportError(s *Session, err error) {
	note := protocol.ErrorNote(err)
	m.metrics.ProtocolError(note)
	s.logger.Info("request failed",
		slog.String("player", string(s.Name())),
		slog.String("note", note),
		slog.String("error", err.Error()),
	)
	s.Send(model.Event{Type: model.EventError, Payload: model.ErrorPayload{Err: err}})
}

// deliver sends each event to its addressee. Events for players who have
// gone offline are dropped.
func (m *Manager) deliver(s *Session, events []model.Event) {
	for _, ev := range events {
		if ev.To == "" {
			s.Send(ev)
			continue
		}
		if !m.registry.Send(ev.To, ev) {
			m.logger.Debug("event not delivered",
				slog.String("player", string(ev.To)),
				slog.String("type", string(ev.Type)),
			)
		}
	}
}

// cleanup handles a connection that went away without quitting
func (m *Manager) cleanup(s *Session) {
	name := s.Name()
	if name == "" {
		return
	}
	s.setName("")
	if !m.registry.Release(name, s) {
		return
	}

	events := m.coordinator.HandleDisconnect(name)
	events = append(events, m.presenceEvents(model.SystemLeft, name)...)
	m.deliver(s, events)
}

// presenceEvents builds a fresh online list for everyone still online and
// a system announcement for everyone except player
func (m *Manager) presenceEvents(kind model.SystemKind, player model.PlayerName) []model.Event {
	names := m.registry.Names()
	events := make([]model.Event, 0, 2*len(names))
	for _, n := range names {
		events = append(events, model.Event{
			To:      n,
			Type:    model.EventOnlineList,
			Payload: model.OnlineListPayload{Players: without(names, n)},
		})
	}
	for _, n := range names {
		if n == player {
			continue
		}
		events = append(events, model.Event{
			To:      n,
			Type:    model.EventSystem,
			Payload: model.SystemPayload{Kind: kind, Player: player},
		})
	}
	return events
}

func (m *Manager) encode(ev model.Event) ([]byte, error) {
	msg, err := m.renderer.Render(ev)
	if err != nil {
		return nil, err
	}
	return protocol.Marshal(msg)
}

func without(names []model.PlayerName, name model.PlayerName) []model.PlayerName {
	out := make([]model.PlayerName, 0, len(names))
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

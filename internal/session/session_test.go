package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/dependencies/idgen"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/msgcat"
	"github.com/mcoot/rpsduel/internal/registry"
	"github.com/mcoot/rpsduel/internal/services/match"
	"github.com/mcoot/rpsduel/internal/testutil"
)

var errConnClosed = errors.New("connection closed")

// fakeConn is an in-memory Conn. Frames pushed by the test are read by the
// session; frames the session writes are collected on out.
type fakeConn struct {
	in      chan []byte
	out     chan []byte
	readErr chan error
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan []byte, 16),
		out:     make(chan []byte, 256),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case f := <-c.in:
		return f, nil
	case err := <-c.readErr:
		return nil, err
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteFrame(frame []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.out <- append([]byte(nil), frame...)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) RemoteAddr() string               { return "pipe" }
func (c *fakeConn) Transport() string                { return "test" }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type client struct {
	conn *fakeConn
	done chan struct{}
}

type SessionSuite struct {
	suite.Suite
	registry    *registry.Registry
	coordinator *match.Coordinator
	manager     *Manager
	ctx         context.Context
	cancel      context.CancelFunc
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.registry = registry.New(nil, logger)
	s.coordinator = match.NewCoordinator(match.DefaultConfig(), s.registry, nil, clock.New(), idgen.New(), nil, logger)
	s.manager = NewManager(DefaultConfig(), s.registry, s.coordinator, msgcat.Default(), nil, logger)
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *SessionSuite) TearDownTest() {
	s.cancel()
}

func (s *SessionSuite) connect() *client {
	c := &client{conn: newFakeConn(), done: make(chan struct{})}
	go func() {
		s.manager.Serve(s.ctx, c.conn)
		close(c.done)
	}()
	return c
}

func (s *SessionSuite) send(c *client, msg string) {
	c.conn.in <- []byte(msg)
}

// expect reads frames until one of the given type arrives
func (s *SessionSuite) expect(c *client, typ string) map[string]any {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case frame := <-c.conn.out:
			var msg map[string]any
			s.Require().NoError(json.Unmarshal(frame, &msg))
			if msg["type"] == typ {
				return msg
			}
		case <-timeout:
			s.FailNow(fmt.Sprintf("timed out waiting for %s", typ))
			return nil
		}
	}
}

func (s *SessionSuite) expectClosed(c *client) {
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		s.FailNow("session did not end")
	}
}

func (s *SessionSuite) register(name string) *client {
	c := s.connect()
	s.send(c, fmt.Sprintf(`{"action":"register","name":%q}`, name))
	ok := s.expect(c, "ok")
	s.Require().Equal(name, ok["name"])
	s.expect(c, "online_list")
	return c
}

// startMatch registers alice and bob and has bob accept alice's challenge
func (s *SessionSuite) startMatch() (alice, bob *client, matchID string) {
	alice = s.register("alice")
	bob = s.register("bob")

	s.send(alice, `{"action":"challenge","from":"alice","to":"bob"}`)
	s.Equal("alice", s.expect(bob, "challenge")["from"])

	s.send(bob, `{"action":"challenge_response","from":"bob","to":"alice","accept":true}`)
	aliceStart := s.expect(alice, "match_start")
	bobStart := s.expect(bob, "match_start")
	s.Equal("bob", aliceStart["opponent"])
	s.Equal("alice", bobStart["opponent"])
	s.Equal(aliceStart["match_id"], bobStart["match_id"])
	return alice, bob, aliceStart["match_id"].(string)
}

func (s *SessionSuite) move(c *client, player, matchID, move string) {
	s.send(c, fmt.Sprintf(`{"action":"move","player":%q,"match_id":%q,"move":%q}`, player, matchID, move))
}

func (s *SessionSuite) TestRegisterAnnouncesToOthers() {
	alice := s.register("alice")

	bob := s.connect()
	s.send(bob, `{"action":"register","name":"bob"}`)
	s.expect(bob, "ok")
	s.Equal([]any{"alice"}, s.expect(bob, "online_list")["players"])

	s.Equal([]any{"bob"}, s.expect(alice, "online_list")["players"])
	s.Equal("bob has joined.", s.expect(alice, "system")["message"])
}

func (s *SessionSuite) TestFirstPlayerSeesEmptyList() {
	c := s.connect()
	s.send(c, `{"action":"register","name":"alice"}`)
	s.expect(c, "ok")
	s.Equal([]any{}, s.expect(c, "online_list")["players"])
}

func (s *SessionSuite) TestNameTakenKeepsConnectionOpen() {
	s.register("alice")

	c := s.connect()
	s.send(c, `{"action":"register","name":"alice"}`)
	msg := s.expect(c, "error")
	s.Equal("name_taken", msg["note"])
	s.Equal("Name taken.", msg["message"])

	s.send(c, `{"action":"register","name":"alice2"}`)
	s.Equal("alice2", s.expect(c, "ok")["name"])
}

func (s *SessionSuite) TestRegisterTwiceFails() {
	c := s.register("alice")

	s.send(c, `{"action":"register","name":"other"}`)
	s.Equal("already_registered", s.expect(c, "error")["note"])
	s.True(s.registry.IsRegistered("alice"))
	s.False(s.registry.IsRegistered("other"))
}

func (s *SessionSuite) TestRegisterEmptyNameFails() {
	c := s.connect()
	s.send(c, `{"action":"register","name":"   "}`)
	s.Equal("name_required", s.expect(c, "error")["note"])
}

func (s *SessionSuite) TestActionsRequireRegistration() {
	c := s.connect()
	s.send(c, `{"action":"challenge","to":"bob"}`)
	s.Equal("not_registered", s.expect(c, "error")["note"])
}

func (s *SessionSuite) TestListBeforeRegister() {
	s.register("alice")
	c := s.connect()

	s.send(c, `{"action":"list"}`)
	s.Equal([]any{"alice"}, s.expect(c, "online_list")["players"])
}

func (s *SessionSuite) TestProtocolErrorsKeepConnectionOpen() {
	c := s.register("alice")

	s.send(c, `{not json`)
	s.Equal("bad_json", s.expect(c, "error")["note"])

	s.send(c, `{"action":"dance"}`)
	s.Equal("unknown_action", s.expect(c, "error")["note"])

	s.send(c, `{"action":"challenge"}`)
	s.Equal("missing_field", s.expect(c, "error")["note"])

	s.send(c, `{"action":"list"}`)
	s.expect(c, "online_list")
}

func (s *SessionSuite) TestChallengeUnknownOpponent() {
	c := s.register("alice")

	s.send(c, `{"action":"challenge","from":"alice","to":"ghost"}`)
	msg := s.expect(c, "error")
	s.Equal("opponent_not_found", msg["note"])
	s.Equal("Opponent not found.", msg["message"])
}

func (s *SessionSuite) TestImpersonationIsRejected() {
	alice := s.register("alice")
	s.register("bob")

	s.send(alice, `{"action":"challenge","from":"bob","to":"alice"}`)
	s.Equal("identity_mismatch", s.expect(alice, "error")["note"])
}

func (s *SessionSuite) TestDeclineIsForwarded() {
	alice := s.register("alice")
	bob := s.register("bob")

	s.send(alice, `{"action":"challenge","to":"bob"}`)
	s.expect(bob, "challenge")
	s.send(bob, `{"action":"challenge_response","to":"alice","accept":false}`)

	s.Equal("bob", s.expect(alice, "challenge_declined")["from"])
	s.Empty(s.coordinator.Snapshot())
}

func (s *SessionSuite) TestFullMatch() {
	alice, bob, id := s.startMatch()

	s.move(alice, "alice", id, "rock")
	s.move(bob, "bob", id, "scissors")
	r1a := s.expect(alice, "round_result")
	r1b := s.expect(bob, "round_result")
	s.Equal("win", r1a["you"])
	s.Equal("1-0", r1a["score"])
	s.Equal("You win round 1 (rock vs scissors). Score 1-0", r1a["message"])
	s.Equal("lose", r1b["you"])
	s.Equal("1-0", r1b["score"])

	s.move(alice, "alice", id, "paper")
	s.move(bob, "bob", id, "paper")
	s.Equal("draw", s.expect(alice, "round_result")["you"])
	s.Equal("1-0", s.expect(bob, "round_result")["score"])

	s.move(alice, "alice", id, "scissors")
	s.move(bob, "bob", id, "rock")
	s.expect(alice, "round_result")
	s.expect(bob, "round_result")

	// 1-1 after three rounds
	s.move(alice, "alice", id, "paper")
	s.move(bob, "bob", id, "rock")
	endA := s.expect(alice, "match_end")
	endB := s.expect(bob, "match_end")
	s.Equal("win", endA["result"])
	s.Equal("lose", endB["result"])
	s.Equal("2-1", endA["score"])
	s.Equal(endA["score"], endB["score"])
	s.Equal("You win the match (2-1)", endA["message"])
	s.Nil(endA["reason"])

	s.move(alice, "alice", id, "rock")
	s.Equal("match_finished", s.expect(alice, "error")["note"])
}

func (s *SessionSuite) TestDisconnectForfeitsAndAnnounces() {
	alice, bob, _ := s.startMatch()

	alice.conn.Close()
	s.expectClosed(alice)

	end := s.expect(bob, "match_end")
	s.Equal("win", end["result"])
	s.Equal("opponent_left", end["reason"])
	s.Equal([]any{}, s.expect(bob, "online_list")["players"])
	s.Equal("alice has left.", s.expect(bob, "system")["message"])

	s.False(s.registry.IsRegistered("alice"))
	s.Empty(s.coordinator.Snapshot())

	// The name is free again
	again := s.register("alice")
	s.NotNil(again)
}

func (s *SessionSuite) TestQuitForfeitsAndCloses() {
	alice, bob, _ := s.startMatch()

	s.send(alice, `{"action":"quit","player":"alice"}`)
	s.expectClosed(alice)

	end := s.expect(bob, "match_end")
	s.Equal("opponent_left", end["reason"])
	s.Equal("alice has left.", s.expect(bob, "system")["message"])
	s.False(s.registry.IsRegistered("alice"))
}

func (s *SessionSuite) TestOversizedMessageClosesConnection() {
	c := s.register("alice")

	c.conn.readErr <- model.ErrMessageTooLarge
	s.Equal("message_too_large", s.expect(c, "error")["note"])
	s.expectClosed(c)
	s.False(s.registry.IsRegistered("alice"))
}

func (s *SessionSuite) TestContextCancelClosesSessions() {
	c := s.register("alice")

	s.cancel()
	s.expectClosed(c)
	s.False(s.registry.IsRegistered("alice"))
}

func (s *SessionSuite) TestStaleSessionDoesNotEvictNewRegistration() {
	c := s.register("alice")
	sess := newSession(s.manager, newFakeConn())
	sess.setName("alice")

	s.manager.cleanup(sess)

	s.True(s.registry.IsRegistered("alice"))
	s.NotNil(c)
}

// blockingConn never completes a write until released
type blockingConn struct {
	*fakeConn
	release chan struct{}
}

func (c *blockingConn) WriteFrame(frame []byte) error {
	<-c.release
	return c.fakeConn.WriteFrame(frame)
}

func (s *SessionSuite) TestSlowClientIsDisconnected() {
	cfg := DefaultConfig()
	cfg.OutboxSize = 1
	mgr := NewManager(cfg, s.registry, s.coordinator, msgcat.Default(), nil, testutil.NopLogger())

	conn := &blockingConn{fakeConn: newFakeConn(), release: make(chan struct{})}
	sess := newSession(mgr, conn)
	go sess.writeLoop()
	defer close(conn.release)

	ev := model.Event{Type: model.EventChallenge, Payload: model.ChallengePayload{From: "bob"}}
	delivered := 0
	for i := 0; i < 5; i++ {
		if sess.Send(ev) {
			delivered++
		}
	}

	s.LessOrEqual(delivered, 2)
	select {
	case <-sess.done:
	default:
		s.Fail("slow session should be closed")
	}
}

// Package match coordinates challenges, matches and round resolution.
package match

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/dependencies/idgen"
	"github.com/mcoot/rpsduel/internal/metrics"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/judge"
)

// Presence reports who is online. The coordinator never calls it while
// holding its own lock.
type Presence interface {
	IsRegistered(name model.PlayerName) bool
	Drop(name model.PlayerName)
}

// HistoryRecorder receives a record for each side of every finished match.
// Record must not block.
type HistoryRecorder interface {
	Record(rec model.HistoryRecord)
}

// Config holds coordinator settings
type Config struct {
	// FinishedCacheSize bounds how many finished match ids are remembered so
	// late moves can be told the match is over
	FinishedCacheSize int
}

// DefaultConfig returns sensible defaults for the coordinator
func DefaultConfig() Config {
	return Config{FinishedCacheSize: 1024}
}

// entry wraps a live match. A match is not started until the accept that
// created it has confirmed both players are still online.
type entry struct {
	match   *model.Match
	started bool
}

type participants struct {
	a, b model.PlayerName
}

func (p participants) has(name model.PlayerName) bool {
	return p.a == name || p.b == name
}

// Coordinator owns every live match. All state changes happen under mu and
// outbound events are returned to the caller for delivery after the lock
// is released.
type Coordinator struct {
	mu       sync.Mutex
	matches  map[model.MatchID]*entry
	byPlayer map[model.PlayerName]model.MatchID
	finished *lru.Cache[model.MatchID, participants]

	presence Presence
	history  HistoryRecorder
	clock    clock.Clock
	ids      idgen.Generator
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(
	cfg Config,
	presence Presence,
	history HistoryRecorder,
	clock clock.Clock,
	ids idgen.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Coordinator {
	size := cfg.FinishedCacheSize
	if size <= 0 {
		size = DefaultConfig().FinishedCacheSize
	}
	// Only fails for a non-positive size
	finished, _ := lru.New[model.MatchID, participants](size)

	return &Coordinator{
		matches:  make(map[model.MatchID]*entry),
		byPlayer: make(map[model.PlayerName]model.MatchID),
		finished: finished,
		presence: presence,
		history:  history,
		clock:    clock,
		ids:      ids,
		metrics:  m,
		logger:   logger,
	}
}

// Challenge forwards a challenge from one player to another. No state is
// kept; the target answers with Accept or Decline.
func (c *Coordinator) Challenge(from, to model.PlayerName) ([]model.Event, error) {
	if from == to {
		return nil, model.ErrSelfChallenge
	}
	if !c.presence.IsRegistered(to) {
		return nil, model.ErrOpponentNotFound
	}

	c.mu.Lock()
	_, fromBusy := c.byPlayer[from]
	_, toBusy := c.byPlayer[to]
	c.mu.Unlock()

	if fromBusy || toBusy {
		return nil, model.ErrAlreadyInMatch
	}

	c.logger.Info("challenge issued",
		slog.String("player", string(from)),
		slog.String("opponent", string(to)),
	)

	return []model.Event{{
		To:      to,
		Type:    model.EventChallenge,
		Payload: model.ChallengePayload{From: from},
	}}, nil
}

// Decline tells the original challenger their challenge was refused.
// from is the declining player and to is the challenger.
func (c *Coordinator) Decline(from, to model.PlayerName) ([]model.Event, error) {
	if !c.presence.IsRegistered(to) {
		return nil, model.ErrOpponentNotFound
	}

	c.logger.Info("challenge declined",
		slog.String("player", string(from)),
		slog.String("opponent", string(to)),
	)

	return []model.Event{{
		To:      to,
		Type:    model.EventChallengeDeclined,
		Payload: model.ChallengeDeclinedPayload{From: from},
	}}, nil
}

// Accept starts a match. from is the accepting player and to is the
// original challenger, who becomes the first player of the match.
func (c *Coordinator) Accept(from, to model.PlayerName) ([]model.Event, error) {
	if from == to {
		return nil, model.ErrSelfChallenge
	}
	if !c.presence.IsRegistered(from) || !c.presence.IsRegistered(to) {
		return nil, model.ErrPlayerOffline
	}

	c.mu.Lock()
	if err := c.checkAvailableLocked(from, to); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	m := model.NewMatch(model.MatchID(c.ids.NewID()), to, from, c.clock.Now())
	c.matches[m.ID] = &entry{match: m}
	c.byPlayer[m.PlayerA] = m.ID
	c.byPlayer[m.PlayerB] = m.ID
	c.mu.Unlock()

	// Either player may have disconnected since the first check. Their
	// disconnect handling removes unstarted matches without notifying anyone.
	online := c.presence.IsRegistered(from) && c.presence.IsRegistered(to)

	c.mu.Lock()
	e, ok := c.matches[m.ID]
	if !ok {
		c.mu.Unlock()
		return nil, model.ErrPlayerOffline
	}
	if !online {
		c.removeLocked(m)
		c.mu.Unlock()
		return nil, model.ErrPlayerOffline
	}
	e.started = true
	active := c.activeCountLocked()
	c.mu.Unlock()

	c.metrics.MatchStarted()
	c.metrics.SetMatchesActive(active)
	c.logger.Info("match started",
		slog.String("match_id", string(m.ID)),
		slog.String("player_a", string(m.PlayerA)),
		slog.String("player_b", string(m.PlayerB)),
	)

	return []model.Event{
		{
			To:      m.PlayerA,
			Type:    model.EventMatchStart,
			Payload: model.MatchStartPayload{MatchID: m.ID, Opponent: m.PlayerB, Seat: model.SeatChallenger},
		},
		{
			To:      m.PlayerB,
			Type:    model.EventMatchStart,
			Payload: model.MatchStartPayload{MatchID: m.ID, Opponent: m.PlayerA, Seat: model.SeatAccepter},
		},
	}, nil
}

// SubmitMove records a move for the player's current round. A later move in
// the same round replaces an earlier one. When both moves are in, the round
// is resolved and the results are returned; only one caller ever observes a
// complete round. An empty matchID selects the player's active match.
func (c *Coordinator) SubmitMove(player model.PlayerName, matchID model.MatchID, move model.Move) ([]model.Event, error) {
	c.mu.Lock()
	e, err := c.lookupLocked(player, matchID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	m := e.match
	m.PendingMoves[player] = move
	m.UpdatedAt = c.clock.Now()

	if !m.RoundReady() {
		round := m.Round
		c.mu.Unlock()
		c.logger.Debug("move recorded",
			slog.String("match_id", string(m.ID)),
			slog.String("player", string(player)),
			slog.Int("round", round),
		)
		return nil, nil
	}

	res := c.resolveRoundLocked(m)
	active := c.activeCountLocked()
	c.mu.Unlock()

	c.metrics.RoundResolved(res.outcome.String())
	c.logger.Info("round resolved",
		slog.String("match_id", string(res.matchID)),
		slog.Int("round", res.round),
		slog.String("outcome", res.outcome.String()),
		slog.String("score", res.score),
	)

	if res.finished {
		c.metrics.MatchFinished(string(model.FinishReasonScore))
		c.metrics.SetMatchesActive(active)
		c.logger.Info("match finished",
			slog.String("match_id", string(res.matchID)),
			slog.String("winner", string(res.winner)),
			slog.String("score", res.score),
			slog.String("reason", string(model.FinishReasonScore)),
		)
		c.record(res.records)
	}

	return res.events, nil
}

// HandleDisconnect ends the player's match, if any, awarding it to the
// opponent by forfeit. Calling it for a player with no match is a no-op.
func (c *Coordinator) HandleDisconnect(player model.PlayerName) []model.Event {
	c.mu.Lock()
	id, ok := c.byPlayer[player]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	e := c.matches[id]
	m := e.match
	c.removeLocked(m)

	if !e.started {
		c.mu.Unlock()
		c.logger.Info("pending match cancelled",
			slog.String("match_id", string(id)),
			slog.String("player", string(player)),
		)
		return nil
	}

	now := c.clock.Now()
	m.Status = model.MatchStatusFinished
	m.FinishReason = model.FinishReasonForfeit
	m.UpdatedAt = now
	c.finished.Add(m.ID, participants{m.PlayerA, m.PlayerB})

	winner := m.Opponent(player)
	score := m.Score()
	records := model.HistoryRecordsFor(m, winner, now)
	active := c.activeCountLocked()
	c.mu.Unlock()

	c.metrics.MatchFinished(string(model.FinishReasonForfeit))
	c.metrics.SetMatchesActive(active)
	c.logger.Info("match finished",
		slog.String("match_id", string(id)),
		slog.String("winner", string(winner)),
		slog.String("score", score),
		slog.String("reason", string(model.FinishReasonForfeit)),
	)
	c.record(records)

	return []model.Event{{
		To:   winner,
		Type: model.EventMatchEnd,
		Payload: model.MatchEndPayload{
			MatchID: id,
			Result:  model.ResultWin,
			Score:   score,
			Reason:  model.FinishReasonForfeit,
		},
	}}
}

// HandleQuit removes the player from presence, closing their connection,
// and then forfeits their match like HandleDisconnect.
func (c *Coordinator) HandleQuit(player model.PlayerName) []model.Event {
	// Presence goes first, as in connection cleanup. An Accept racing this
	// call then either fails its second presence check or starts a match
	// that HandleDisconnect below finds and forfeits.
	c.presence.Drop(player)
	return c.HandleDisconnect(player)
}

// ActiveMatch returns the id of the match the player is in, if any
func (c *Coordinator) ActiveMatch(player model.PlayerName) (model.MatchID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byPlayer[player]
	if !ok || !c.matches[id].started {
		return "", false
	}
	return id, true
}

// GetMatch returns a copy of a live match
func (c *Coordinator) GetMatch(id model.MatchID) (*model.Match, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.matches[id]
	if !ok || !e.started {
		if _, done := c.finished.Peek(id); done {
			return nil, model.ErrMatchFinished
		}
		return nil, model.ErrMatchNotFound
	}
	return e.match.Clone(), nil
}

// Snapshot returns copies of every started match, oldest first
func (c *Coordinator) Snapshot() []*model.Match {
	c.mu.Lock()
	out := make([]*model.Match, 0, len(c.matches))
	for _, e := range c.matches {
		if e.started {
			out = append(out, e.match.Clone())
		}
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b *model.Match) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (c *Coordinator) checkAvailableLocked(a, b model.PlayerName) error {
	idA, busyA := c.byPlayer[a]
	idB, busyB := c.byPlayer[b]
	switch {
	case busyA && busyB && idA == idB:
		return model.ErrGameExists
	case busyA || busyB:
		return model.ErrAlreadyInMatch
	}
	return nil
}

// lookupLocked finds the started match a move is for. Moves from players
// outside the match are reported exactly like unknown ids.
func (c *Coordinator) lookupLocked(player model.PlayerName, id model.MatchID) (*entry, error) {
	if id == "" {
		active, ok := c.byPlayer[player]
		if !ok {
			return nil, model.ErrMatchNotFound
		}
		id = active
	}

	e, ok := c.matches[id]
	if !ok {
		if p, done := c.finished.Peek(id); done && p.has(player) {
			return nil, model.ErrMatchFinished
		}
		return nil, model.ErrMatchNotFound
	}
	if !e.started || !e.match.HasPlayer(player) {
		return nil, model.ErrMatchNotFound
	}
	return e, nil
}

type roundResolution struct {
	matchID  model.MatchID
	round    int
	outcome  model.Outcome
	score    string
	finished bool
	winner   model.PlayerName
	events   []model.Event
	records  []model.HistoryRecord
}

func (c *Coordinator) resolveRoundLocked(m *model.Match) roundResolution {
	moveA := m.PendingMoves[m.PlayerA]
	moveB := m.PendingMoves[m.PlayerB]
	outcome := judge.Decide(moveA, moveB)

	switch outcome {
	case model.OutcomeAWins:
		m.ScoreA++
	case model.OutcomeBWins:
		m.ScoreB++
	}

	res := roundResolution{
		matchID: m.ID,
		round:   m.Round,
		outcome: outcome,
		score:   m.Score(),
	}

	m.Round++
	clear(m.PendingMoves)

	res.events = []model.Event{
		{
			To:   m.PlayerA,
			Type: model.EventRoundResult,
			Payload: model.RoundResultPayload{
				MatchID:      m.ID,
				Round:        res.round,
				Result:       judge.ResultFor(outcome, true),
				YourMove:     moveA,
				OpponentMove: moveB,
				Score:        res.score,
			},
		},
		{
			To:   m.PlayerB,
			Type: model.EventRoundResult,
			Payload: model.RoundResultPayload{
				MatchID:      m.ID,
				Round:        res.round,
				Result:       judge.ResultFor(outcome, false),
				YourMove:     moveB,
				OpponentMove: moveA,
				Score:        res.score,
			},
		},
	}

	winner, done := m.Winner()
	if !done {
		return res
	}

	now := c.clock.Now()
	m.Status = model.MatchStatusFinished
	m.FinishReason = model.FinishReasonScore
	m.UpdatedAt = now
	c.removeLocked(m)
	c.finished.Add(m.ID, participants{m.PlayerA, m.PlayerB})

	loser := m.Opponent(winner)
	res.finished = true
	res.winner = winner
	res.records = model.HistoryRecordsFor(m, winner, now)
	res.events = append(res.events,
		model.Event{
			To:      winner,
			Type:    model.EventMatchEnd,
			Payload: model.MatchEndPayload{MatchID: m.ID, Result: model.ResultWin, Score: res.score, Reason: model.FinishReasonScore},
		},
		model.Event{
			To:      loser,
			Type:    model.EventMatchEnd,
			Payload: model.MatchEndPayload{MatchID: m.ID, Result: model.ResultLose, Score: res.score, Reason: model.FinishReasonScore},
		},
	)
	return res
}

func (c *Coordinator) removeLocked(m *model.Match) {
	delete(c.matches, m.ID)
	if c.byPlayer[m.PlayerA] == m.ID {
		delete(c.byPlayer, m.PlayerA)
	}
	if c.byPlayer[m.PlayerB] == m.ID {
		delete(c.byPlayer, m.PlayerB)
	}
}

func (c *Coordinator) activeCountLocked() int {
	n := 0
	for _, e := range c.matches {
		if e.started {
			n++
		}
	}
	return n
}

func (c *Coordinator) record(records []model.HistoryRecord) {
	if c.history == nil {
		return
	}
	for _, rec := range records {
		c.history.Record(rec)
	}
}

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsduel/internal/api"
	"github.com/mcoot/rpsduel/internal/api/apierr"
	"github.com/mcoot/rpsduel/internal/api/response"
	"github.com/mcoot/rpsduel/internal/factory"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/testutil"
)

// testServer wires the API router to a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Presence: app.Registry,
		Matches:  app.Coordinator,
		History:  app.History,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) online(t *testing.T, names ...model.PlayerName) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, ts.app.Registry.Register(name, testutil.NewInbox()))
	}
}

func (ts *testServer) startMatch(t *testing.T, id model.MatchID) {
	t.Helper()
	ts.app.MockIDs.QueueIDs(string(id))
	_, err := ts.app.Coordinator.Challenge("alice", "bob")
	require.NoError(t, err)
	_, err = ts.app.Coordinator.Accept("bob", "alice")
	require.NoError(t, err)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.online(t, "alice", "bob")

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Players)
	assert.Equal(t, 0, health.Matches)
}

func TestListPlayers(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/players")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.PlayerList](t, rr).Players)

	ts.online(t, "carol", "alice", "bob")
	ts.startMatch(t, "match-1")

	list := decode[response.PlayerList](t, ts.get("/api/v1/players"))
	assert.Equal(t, []response.Player{
		{Name: "alice", MatchID: "match-1"},
		{Name: "bob", MatchID: "match-1"},
		{Name: "carol"},
	}, list.Players)
}

func TestListMatchesHidesMoves(t *testing.T) {
	ts := newTestServer(t)
	ts.online(t, "alice", "bob")
	ts.startMatch(t, "match-1")

	_, err := ts.app.Coordinator.SubmitMove("alice", "match-1", model.MoveRock)
	require.NoError(t, err)

	rr := ts.get("/api/v1/matches")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "rock")

	list := decode[response.MatchList](t, rr)
	require.Len(t, list.Matches, 1)
	m := list.Matches[0]
	assert.Equal(t, "match-1", m.ID)
	assert.Equal(t, "alice", m.PlayerA)
	assert.Equal(t, "bob", m.PlayerB)
	assert.Equal(t, "0-0", m.Score)
	assert.Equal(t, 1, m.Round)
	assert.Equal(t, 1, m.Pending)
}

func TestGetMatch(t *testing.T) {
	ts := newTestServer(t)
	ts.online(t, "alice", "bob")
	ts.startMatch(t, "match-1")

	rr := ts.get("/api/v1/matches/match-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "match-1", decode[response.Match](t, rr).ID)

	rr = ts.get("/api/v1/matches/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestGetFinishedMatch(t *testing.T) {
	ts := newTestServer(t)
	ts.online(t, "alice", "bob")
	ts.startMatch(t, "match-1")
	ts.app.Coordinator.HandleDisconnect("bob")

	rr := ts.get("/api/v1/matches/match-1")
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Equal(t, apierr.CodeMatchFinished, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestPlayerHistory(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	records := []model.HistoryRecord{
		{Player: "alice", Opponent: "bob", MatchID: "m1", Result: model.ResultWin, Reason: model.HistoryReasonScore, Score: "2-1", FinishedAt: base},
		{Player: "alice", Opponent: "carol", MatchID: "m2", Result: model.ResultLose, Reason: model.HistoryReasonLeft, Score: "0-1", FinishedAt: base.Add(time.Minute)},
		{Player: "alice", Opponent: "bob", MatchID: "m3", Result: model.ResultWin, Reason: model.HistoryReasonOpponentLeft, Score: "1-0", FinishedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, ts.app.Storage.AppendHistory(ctx, &records[i]))
	}

	rr := ts.get("/api/v1/players/alice/history?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	h := decode[response.History](t, rr)
	assert.Equal(t, "alice", h.Player)
	require.Len(t, h.Records, 2)
	assert.Equal(t, "m3", h.Records[0].MatchID)
	assert.Equal(t, "opponent_left", h.Records[0].Reason)
	assert.Equal(t, "m2", h.Records[1].MatchID)
	assert.Equal(t, 3, h.Summary.Matches)
	assert.Equal(t, 2, h.Summary.Wins)
	assert.Equal(t, 1, h.Summary.Losses)
}

func TestPlayerHistoryEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/players/nobody/history")
	require.Equal(t, http.StatusOK, rr.Code)
	h := decode[response.History](t, rr)
	assert.Empty(t, h.Records)
	assert.Equal(t, 0, h.Summary.Matches)
}

func TestPlayerHistoryRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t)

	for _, limit := range []string{"0", "-1", "abc", "101"} {
		rr := ts.get("/api/v1/players/alice/history?limit=" + limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", limit)
		assert.Equal(t, apierr.CodeInvalidRequest, decode[apierr.ErrorResponse](t, rr).Error.Code)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/players", nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

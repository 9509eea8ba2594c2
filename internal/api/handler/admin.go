package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/api/response"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/history"
)

// DefaultHistoryLimit caps history responses when no limit is given
const DefaultHistoryLimit = 20

// MaxHistoryLimit is the largest accepted limit query value
const MaxHistoryLimit = 100

// Presence lists the players currently registered
type Presence interface {
	Names() []model.PlayerName
	Count() int
}

// Matches exposes read access to live matches
type Matches interface {
	ActiveMatch(player model.PlayerName) (model.MatchID, bool)
	GetMatch(id model.MatchID) (*model.Match, error)
	Snapshot() []*model.Match
}

// History reads finished match records
type History interface {
	List(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error)
	Summarize(ctx context.Context, player model.PlayerName) (history.Summary, error)
}

// AdminHandler serves read-only views of server state
type AdminHandler struct {
	presence Presence
	matches  Matches
	history  History
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(presence Presence, matches Matches, history History) *AdminHandler {
	return &AdminHandler{
		presence: presence,
		matches:  matches,
		history:  history,
	}
}

// Health handles GET /api/v1/health
func (h *AdminHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:  "ok",
		Players: h.presence.Count(),
		Matches: len(h.matches.Snapshot()),
	})
}

// Players handles GET /api/v1/players
func (h *AdminHandler) Players(w http.ResponseWriter, _ *http.Request) {
	names := h.presence.Names()
	players := make([]response.Player, 0, len(names))
	for _, name := range names {
		p := response.Player{Name: string(name)}
		if id, ok := h.matches.ActiveMatch(name); ok {
			p.MatchID = string(id)
		}
		players = append(players, p)
	}
	response.JSON(w, http.StatusOK, response.PlayerList{Players: players})
}

// Matches handles GET /api/v1/matches
func (h *AdminHandler) Matches(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.matches.Snapshot()
	matches := make([]response.Match, 0, len(snapshot))
	for _, m := range snapshot {
		matches = append(matches, response.MatchFromModel(m))
	}
	response.JSON(w, http.StatusOK, response.MatchList{Matches: matches})
}

// Match handles GET /api/v1/matches/{id}
func (h *AdminHandler) Match(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])
	m, err := h.matches.GetMatch(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// History handles GET /api/v1/players/{name}/history
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	name, err := model.NormalizeName(mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxHistoryLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and "+strconv.Itoa(MaxHistoryLimit)))
			return
		}
	}

	records, err := h.history.List(r.Context(), name, limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	summary, err := h.history.Summarize(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.History{
		Player:  string(name),
		Records: make([]response.HistoryRecord, 0, len(records)),
		Summary: summary,
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, response.HistoryRecordFromModel(rec))
	}
	response.JSON(w, http.StatusOK, resp)
}

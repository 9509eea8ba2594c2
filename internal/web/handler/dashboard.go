package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/history"
)

//go:embed templates/*.html
var templateFS embed.FS

// RefreshSeconds is how often pages ask the browser to reload
const RefreshSeconds = 5

// historyLimit caps the records shown on a player page
const historyLimit = 50

// Presence lists the players currently registered
type Presence interface {
	Names() []model.PlayerName
}

// Matches exposes read access to live matches
type Matches interface {
	ActiveMatch(player model.PlayerName) (model.MatchID, bool)
	Snapshot() []*model.Match
}

// History reads finished match records
type History interface {
	List(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error)
	Summarize(ctx context.Context, player model.PlayerName) (history.Summary, error)
}

type pageData struct {
	Title   string
	Refresh int
	Now     time.Time
}

type playerRow struct {
	Name    model.PlayerName
	MatchID model.MatchID
}

type dashboardData struct {
	pageData
	Players []playerRow
	Matches []*model.Match
}

type playerData struct {
	pageData
	Player  model.PlayerName
	Summary history.Summary
	Records []*model.HistoryRecord
}

// DashboardHandler renders the HTML status pages
type DashboardHandler struct {
	presence Presence
	matches  Matches
	history  History
	clock    clock.Clock
	logger   *slog.Logger

	dashboard *template.Template
	player    *template.Template
}

// NewDashboardHandler creates a DashboardHandler. It panics if the embedded
// templates fail to parse.
func NewDashboardHandler(presence Presence, matches Matches, history History, clk clock.Clock, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		presence:  presence,
		matches:   matches,
		history:   history,
		clock:     clk,
		logger:    logger,
		dashboard: template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/dashboard.html")),
		player:    template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/player.html")),
	}
}

// Dashboard renders GET /
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	names := h.presence.Names()
	data := dashboardData{
		pageData: h.page("Status"),
		Players:  make([]playerRow, 0, len(names)),
		Matches:  h.matches.Snapshot(),
	}
	for _, name := range names {
		row := playerRow{Name: name}
		if id, ok := h.matches.ActiveMatch(name); ok {
			row.MatchID = id
		}
		data.Players = append(data.Players, row)
	}

	h.render(w, r, h.dashboard, data)
}

// Player renders GET /players/{name}
func (h *DashboardHandler) Player(w http.ResponseWriter, r *http.Request) {
	name, err := model.NormalizeName(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "Invalid player name", http.StatusBadRequest)
		return
	}

	records, err := h.history.List(r.Context(), name, historyLimit)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}
	summary, err := h.history.Summarize(r.Context(), name)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	h.render(w, r, h.player, playerData{
		pageData: h.page(string(name)),
		Player:   name,
		Summary:  summary,
		Records:  records,
	})
}

func (h *DashboardHandler) page(title string) pageData {
	return pageData{Title: title, Refresh: RefreshSeconds, Now: h.clock.Now().UTC()}
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind
func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *DashboardHandler) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("history lookup failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	http.Error(w, "History is unavailable", http.StatusServiceUnavailable)
}

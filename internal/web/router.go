package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/middleware"
	"github.com/mcoot/rpsduel/internal/web/handler"
	webmiddleware "github.com/mcoot/rpsduel/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger   *slog.Logger
	Presence handler.Presence
	Matches  handler.Matches
	History  handler.History
	Clock    clock.Clock
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(webmiddleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	dashboardHandler := handler.NewDashboardHandler(cfg.Presence, cfg.Matches, cfg.History, cfg.Clock, cfg.Logger)

	r.HandleFunc("/", dashboardHandler.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/players/{name}", dashboardHandler.Player).Methods(http.MethodGet)

	return r
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsduel/internal/api/apierr"
	"github.com/mcoot/rpsduel/internal/api/handler"
	"github.com/mcoot/rpsduel/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Presence handler.Presence
	Matches  handler.Matches
	History  handler.History
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	adminHandler := handler.NewAdminHandler(cfg.Presence, cfg.Matches, cfg.History)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, apiPanicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", adminHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/players", adminHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/players/{name}/history", adminHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/matches", adminHandler.Matches).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}", adminHandler.Match).Methods(http.MethodGet)

	return r
}

// apiPanicHandler answers a recovered panic with a JSON error body
func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

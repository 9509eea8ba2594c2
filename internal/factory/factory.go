package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/rpsduel/internal/dependencies/clock"
	"github.com/mcoot/rpsduel/internal/dependencies/idgen"
	"github.com/mcoot/rpsduel/internal/metrics"
	"github.com/mcoot/rpsduel/internal/msgcat"
	"github.com/mcoot/rpsduel/internal/registry"
	"github.com/mcoot/rpsduel/internal/services/history"
	"github.com/mcoot/rpsduel/internal/services/match"
	"github.com/mcoot/rpsduel/internal/session"
	"github.com/mcoot/rpsduel/internal/storage"
	filestorage "github.com/mcoot/rpsduel/internal/storage/file"
	"github.com/mcoot/rpsduel/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsduel/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeFile   = "file"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   idgen.Generator

	// Observability
	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry

	// Services
	Catalog     *msgcat.Catalog
	Registry    *registry.Registry
	History     *history.Service
	Coordinator *match.Coordinator
	Sessions    *session.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the history backend ("memory", "redis" or "file")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HistoryDir is where the file backend writes (required if StorageType is "file")
	HistoryDir string
	// MessagesDir holds optional YAML overrides for player-facing text
	MessagesDir string

	Session session.Config
	Match   match.Config
	History history.Config
}

// DefaultConfig returns a memory-backed configuration with default settings
func DefaultConfig() Config {
	return Config{
		StorageType: StorageTypeMemory,
		Session:     session.DefaultConfig(),
		Match:       match.DefaultConfig(),
		History:     history.DefaultConfig(),
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
	case StorageTypeFile:
		if cfg.HistoryDir == "" {
			return nil, errors.New("HistoryDir required when StorageType is file")
		}
		fileStore, err := filestorage.New(cfg.HistoryDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'file'")
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	// Create external dependencies
	clk := clock.New()
	ids := idgen.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newWithDependencies(cfg, store, clk, ids, catalog, reg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg Config,
	store storage.Storage,
	clk clock.Clock,
	ids idgen.Generator,
	catalog *msgcat.Catalog,
	reg *prometheus.Registry,
	logger *slog.Logger,
) *App {
	m := metrics.New(reg)

	players := registry.New(m, logger.With(slog.String("component", "registry")))
	historyService := history.NewService(store, cfg.History, m, logger.With(slog.String("component", "history")))
	coordinator := match.NewCoordinator(cfg.Match, players, historyService, clk, ids, m,
		logger.With(slog.String("component", "match")))
	sessions := session.NewManager(cfg.Session, players, coordinator, catalog, m,
		logger.With(slog.String("component", "session")))

	return &App{
		Storage:         store,
		Clock:           clk,
		IDs:             ids,
		Metrics:         m,
		MetricsRegistry: reg,
		Catalog:         catalog,
		Registry:        players,
		History:         historyService,
		Coordinator:     coordinator,
		Sessions:        sessions,
	}
}

// Close flushes pending history and releases storage
func (a *App) Close() error {
	return a.History.Close()
}

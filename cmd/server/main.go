package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mcoot/rpsduel/internal/api"
	"github.com/mcoot/rpsduel/internal/config"
	"github.com/mcoot/rpsduel/internal/factory"
	redisstorage "github.com/mcoot/rpsduel/internal/storage/redis"
	"github.com/mcoot/rpsduel/internal/transport"
	"github.com/mcoot/rpsduel/internal/web"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rpsduel",
		Short:   "Rock-paper-scissors duel server speaking newline-delimited JSON over TCP.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	config.BindFlags(cmd.Flags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("rpsduel v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	gameConfig := transport.DefaultServerConfig()
	gameConfig.Host = cfg.Bind
	gameConfig.Port = cfg.Port
	gameConfig.MaxLineBytes = cfg.MaxLineBytes
	gameServer := transport.NewServer(app.Sessions, gameConfig, logger.With(slog.String("component", "tcp")))

	if _, err := gameServer.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- gameServer.Serve()
	}()

	var httpServer *api.Server
	if cfg.HTTPPort > 0 {
		httpServer = newHTTPServer(ctx, cfg, app, logger)
		if _, err := httpServer.Listen(); err != nil {
			_ = gameServer.Shutdown(context.Background())
			return err
		}
		go func() {
			errCh <- httpServer.Serve()
		}()
	}

	logger.Info("server started",
		slog.String("version", releaseVersion),
		slog.String("game_addr", gameServer.Addr()),
		slog.String("history_backend", cfg.HistoryBackend),
	)

	// Wait for shutdown or error
	var runErr error
	select {
	case err := <-errCh:
		if err != nil {
			runErr = err
			logger.Error("server error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if httpServer != nil {
		errs = append(errs, httpServer.Shutdown(shutdownCtx))
	}
	errs = append(errs, gameServer.Shutdown(shutdownCtx))
	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		return errors.Join(runErr, err)
	}

	logger.Info("server stopped")
	return runErr
}

func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.DefaultConfig()
	fc.Logger = logger
	fc.StorageType = cfg.HistoryBackend
	fc.HistoryDir = cfg.HistoryDir
	fc.MessagesDir = cfg.MessagesDir
	fc.Session.OutboxSize = cfg.OutboxSize
	fc.Session.WriteTimeout = cfg.WriteTimeout
	fc.Match.FinishedCacheSize = cfg.FinishedCacheSize

	if cfg.HistoryBackend == config.HistoryBackendRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// newHTTPServer builds the admin listener: API, metrics, WebSocket bridge
// and the status dashboard
func newHTTPServer(ctx context.Context, cfg *config.Config, app *factory.App, logger *slog.Logger) *api.Server {
	httpLogger := logger.With(slog.String("component", "http"))

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:   httpLogger,
		Presence: app.Registry,
		Matches:  app.Coordinator,
		History:  app.History,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:   httpLogger,
		Presence: app.Registry,
		Matches:  app.Coordinator,
		History:  app.History,
		Clock:    app.Clock,
	})

	wsHandler := transport.NewWebSocketHandler(ctx, app.Sessions, cfg.MaxLineBytes, cfg.WSOrigins,
		logger.With(slog.String("component", "ws")))

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", promhttp.HandlerFor(app.MetricsRegistry, promhttp.HandlerOpts{}))
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", webRouter)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Bind
	serverConfig.Port = cfg.HTTPPort
	return api.NewServer(mux, serverConfig, httpLogger)
}

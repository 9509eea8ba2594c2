// Package config defines the server settings and loads them from flags,
// RPSDUEL_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "RPSDUEL"

// History backends
const (
	HistoryBackendMemory = "memory"
	HistoryBackendRedis  = "redis"
	HistoryBackendFile   = "file"
)

// Config holds every server setting
type Config struct {
	Bind     string
	Port     int
	HTTPPort int // 0 disables the admin listener

	// WSOrigins lists browser origins besides the server's own that may
	// open /ws
	WSOrigins []string

	LogLevel string

	HistoryBackend string
	RedisURL       string
	HistoryDir     string

	MessagesDir string

	MaxLineBytes      int
	OutboxSize        int
	WriteTimeout      time.Duration
	FinishedCacheSize int
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Bind:              "0.0.0.0",
		Port:              9999,
		HTTPPort:          8080,
		LogLevel:          "info",
		HistoryBackend:    HistoryBackendMemory,
		HistoryDir:        "history",
		MaxLineBytes:      64 * 1024,
		OutboxSize:        64,
		WriteTimeout:      10 * time.Second,
		FinishedCacheSize: 1024,
	}
}

// Validate checks the settings are usable together
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 0-65535 inclusive): %d", c.Port)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port (must be between 0-65535 inclusive): %d", c.HTTPPort)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	switch c.HistoryBackend {
	case HistoryBackendMemory:
	case HistoryBackendRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --history-backend=redis")
		}
	case HistoryBackendFile:
		if c.HistoryDir == "" {
			return errors.New("--history-dir is required when --history-backend=file")
		}
	default:
		return fmt.Errorf("invalid history backend %q (must be memory, redis or file)", c.HistoryBackend)
	}

	if c.MaxLineBytes < 64 {
		return fmt.Errorf("max line bytes too small: %d", c.MaxLineBytes)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("outbox size must be positive: %d", c.OutboxSize)
	}
	if c.FinishedCacheSize < 1 {
		return fmt.Errorf("finished cache size must be positive: %d", c.FinishedCacheSize)
	}
	return nil
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// BindFlags registers a flag for every setting on fs, defaulting to cfg's
// current values
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: RPSDUEL_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "game port to listen on (env: RPSDUEL_PORT)")
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "admin HTTP port, 0 to disable (env: RPSDUEL_HTTP_PORT)")
	fs.StringSliceVar(&cfg.WSOrigins, "ws-origins", cfg.WSOrigins, "extra origins allowed to open /ws, comma separated (env: RPSDUEL_WS_ORIGINS)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env: RPSDUEL_LOG_LEVEL)")
	fs.StringVar(&cfg.HistoryBackend, "history-backend", cfg.HistoryBackend, "memory, redis or file (env: RPSDUEL_HISTORY_BACKEND)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis URL for the redis history backend (env: RPSDUEL_REDIS_URL)")
	fs.StringVar(&cfg.HistoryDir, "history-dir", cfg.HistoryDir, "directory for the file history backend (env: RPSDUEL_HISTORY_DIR)")
	fs.StringVar(&cfg.MessagesDir, "messages-dir", cfg.MessagesDir, "directory of YAML message overrides (env: RPSDUEL_MESSAGES_DIR)")
	fs.IntVar(&cfg.MaxLineBytes, "max-line-bytes", cfg.MaxLineBytes, "largest accepted inbound message (env: RPSDUEL_MAX_LINE_BYTES)")
	fs.IntVar(&cfg.OutboxSize, "outbox-size", cfg.OutboxSize, "queued outbound messages before a client is dropped (env: RPSDUEL_OUTBOX_SIZE)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-message write timeout (env: RPSDUEL_WRITE_TIMEOUT)")
	fs.IntVar(&cfg.FinishedCacheSize, "finished-cache-size", cfg.FinishedCacheSize, "finished matches remembered for late moves (env: RPSDUEL_FINISHED_CACHE_SIZE)")
}

// ApplyEnv fills every flag not set on the command line from the
// environment. Variables in a .env file in the working directory are
// loaded first and never override the real environment.
func ApplyEnv(flags *pflag.FlagSet) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
			}
		}
	})
	return errors.Join(errs...)
}

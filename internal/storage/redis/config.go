package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// HistoryTTL expires a player's history after inactivity. Zero keeps it forever.
	HistoryTTL time.Duration

	// MaxEntriesPerPlayer caps each history list
	MaxEntriesPerPlayer int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                 "redis://localhost:6379",
		PoolSize:            10,
		MinIdleConns:        2,
		HistoryTTL:          30 * 24 * time.Hour,
		MaxEntriesPerPlayer: 100,
	}
}

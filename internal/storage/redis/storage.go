package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Each player's history is a list with the newest record at the head.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) AppendHistory(ctx context.Context, rec *model.HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := historyKey(rec.Player)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.MaxEntriesPerPlayer > 0 {
		pipe.LTrim(ctx, key, 0, s.cfg.MaxEntriesPerPlayer-1)
	}
	if s.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.HistoryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListHistory(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, historyKey(player), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.HistoryRecord, 0, len(values))
	for _, v := range values {
		var rec model.HistoryRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("decode history for %s: %w", player, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

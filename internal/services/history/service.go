// Package history records finished matches to storage off the hot path.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/metrics"
	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// Config holds history service settings
type Config struct {
	// QueueSize is how many records may wait for the writer before new
	// records are dropped
	QueueSize int

	// WriteTimeout bounds each storage write
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the history service
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}

// Summary totals a player's recorded matches
type Summary struct {
	Player  model.PlayerName `json:"player"`
	Matches int              `json:"matches"`
	Wins    int              `json:"wins"`
	Losses  int              `json:"losses"`
}

// Service queues history records and writes them from a single worker
type Service struct {
	storage storage.Storage
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.HistoryRecord
	done   chan struct{}
}

// NewService creates a Service and starts its writer
func NewService(storage storage.Storage, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}

	s := &Service{
		storage: storage,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		queue:   make(chan model.HistoryRecord, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues a record for writing. It never blocks; when the queue is
// full or the service is closed the record is dropped and counted.
func (s *Service) Record(rec model.HistoryRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.closed {
		select {
		case s.queue <- rec:
			return
		default:
		}
	}

	s.metrics.HistoryDropped()
	s.logger.Warn("history record dropped",
		slog.String("player", string(rec.Player)),
		slog.String("match_id", string(rec.MatchID)),
	)
}

// List returns the player's most recent records, newest first
func (s *Service) List(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error) {
	records, err := s.storage.ListHistory(ctx, player, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrHistoryUnavailable, err)
	}
	return records, nil
}

// Summarize totals wins and losses across everything retained for the player
func (s *Service) Summarize(ctx context.Context, player model.PlayerName) (Summary, error) {
	records, err := s.List(ctx, player, 0)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Player: player, Matches: len(records)}
	for _, rec := range records {
		switch rec.Result {
		case model.ResultWin:
			sum.Wins++
		case model.ResultLose:
			sum.Losses++
		}
	}
	return sum, nil
}

// Close stops accepting records, waits for queued records to be written and
// closes the storage
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.storage.Close()
}

func (s *Service) run() {
	defer close(s.done)
	for rec := range s.queue {
		s.write(rec)
	}
}

func (s *Service) write(rec model.HistoryRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.storage.AppendHistory(ctx, &rec); err != nil {
		s.logger.Error("failed to write history",
			slog.String("player", string(rec.Player)),
			slog.String("match_id", string(rec.MatchID)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("history written",
		slog.String("player", string(rec.Player)),
		slog.String("opponent", string(rec.Opponent)),
		slog.String("result", string(rec.Result)),
	)
}

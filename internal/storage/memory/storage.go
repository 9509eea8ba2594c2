package memory

import (
	"context"
	"sync"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/storage"
)

// DefaultMaxEntriesPerPlayer caps how many records are kept for each player
const DefaultMaxEntriesPerPlayer = 100

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu         sync.RWMutex
	history    map[model.PlayerName][]*model.HistoryRecord // oldest first
	maxEntries int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLimit(DefaultMaxEntriesPerPlayer)
}

// NewWithLimit creates an in-memory storage that keeps at most maxEntries
// records per player. A non-positive value keeps everything.
func NewWithLimit(maxEntries int) *Storage {
	return &Storage{
		history:    make(map[model.PlayerName][]*model.HistoryRecord),
		maxEntries: maxEntries,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) AppendHistory(ctx context.Context, rec *model.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	records := append(s.history[rec.Player], &stored)
	if s.maxEntries > 0 && len(records) > s.maxEntries {
		records = records[len(records)-s.maxEntries:]
	}
	s.history[rec.Player] = records
	return nil
}

func (s *Storage) ListHistory(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.history[player]
	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*model.HistoryRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		rec := *records[i]
		out = append(out, &rec)
	}
	return out, nil
}

func (s *Storage) Close() error {
	return nil
}

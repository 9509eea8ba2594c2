package storage

import (
	"context"

	"github.com/mcoot/rpsduel/internal/model"
)

// Storage defines the interface for match history persistence
type Storage interface {
	// AppendHistory stores one side of a finished match
	AppendHistory(ctx context.Context, rec *model.HistoryRecord) error

	// ListHistory returns the player's records, newest first. A limit of
	// zero or less returns everything the backend retains.
	ListHistory(ctx context.Context, player model.PlayerName, limit int) ([]*model.HistoryRecord, error)

	// Close releases any resources held by the backend
	Close() error
}

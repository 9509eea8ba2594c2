// Package registry tracks which players are online and how to reach them.
package registry

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/rpsduel/internal/metrics"
	"github.com/mcoot/rpsduel/internal/model"
)

// Handle is a live connection that can receive events
type Handle interface {
	// Send queues an event for delivery without blocking. It returns false
	// if the connection is closed or cannot keep up.
	Send(ev model.Event) bool
	// Close terminates the connection
	Close()
}

// Registry maps player names to their live connections. It never calls
// into other components while holding its lock.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.PlayerName]Handle
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an empty Registry
func New(m *metrics.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[model.PlayerName]Handle),
		metrics: m,
		logger:  logger,
	}
}

// Register claims name for h. It fails with ErrNameTaken while another
// connection holds the name.
func (r *Registry) Register(name model.PlayerName, h Handle) error {
	r.mu.Lock()
	if _, exists := r.entries[name]; exists {
		r.mu.Unlock()
		return model.ErrNameTaken
	}
	r.entries[name] = h
	count := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetPlayersOnline(count)
	r.logger.Info("player registered",
		slog.String("player", string(name)),
		slog.Int("online", count),
	)
	return nil
}

// Unregister removes name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name model.PlayerName) {
	r.mu.Lock()
	_, existed := r.entries[name]
	delete(r.entries, name)
	count := len(r.entries)
	r.mu.Unlock()

	if existed {
		r.metrics.SetPlayersOnline(count)
		r.logger.Info("player unregistered",
			slog.String("player", string(name)),
			slog.Int("online", count),
		)
	}
}

// Release removes name only if it is still held by h, so a stale connection
// closing late cannot evict a newer registration. It reports whether an
// entry was removed.
func (r *Registry) Release(name model.PlayerName, h Handle) bool {
	r.mu.Lock()
	current, ok := r.entries[name]
	if !ok || current != h {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, name)
	count := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetPlayersOnline(count)
	r.logger.Info("player released",
		slog.String("player", string(name)),
		slog.Int("online", count),
	)
	return true
}

// Drop removes name and closes its connection
func (r *Registry) Drop(name model.PlayerName) {
	r.mu.Lock()
	h, ok := r.entries[name]
	delete(r.entries, name)
	count := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return
	}
	r.metrics.SetPlayersOnline(count)
	r.logger.Info("player dropped",
		slog.String("player", string(name)),
		slog.Int("online", count),
	)
	h.Close()
}

// Lookup returns the connection registered under name
func (r *Registry) Lookup(name model.PlayerName) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[name]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return h, nil
}

// IsRegistered reports whether name currently has a live entry
func (r *Registry) IsRegistered(name model.PlayerName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []model.PlayerName {
	r.mu.RLock()
	names := make([]model.PlayerName, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Count returns the number of registered players
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Send delivers ev to the named player if they are online
func (r *Registry) Send(name model.PlayerName, ev model.Event) bool {
	h, err := r.Lookup(name)
	if err != nil {
		return false
	}
	return h.Send(ev)
}

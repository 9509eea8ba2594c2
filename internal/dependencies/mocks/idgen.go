package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/rpsduel/internal/dependencies/idgen"
)

// MockIDGenerator is a mock implementation of idgen.Generator for testing.
// Queued IDs are returned first; after that it counts up from "id-1".
type MockIDGenerator struct {
	mu      sync.Mutex
	queued  []string
	counter int
}

// Ensure MockIDGenerator implements Generator
var _ idgen.Generator = (*MockIDGenerator)(nil)

// NewMockIDGenerator creates a new MockIDGenerator
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

// NewID returns the next queued ID, or a sequential one if none remain
func (g *MockIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// QueueIDs adds values to the result queue
func (g *MockIDGenerator) QueueIDs(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued = append(g.queued, ids...)
}

// Reset clears queued IDs and the counter
func (g *MockIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued = nil
	g.counter = 0
}

package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/rpsduel/internal/dependencies/mocks"
	"github.com/mcoot/rpsduel/internal/msgcat"
	"github.com/mcoot/rpsduel/internal/storage/memory"
	"github.com/mcoot/rpsduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDGenerator
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDGenerator()

	app := newWithDependencies(DefaultConfig(), store, mockClock, mockIDs, msgcat.Default(),
		prometheus.NewRegistry(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}

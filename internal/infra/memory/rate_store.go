package memory

import (
	"context"
	"sync"
	"time"
)

// RateStore keeps fixed-window counters in process memory. Counters are
// never explicitly destroyed; a stale one is overwritten when its window
// rolls over. Deployments with several warm instances do not share these
// counters, so the effective limit is L per instance.
type RateStore struct {
	clock func() time.Time

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewRateStore() *RateStore {
	return &RateStore{clock: time.Now, windows: make(map[string]*rateWindow)}
}

// NewRateStoreWithClock is test-only for deterministic window boundaries.
func NewRateStoreWithClock(clock func() time.Time) *RateStore {
	store := NewRateStore()
	store.clock = clock
	return store
}

func (s *RateStore) Incr(_ context.Context, callerID string, window time.Duration) (int, time.Time, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[callerID]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.windows[callerID] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Package memory implements the rate limit store as a mutex-guarded map.
// Suitable for single-instance deployments; multi-instance deployments need
// a shared store behind the same interface.
package memory

import (
	"context"
	"sync"
	"time"

	"formgate/internal/ratelimit/models"
	"formgate/pkg/requestcontext"
)

// InMemoryStore implements the service's Store port with a locked map.
// The whole check-and-consume transition runs under one mutex so two
// concurrent requests can never both observe count < limit and both pass.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Record
}

// New creates an empty in-memory store.
func New() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.Record),
	}
}

// CheckAndConsume atomically applies the fixed-window transition for one
// client and returns the outcome:
//
//	first sight            -> count=1, fresh window, allow
//	blocked, not expired   -> deny (blocked)
//	window elapsed         -> reset to count=1, fresh window, allow
//	count < limit          -> increment, allow
//	count == limit         -> flip to blocked for blockDuration, deny
func (s *InMemoryStore) CheckAndConsume(ctx context.Context, clientID string, limit int, window, block time.Duration) (*models.Result, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[clientID]
	if !exists {
		rec = &models.Record{Count: 1, WindowResetAt: now.Add(window)}
		s.records[clientID] = rec
		return allowResult(rec, limit), nil
	}

	if rec.Blocked {
		if now.Before(rec.BlockedUntil) {
			return &models.Result{
				Allowed:    false,
				Limit:      limit,
				Remaining:  0,
				ResetAt:    rec.BlockedUntil,
				Blocked:    true,
				RetryAfter: secondsUntil(now, rec.BlockedUntil),
			}, nil
		}
		// Block served; the next request starts a fresh window.
		rec.Blocked = false
		rec.Count = 1
		rec.WindowResetAt = now.Add(window)
		return allowResult(rec, limit), nil
	}

	if !now.Before(rec.WindowResetAt) {
		rec.Count = 1
		rec.WindowResetAt = now.Add(window)
		return allowResult(rec, limit), nil
	}

	if rec.Count < limit {
		rec.Count++
		return allowResult(rec, limit), nil
	}

	rec.Blocked = true
	rec.BlockedUntil = now.Add(block)
	return &models.Result{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    rec.BlockedUntil,
		Blocked:    true,
		RetryAfter: secondsUntil(now, rec.BlockedUntil),
	}, nil
}

// Sweep evicts records whose window and any block have both elapsed.
// Runs under the same mutex as CheckAndConsume; the scan is O(records)
// and does not block request handling between individual map operations.
func (s *InMemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			evicted++
		}
	}
	return evicted, nil
}

// Len reports the number of tracked clients.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func allowResult(rec *models.Record, limit int) *models.Result {
	remaining := limit - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   rec.WindowResetAt,
	}
}

func secondsUntil(now, until time.Time) int {
	secs := int(until.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

package quota

import (
	"context"
	"sync"
	"time"
)

type counters struct {
	hourBucket string
	hourCount  int64
	dayBucket  string
	dayCount   int64
	bytes      int64
}

// MemoryStore is an in-process quota store with the same window semantics as
// RedisStore. Intended for development and tests; counters do not survive a
// restart and are not shared between processes.
type MemoryStore struct {
	mu       sync.Mutex
	ceilings Ceilings
	byID     map[string]*counters

	now func() time.Time
}

// NewMemoryStore returns an in-memory quota store using the given ceilings.
func NewMemoryStore(ceilings Ceilings) *MemoryStore {
	return &MemoryStore{
		ceilings: ceilings,
		byID:     make(map[string]*counters),
		now:      time.Now,
	}
}

// get returns the identity's counters with expired window buckets reset.
// Callers must hold mu.
func (s *MemoryStore) get(identity string) *counters {
	t := s.now().UTC()
	hourBucket := t.Format(hourBucketLayout)
	dayBucket := t.Format(dayBucketLayout)

	c, ok := s.byID[identity]
	if !ok {
		c = &counters{hourBucket: hourBucket, dayBucket: dayBucket}
		s.byID[identity] = c
	}
	if c.hourBucket != hourBucket {
		c.hourBucket = hourBucket
		c.hourCount = 0
	}
	if c.dayBucket != dayBucket {
		c.dayBucket = dayBucket
		c.dayCount = 0
	}
	return c
}

// Check reports whether an upload of sizeBytes would fit. Read-only.
func (s *MemoryStore) Check(ctx context.Context, identity string, sizeBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(identity)
	return denyError(s.ceilings, denyReason(s.ceilings, c.hourCount, c.dayCount, c.bytes, sizeBytes))
}

// Commit increments the counters, denying if any ceiling would be exceeded.
// The mutex makes the check-and-increment atomic.
func (s *MemoryStore) Commit(ctx context.Context, identity string, sizeBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(identity)
	if reason := denyReason(s.ceilings, c.hourCount, c.dayCount, c.bytes, sizeBytes); reason != "" {
		return denyError(s.ceilings, reason)
	}
	c.hourCount++
	c.dayCount++
	c.bytes += sizeBytes
	return nil
}

// Release undoes a Commit, clamping counters at zero.
func (s *MemoryStore) Release(ctx context.Context, identity string, sizeBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.get(identity)
	if c.hourCount > 0 {
		c.hourCount--
	}
	if c.dayCount > 0 {
		c.dayCount--
	}
	c.bytes -= sizeBytes
	if c.bytes < 0 {
		c.bytes = 0
	}
	return nil
}

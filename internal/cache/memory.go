package cache

import (
	"context"
	"sync"
	"time"

	"srank/internal/log"
)

// Memory is an in-process Store. Entries do not survive a restart.
type Memory struct {
	mu     sync.Mutex
	items  map[string]Entry
	now    Clock
	logger *log.Logger
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMemoryClock overrides time.Now.
func WithMemoryClock(c Clock) MemoryOption {
	return func(m *Memory) { m.now = c }
}

// WithMemoryLogger sets the logger used for decode failures.
func WithMemoryLogger(l *log.Logger) MemoryOption {
	return func(m *Memory) { m.logger = l.WithComponent(log.ComponentCache) }
}

// NewMemory creates an empty in-process store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:  make(map[string]Entry),
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Store = (*Memory)(nil)

// Set stores value under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	entry, err := NewEntry(key, value, ttl, m.now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry
	return nil
}

// Get decodes the entry into dst when present and valid.
func (m *Memory) Get(ctx context.Context, key string, dst any) (bool, error) {
	entry, ok := m.valid(key)
	if !ok {
		return false, nil
	}
	if err := entry.Decode(dst); err != nil {
		m.logger.WarnContext(ctx, "Failed to decode cached value",
			log.NewFields().WithCache(key, false).WithError(err).WithErrorType(log.ErrorTypeDeserialize).ToSlice()...)
		return false, nil
	}
	return true, nil
}

// Has reports whether a valid entry exists for key.
func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.valid(key)
	return ok, nil
}

func (m *Memory) valid(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.items[key]
	if !exists {
		return Entry{}, false
	}
	if !entry.ValidAt(m.now()) {
		delete(m.items, key)
		return Entry{}, false
	}
	return entry, true
}

// SweepExpired removes entries whose window has closed and returns how many.
func (m *Memory) SweepExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for key, entry := range m.items {
		if !entry.ExpiresAt().After(now) {
			delete(m.items, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]Entry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

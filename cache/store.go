package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the key/value client the Service runs on. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored bytes; ok is false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set stores val under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int, error)
	// Keys lists the keys matching a glob pattern ("user:profile:*").
	Keys(ctx context.Context, pattern string) ([]string, error)
}

type memoryEntry struct {
	val       []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store with TTL support.
// Keys matches patterns the way Redis SCAN MATCH does.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.expired(e) {
		return nil, false, nil
	}

	return append([]byte(nil), e.val...), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := memoryEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Del(ctx context.Context, keys ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, k := range keys {
		if e, ok := m.entries[k]; ok {
			if !m.expired(e) {
				n++
			}

			delete(m.entries, k)
		}
	}

	return n, nil
}

func (m *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	re, err := compileGlob(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k, e := range m.entries {
		if m.expired(e) {
			continue
		}

		if re.MatchString(k) {
			out = append(out, k)
		}
	}

	return out, nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if !m.expired(e) {
			n++
		}
	}

	return n
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

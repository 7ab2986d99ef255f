// Package cache 提供首页整页缓存，后端可选 Redis 或进程内存
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Store 以字节为单位的 KV 缓存
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Clear 清空本 store 管理的全部 key
	Clear(ctx context.Context) error
}

// Counters 命中统计，给 feedbench 和测试使用
type Counters struct {
	Hits   int64
	Misses int64
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) snapshot() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

type memoryEntry struct {
	val     []byte
	expires time.Time
}

// MemoryStore 单进程部署或测试时使用
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	counters
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && !s.now().Before(e.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		ok = false
	}
	s.record(ok)
	if !ok {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{val: val, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}

// Counters reports hits and misses since the last reset.
func (s *MemoryStore) Counters() Counters { return s.snapshot() }

// ResetCounters clears recorded hit counters.
func (s *MemoryStore) ResetCounters() { s.reset() }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// Package memory is the in-process key-value backend, used for single
// instance deployments and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	domsession "example.com/storefront/internal/domain/session"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type KV struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewKV() *KV {
	return &KV{items: make(map[string]entry), now: time.Now}
}

func (s *KV) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return "", domsession.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// re-check: a concurrent Set may have refreshed the key
		if cur, ok := s.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return "", domsession.ErrNotFound
	}
	return e.value, nil
}

// Set stores value. A non-positive ttl never expires.
func (s *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries until ctx is done.
func (s *KV) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for k, e := range s.items {
				if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
					delete(s.items, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

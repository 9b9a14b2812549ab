package cache

import (
	"context"
	"sync"
	"time"

	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
)

// MemoryCache implements cache.UploadCache using in-memory storage.
// Expired entries are evicted when read.
type MemoryCache struct {
	entries map[uuid.UUID]cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
}

type cacheEntry struct {
	record    domain.UploadHistory
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[uuid.UUID]cacheEntry),
		now:     time.Now,
	}
}

// Get retrieves a record from cache
func (c *MemoryCache) Get(_ context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error) {
	c.mu.RLock()
	entry, exists := c.entries[uploadID]
	c.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[uploadID]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, uploadID)
		}
		c.mu.Unlock()
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

// Set stores a copy of the record with TTL
func (c *MemoryCache) Set(_ context.Context, record *domain.UploadHistory, ttl time.Duration) error {
	if record == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[record.UploadID] = cacheEntry{
		record:    *record,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a record from cache
func (c *MemoryCache) Delete(_ context.Context, uploadID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, uploadID)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ cache.UploadCache = (*MemoryCache)(nil)

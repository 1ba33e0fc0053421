package cache

import (
	"context"
	"sync"
	"time"

	"quickfx/internal/domain/model"
	"quickfx/pkg/logger"
)

// MemoryCache keeps everything in process memory. It is only shared between goroutines,
// so it pairs with the in-process launcher.
type MemoryCache struct {
	quotes  map[string]model.CacheEntry
	errors  map[model.ErrorKind]model.ErrorRecord
	pending map[string]time.Time
	mutex   sync.RWMutex
	now     func() time.Time
	log     *logger.Logger
}

func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		quotes:  make(map[string]model.CacheEntry),
		errors:  make(map[model.ErrorKind]model.ErrorRecord),
		pending: make(map[string]time.Time),
		now:     time.Now,
		log:     log,
	}
}

func (c *MemoryCache) GetQuote(ctx context.Context, key string) (*model.CacheEntry, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.quotes[key]
	if !found {
		c.log.Debug("Cache miss", "key", key)
		return nil, false, nil
	}

	c.log.Debug("Cache hit", "key", key)
	return &entry, true, nil
}

func (c *MemoryCache) SetQuote(ctx context.Context, key string, entry *model.CacheEntry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.quotes[key] = *entry
	c.log.Debug("Cache set", "key", key)

	return nil
}

func (c *MemoryCache) SetError(ctx context.Context, rec *model.ErrorRecord) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.errors[rec.Kind] = *rec
	return nil
}

func (c *MemoryCache) TakeError(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	rec, found := c.errors[kind]
	if !found {
		return nil, nil
	}
	delete(c.errors, kind)
	return &rec, nil
}

func (c *MemoryCache) AcquirePending(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if expiresAt, found := c.pending[key]; found && now.Before(expiresAt) {
		return false, nil
	}
	c.pending[key] = now.Add(ttl)
	return true, nil
}

func (c *MemoryCache) IsPending(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	expiresAt, found := c.pending[key]
	return found && c.now().Before(expiresAt), nil
}

func (c *MemoryCache) ReleasePending(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.pending, key)
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

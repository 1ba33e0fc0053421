package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quickfx/internal/domain/model"
	"quickfx/pkg/logger"
)

// RedisStore shares quotes, error slots and pending markers between processes and hosts.
// Pending markers use SET NX with an expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

func NewRedisStore(opt *redis.Options, prefix string, log *logger.Logger) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(opt),
		prefix: prefix,
		log:    log,
	}
}

// NewRedisStoreFromURL accepts redis://[:password@]host:port/db URLs.
func NewRedisStoreFromURL(url, prefix string, log *logger.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStore(opt, prefix, log), nil
}

func (r *RedisStore) quoteKey(key string) string {
	return r.prefix + "quote:" + key
}

func (r *RedisStore) errorKey(kind model.ErrorKind) string {
	return r.prefix + "error:" + string(kind)
}

func (r *RedisStore) pendingKey(key string) string {
	return r.prefix + "pending:" + key
}

func (r *RedisStore) GetQuote(ctx context.Context, key string) (*model.CacheEntry, bool, error) {
	val, err := r.client.Get(ctx, r.quoteKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.Debug("Redis cache miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	r.log.Debug("Redis cache hit", "key", key)
	return &entry, true, nil
}

func (r *RedisStore) SetQuote(ctx context.Context, key string, entry *model.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.quoteKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.log.Debug("Redis cache set", "key", key)
	return nil
}

func (r *RedisStore) SetError(ctx context.Context, rec *model.ErrorRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis encode error record: %w", err)
	}
	return r.client.Set(ctx, r.errorKey(rec.Kind), data, 0).Err()
}

func (r *RedisStore) TakeError(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error) {
	val, err := r.client.GetDel(ctx, r.errorKey(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel %s: %w", kind, err)
	}

	var rec model.ErrorRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("redis decode error record: %w", err)
	}
	return &rec, nil
}

func (r *RedisStore) AcquirePending(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.pendingKey(key), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisStore) IsPending(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.pendingKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisStore) ReleasePending(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.pendingKey(key)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

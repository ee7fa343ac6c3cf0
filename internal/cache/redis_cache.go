package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"linkdrop/internal/model"
)

// ErrCacheMiss is returned when a code has no cached entry.
var ErrCacheMiss = errors.New("cache miss")

// Config holds Redis connection settings
type Config struct {
	Enabled  bool
	Addr     string // host:port
	Password string
	DB       int
}

// RedisCache keeps recently-looked-up entries in Redis so hot codes
// skip the database. It is strictly an accelerator: every value it
// holds can be rebuilt from the mapping store, and the lookup path
// re-checks TTL from created_at regardless of where the entry came from.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg *Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func entryKey(code string) string {
	return "entry:" + code
}

// GetEntry returns the cached entry for a code, or ErrCacheMiss.
func (c *RedisCache) GetEntry(ctx context.Context, code string) (*model.Entry, error) {
	data, err := c.client.Get(ctx, entryKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var entry model.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt value is as good as a miss; drop it.
		c.client.Del(ctx, entryKey(code))
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// SetEntry caches an entry for at most ttl. Entries whose remaining
// lifetime is shorter get the shorter expiry so the cache never
// outlives the store row by more than a sweep.
func (c *RedisCache) SetEntry(ctx context.Context, entry *model.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(entry.Code), data, ttl).Err()
}

// Delete drops a cached entry. Called on upsert (the code now means
// something else) and by the reaper.
func (c *RedisCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, entryKey(code)).Err()
}

// Close releases the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Package cache stores remote assistant answers in Redis, or in memory when
// Redis is not configured.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client is a TTL store for encoded answers. Keys are "namespace:digest",
// see Key.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Purge drops every key of namespace and reports how many went.
	Purge(ctx context.Context, namespace string) (int, error)
	Close() error
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string // prepended to every key, "salesdesk:" when empty
}

// RedisClient implements Client on a shared Redis.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
}

// purgeBatch bounds both SCAN COUNT and the keys per UNLINK
const purgeBatch = 200

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "salesdesk:"
	}
	return &RedisClient{rdb: rdb, prefix: prefix}, nil
}

func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge walks the namespace with SCAN and unlinks the keys in batches, so
// a large namespace never blocks Redis.
func (c *RedisClient) Purge(ctx context.Context, namespace string) (int, error) {
	match := c.prefix + namespace + ":*"
	removed := 0
	batch := make([]string, 0, purgeBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, match, purgeBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan %s: %w", match, err)
	}
	return removed, flush()
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

// MemoryClient is the in-process Client used without Redis and in tests.
// It holds at most maxSize answers; when full, the one closest to expiry
// makes room.
type MemoryClient struct {
	mu      sync.RWMutex
	answers map[string]memoryAnswer
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryAnswer struct {
	body    []byte
	expires time.Time
}

// NewMemoryClient creates a memory cache holding at most maxSize answers
// (10000 when maxSize <= 0). Expired answers are swept every minute until
// Close.
func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 10000
	}
	c := &MemoryClient{
		answers: make(map[string]memoryAnswer),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweepEvery(time.Minute)
	return c
}

func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	a, ok := c.answers[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(a.expires) {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), a.body...), nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replacing := c.answers[key]; !replacing && len(c.answers) >= c.maxSize {
		c.dropSoonestLocked()
	}
	c.answers[key] = memoryAnswer{
		body:    append([]byte(nil), value...),
		expires: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryClient) Purge(_ context.Context, namespace string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.answers {
		if strings.HasPrefix(key, namespace+":") {
			delete(c.answers, key)
			removed++
		}
	}
	return removed, nil
}

// Close stops the sweeper.
func (c *MemoryClient) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// Len reports how many answers are held, expired or not.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.answers)
}

func (c *MemoryClient) dropSoonestLocked() {
	victim, soonest := "", time.Time{}
	for key, a := range c.answers {
		if victim == "" || a.expires.Before(soonest) {
			victim, soonest = key, a.expires
		}
	}
	delete(c.answers, victim)
}

func (c *MemoryClient) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryClient) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, a := range c.answers {
		if !now.Before(a.expires) {
			delete(c.answers, key)
		}
	}
}

// Key derives a fixed-length key from its parts. Parts are normalised for
// case and surrounding space, so "Pool?" and " pool? " share an entry.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// GetJSON decodes a cached JSON value into target.
func GetJSON(ctx context.Context, c Client, key string, target any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, c Client, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

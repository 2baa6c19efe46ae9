package forecasts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"meteo/internal/types"
)

// Observation is the raw provider data for one location. It is what gets
// cached: day titles and the daytime flag depend on the current time and are
// derived on every read.
type Observation struct {
	Current   *types.CurrentWeather `json:"current"`
	Forecast  *types.Forecast       `json:"forecast"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// Cache stores observations by location key. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*Observation, error)
	Set(ctx context.Context, key string, obs *Observation, ttl time.Duration) error
}

// MemoryCache is an in-process Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   types.Clock
}

type memoryEntry struct {
	obs     *Observation
	expires time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(clock types.Clock) *MemoryCache {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		return nil, nil
	}
	return e.obs, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, obs *Observation, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	// Sweep on write; the map holds at most the locations seen within one TTL.
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{obs: obs, expires: now.Add(ttl)}
	return nil
}

// RedisCmdable is the subset of *redis.Client used by RedisCache.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

const redisKeyPrefix = "meteo:obs:"

// RedisCache shares observations between API instances. Values are
// zstd-compressed JSON.
type RedisCache struct {
	rdb         RedisCmdable
	encoder     *zstd.Encoder
	decoderPool sync.Pool
}

// NewRedisCache creates a RedisCache over rdb.
func NewRedisCache(rdb RedisCmdable) (*RedisCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &RedisCache{
		rdb:     rdb,
		encoder: enc,
		decoderPool: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Observation, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "redis get failed", err)
	}

	decoder := c.decoderPool.Get().(*zstd.Decoder)
	defer c.decoderPool.Put(decoder)

	plain, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "cached value is not valid zstd", err)
	}

	var obs Observation
	if err := json.Unmarshal(plain, &obs); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCache, "cached value is not valid JSON", err)
	}
	return &obs, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, obs *Observation, ttl time.Duration) error {
	plain, err := json.Marshal(obs)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalCache, "failed to encode observation", err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, c.encoder.EncodeAll(plain, nil), ttl).Err(); err != nil {
		return types.NewAppError(types.ErrCodeInternalCache, "redis set failed", err)
	}
	return nil
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

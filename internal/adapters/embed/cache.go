package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cibscope/internal/platform/logger"
)

// Keyer builds cache keys scoped to a dataset fingerprint so a changed
// dataset or model never reads stale vectors
func Keyer(fingerprint string) func(text string) string {
	return func(text string) string {
		h := sha256.Sum256([]byte(text))
		return "emb:" + fingerprint + ":" + hex.EncodeToString(h[:16])
	}
}

// Fingerprint hashes the inputs that invalidate cached vectors: typically
// the model name plus a digest of the dataset
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// MemoryCache is a process-local vector cache. Safe for concurrent use;
// entries live until the process exits.
type MemoryCache struct {
	mu   sync.RWMutex
	vecs map[string][]float32
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{vecs: make(map[string][]float32)}
}

// Get returns the cached vector for key
func (m *MemoryCache) Get(_ context.Context, key string) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vecs[key]
	return v, ok
}

// Set stores vec under key
func (m *MemoryCache) Set(_ context.Context, key string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[key] = vec
}

// Len reports the number of cached vectors
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}

// RedisCache stores vectors in Redis with a TTL so repeated scans of the
// same dataset skip the provider entirely. Cache misses on Redis errors;
// a flaky cache degrades to recompute, never to failure.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

// NewRedisCache wraps an existing client; ttl <= 0 means 24h
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl, log: *logger.Named("embedcache")}
}

// Get returns the cached vector for key
func (r *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn().Err(err).Msg("embed cache get failed")
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("embed cache entry corrupt, dropping")
		_ = r.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return vec, true
}

// Set stores vec under key with the configured TTL
func (r *RedisCache) Set(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Msg("embed cache set failed")
	}
}

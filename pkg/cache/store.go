package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// defaultOpTimeout bounds every Redis operation so a degraded cache cannot
// stall the request path. Exceeding it is treated like any other cache
// failure: the operation fails open.
const defaultOpTimeout = 500 * time.Millisecond

// Store is a Redis-backed key/value store with per-entry TTL and a
// process-wide connection health flag.
//
// All operations are advisory. Get returns absent on miss, on any Redis
// error, and while disconnected; Set and Delete report success as a
// boolean. No method ever returns an error to the caller.
type Store struct {
	redis     *redis.Client
	connected atomic.Bool
	opTimeout time.Duration
	logger    zerolog.Logger
}

// Stats describes the current state of the backing Redis instance.
// Memory and Keyspace carry raw INFO sections and are empty when
// disconnected.
type Stats struct {
	Connected bool   `json:"connected"`
	Memory    string `json:"memory,omitempty"`
	Keyspace  string `json:"keyspace,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewStore creates a cache store around an existing Redis client.
// The store starts disconnected; call Connect before serving traffic.
func NewStore(redisClient *redis.Client, logger zerolog.Logger) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{
		redis:     redisClient,
		opTimeout: defaultOpTimeout,
		logger:    logger,
	}
}

// Connect verifies the Redis connection and sets the health flag.
// On failure it logs and leaves the store disconnected; the gateway must
// remain usable without a cache, so connection errors never abort startup.
func (s *Store) Connect(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Ping(opCtx).Err(); err != nil {
		s.markDisconnected("connect", err)
		return
	}
	s.markConnected()
	s.logger.Info().Msg("Cache store connected")
}

// Get retrieves a cached value. The second return value is false on a
// true miss, on any store-level error, and while disconnected.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, bool) {
	if !s.IsConnected() {
		CacheSkipped.WithLabelValues("get").Inc()
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.redis.Get(opCtx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(key.Resource()).Inc()
			return nil, false
		}
		CacheErrors.WithLabelValues("get").Inc()
		s.markDisconnected("get", err)
		return nil, false
	}

	CacheHits.WithLabelValues(key.Resource()).Inc()
	return data, true
}

// Set stores a value with the given TTL. The write is best-effort: a
// failure (including disconnection) is reported as false and must not
// abort the request that produced the value. TTLs of zero or less are
// rejected since entries must expire autonomously.
func (s *Store) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	if !s.IsConnected() {
		CacheSkipped.WithLabelValues("set").Inc()
		return false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Set(opCtx, key.String(), value, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		s.markDisconnected("set", err)
		return false
	}
	return true
}

// Delete removes a cached value. Best-effort like Set.
func (s *Store) Delete(ctx context.Context, key Key) bool {
	if !s.IsConnected() {
		CacheSkipped.WithLabelValues("delete").Inc()
		return false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Del(opCtx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		s.markDisconnected("delete", err)
		return false
	}
	return true
}

// IsConnected reports the current health flag. The flag is eventually
// consistent: a request may see a stale "connected" and then fail the
// actual operation, which is fine because every operation independently
// fails open.
func (s *Store) IsConnected() bool {
	return s.connected.Load()
}

// Stats pings Redis and returns connection state plus memory/keyspace
// info. The ping doubles as a health probe: a successful round trip
// restores the connected flag after an outage.
func (s *Store) Stats(ctx context.Context) Stats {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Ping(opCtx).Err(); err != nil {
		s.markDisconnected("ping", err)
		return Stats{Connected: false, Error: err.Error()}
	}
	s.markConnected()

	stats := Stats{Connected: true}
	if memory, err := s.redis.Info(opCtx, "memory").Result(); err == nil {
		stats.Memory = memory
	}
	if keyspace, err := s.redis.Info(opCtx, "keyspace").Result(); err == nil {
		stats.Keyspace = keyspace
	}
	return stats
}

// Close tears down the Redis connection.
func (s *Store) Close() error {
	s.connected.Store(false)
	CacheConnected.Set(0)
	return s.redis.Close()
}

func (s *Store) markConnected() {
	if !s.connected.Swap(true) {
		CacheConnected.Set(1)
	}
}

func (s *Store) markDisconnected(op string, err error) {
	if s.connected.Swap(false) {
		s.logger.Warn().Err(err).Str("operation", op).Msg("Cache store degraded, failing open")
	} else {
		s.logger.Debug().Err(err).Str("operation", op).Msg("Cache store still unavailable")
	}
	CacheConnected.Set(0)
}

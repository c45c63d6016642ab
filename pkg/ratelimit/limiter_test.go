package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a Redis client for testing, skipping the test
// when no local Redis is available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at localhost:6379: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// deadRedis returns a client pointed at a port nothing listens on.
func deadRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLimiter_AllowsUnderLimit(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 5}, zerolog.Nop())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d := limiter.Allow(ctx, "client-a")
		if !d.Allowed {
			t.Fatalf("request %d blocked, want allowed", i)
		}
		if d.Remaining != 5-i {
			t.Errorf("request %d: Remaining = %d, want %d", i, d.Remaining, 5-i)
		}
		if d.Limit != 5 {
			t.Errorf("Limit = %d, want 5", d.Limit)
		}
	}
}

func TestLimiter_BlocksOverLimit(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 3}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, "client-b")
	}

	d := limiter.Allow(ctx, "client-b")
	if d.Allowed {
		t.Fatal("request over the limit was allowed")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 1m]", d.RetryAfter)
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 2}, zerolog.Nop())
	ctx := context.Background()

	limiter.Allow(ctx, "client-c")
	limiter.Allow(ctx, "client-c")
	if d := limiter.Allow(ctx, "client-c"); d.Allowed {
		t.Error("client-c should be blocked")
	}

	if d := limiter.Allow(ctx, "client-d"); !d.Allowed {
		t.Error("client-d should be unaffected by client-c's window")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Second, MaxRequests: 1}, zerolog.Nop())
	ctx := context.Background()

	limiter.Allow(ctx, "client-e")
	if d := limiter.Allow(ctx, "client-e"); d.Allowed {
		t.Fatal("second request in window was allowed")
	}

	time.Sleep(1100 * time.Millisecond)

	if d := limiter.Allow(ctx, "client-e"); !d.Allowed {
		t.Error("request after window expiry was blocked")
	}
}

func TestLimiter_Reset(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 1}, zerolog.Nop())
	ctx := context.Background()

	limiter.Allow(ctx, "client-f")
	if d := limiter.Allow(ctx, "client-f"); d.Allowed {
		t.Fatal("second request was allowed before reset")
	}

	if err := limiter.Reset(ctx, "client-f"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if d := limiter.Allow(ctx, "client-f"); !d.Allowed {
		t.Error("request after reset was blocked")
	}
}

func TestLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	limiter := NewLimiter(deadRedis(t), Config{Window: time.Minute, MaxRequests: 1}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if d := limiter.Allow(ctx, "client-g"); !d.Allowed {
			t.Fatalf("request %d blocked while Redis is down, limiter must fail open", i)
		}
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	limiter := NewLimiter(deadRedis(t), Config{}, zerolog.Nop())
	want := DefaultConfig()

	if limiter.cfg.Window != want.Window {
		t.Errorf("Window = %v, want %v", limiter.cfg.Window, want.Window)
	}
	if limiter.cfg.MaxRequests != want.MaxRequests {
		t.Errorf("MaxRequests = %d, want %d", limiter.cfg.MaxRequests, want.MaxRequests)
	}
}

func TestNewLimiter_NilRedisPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewLimiter accepted a nil Redis client")
		}
	}()
	NewLimiter(nil, Config{}, zerolog.Nop())
}

func TestLimiter_ConcurrentClients(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 50}, zerolog.Nop())
	ctx := context.Background()

	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			done <- limiter.Allow(ctx, "client-h").Allowed
		}()
	}

	allowed := 0
	for i := 0; i < 100; i++ {
		if <-done {
			allowed++
		}
	}
	if allowed != 50 {
		t.Errorf("allowed = %d of 100 concurrent requests, want exactly 50", allowed)
	}
}

func BenchmarkLimiter_Allow(b *testing.B) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		b.Skipf("Redis not available: %v", err)
	}
	defer client.FlushDB(context.Background())

	limiter := NewLimiter(client, Config{Window: time.Minute, MaxRequests: 1 << 30}, zerolog.Nop())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, fmt.Sprintf("bench-%d", i%10))
	}
}

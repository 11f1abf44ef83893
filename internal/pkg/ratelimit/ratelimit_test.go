package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestAllowConsumesBurst(t *testing.T) {
	rdb := newMiniRedis(t)
	defer rdb.Close()

	limiter := NewRedisRateLimiter(rdb, nil, "test:auth:", 1, 3)

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "10.0.0.1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d within burst must pass", i)
		}
	}

	allowed, waitMs, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err != nil {
		t.Fatalf("allow over burst: %v", err)
	}
	if allowed {
		t.Fatalf("request over burst must be rejected")
	}
	if waitMs <= 0 {
		t.Fatalf("rejection must suggest a wait, got %d", waitMs)
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	rdb := newMiniRedis(t)
	defer rdb.Close()

	limiter := NewRedisRateLimiter(rdb, nil, "test:auth:", 1, 1)

	if allowed, _, _ := limiter.Allow(context.Background(), "10.0.0.1"); !allowed {
		t.Fatalf("first client must pass")
	}
	if allowed, _, _ := limiter.Allow(context.Background(), "10.0.0.1"); allowed {
		t.Fatalf("first client must be limited")
	}
	if allowed, _, _ := limiter.Allow(context.Background(), "10.0.0.2"); !allowed {
		t.Fatalf("second client must have its own bucket")
	}
}

func TestAllowWithoutRedis(t *testing.T) {
	var limiter *RateLimiter
	allowed, _, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err != nil || !allowed {
		t.Fatalf("nil limiter must pass everything, got allowed=%v err=%v", allowed, err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisRateLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow(ctx, "10.0.0.1") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 3, prefix: "profile:rl:"}
		if l.Allow(ctx, "   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisRateLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "profile:rl:"}
		if !l.Allow(ctx, " Client-A ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "profile:rl:client-a" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisRateLimitScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "profile:rl:"}
		if l.Allow(ctx, "client") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "profile:rl:"}
		if !l.Allow(ctx, "client") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestMemoryRateLimiterWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRateLimiter(time.Minute, 2)

	if !l.Allow(ctx, "ip") || !l.Allow(ctx, "IP ") {
		t.Fatalf("expected first two calls allowed")
	}
	if l.Allow(ctx, "ip") {
		t.Fatalf("expected third call denied")
	}
	if !l.Allow(ctx, "other") {
		t.Fatalf("expected independent key allowed")
	}
	if l.Allow(ctx, "") {
		t.Fatalf("expected empty key denied")
	}
}

func TestMemoryRateLimiterForgetsIdleKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(time.Minute, 1).(*memoryRateLimiter)
	l.now = func() time.Time { return clock }

	if !l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("expected first call allowed")
	}
	if l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("expected second call in window denied")
	}

	clock = clock.Add(2 * time.Minute)
	if !l.Allow(ctx, "10.0.0.2") {
		t.Fatalf("expected other client allowed")
	}
	if _, ok := l.hits["10.0.0.1"]; ok {
		t.Fatalf("expected idle key removed, got %v", l.hits)
	}
	if len(l.hits) != 1 {
		t.Fatalf("expected only the active key, got %d", len(l.hits))
	}
	if !l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("expected idle client allowed again after the window")
	}
}

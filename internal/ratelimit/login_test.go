package ratelimit

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoginLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewLoginLimiter(LoginLimiterParams{Log: zap.NewNop()})
	if limiter != nil {
		t.Fatal("expected nil limiter without a redis client")
	}
	if !limiter.Allow(context.Background(), "a@b.c", "127.0.0.1") {
		t.Fatal("nil limiter must allow")
	}
}

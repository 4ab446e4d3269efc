package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/reclaimlabs/recoveryhub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLogin = "login:%s:%s"

const (
	loginRate  = 0.2 // one attempt every five seconds, sustained
	loginBurst = 5
)

// LoginLimiter throttles credential attempts per email and source IP.
// A nil limiter allows everything, so deployments without redis keep
// working.
type LoginLimiter struct {
	bucket  *TokenBucket
	log     *zap.Logger
	metrics *metrics.Metrics
}

type LoginLimiterParams struct {
	fx.In

	Client  *redis.Client
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

func NewLoginLimiter(p LoginLimiterParams) *LoginLimiter {
	if p.Client == nil {
		return nil
	}

	return &LoginLimiter{
		bucket:  NewTokenBucket(p.Client),
		log:     p.Log.Named("ratelimit.login"),
		metrics: p.Metrics,
	}
}

// Allow reports whether another login attempt may proceed. Redis
// outages fail open; a broken limiter must not lock everyone out.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) bool {
	if l == nil || l.bucket == nil {
		return true
	}

	key := fmt.Sprintf(keyLogin, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(ip))
	result, err := l.bucket.Allow(ctx, key, loginRate, loginBurst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return true
	}
	if !result.Allowed {
		l.metrics.RecordLoginDenied(ctx, "rate_limited")
	}
	return result.Allowed
}

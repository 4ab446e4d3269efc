package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(NewLoginLimiter),
)

// NewRedisClient returns nil when no redis address is configured; the
// consumers treat a nil client as "feature off".
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
}

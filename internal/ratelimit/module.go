package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/config"
)

const checkoutPrefix = "payledger:ratelimit:checkout:"

// Module provides the checkout limiter. Without REDIS_ADDRESS the limiter is
// nil and the middleware is a pass-through.
var Module = fx.Module("ratelimit",
	fx.Provide(newRedisClient, newCheckoutLimiter),
)

type clientParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

func newRedisClient(p clientParams) *redis.Client {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("rate limiting disabled, no redis address configured")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis unreachable, rate limiting fails open", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

type limiterParams struct {
	fx.In

	Config *config.Config
	Client *redis.Client `optional:"true"`
}

// CheckoutLimiter guards checkout session creation.
type CheckoutLimiter struct {
	*Limiter
}

func newCheckoutLimiter(p limiterParams) (CheckoutLimiter, error) {
	if p.Client == nil {
		return CheckoutLimiter{}, nil
	}
	limiter, err := NewLimiter(NewRedisCounter(p.Client), checkoutPrefix, p.Config.CheckoutRateMax, p.Config.CheckoutRateWindow)
	if err != nil {
		return CheckoutLimiter{}, err
	}
	return CheckoutLimiter{Limiter: limiter}, nil
}

package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenStrategy),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock
}

func newTokenStrategy(p strategyParams) Strategy {
	opts := Options{TTL: p.Config.TokenTTL}
	if p.Clock != nil {
		opts.Now = p.Clock.Now
	}
	return NewHMACStrategy(p.Config.JWTSecret, opts)
}

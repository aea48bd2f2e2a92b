package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/app"
	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/logger"
	"github.com/polkiloo/payledger/internal/metrics"
	"github.com/polkiloo/payledger/internal/migration"
	"github.com/polkiloo/payledger/internal/pkg/auth"
	"github.com/polkiloo/payledger/internal/ratelimit"
	"github.com/polkiloo/payledger/internal/server/http/handlers"
	"github.com/polkiloo/payledger/internal/server/http/router"
	"github.com/polkiloo/payledger/internal/storage/postgres"
	"github.com/polkiloo/payledger/internal/usecase"
	"github.com/polkiloo/payledger/internal/webhook"
)

// Core wires configuration, storage, the provider adapter and use cases.
// The operator CLI runs on Core alone.
func Core(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		clock.Module,
		auth.Module,
		migration.Module,
		postgres.Module,
		stripe.Module,
		usecase.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

// Module wires the full HTTP service.
func Module(opts ...fx.Option) fx.Option {
	return Core(append([]fx.Option{
		metrics.Module,
		ratelimit.Module,
		webhook.Module,
		fx.Provide(
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.PaymentsFacade) handlers.PaymentsFacade { return f },
		),
		router.Module,
		app.Module,
	}, opts...)...)
}

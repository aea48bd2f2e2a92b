package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/webhook"
	"github.com/polkiloo/payledger/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewPaymentsFacade,
		func(p *webhook.Processor) WebhookProcessor { return p },
		newHTTPServer,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *PaymentsFacade
	Config *config.Config
	Clock  clock.Clock
	Logger *zap.Logger
}

func newReconciler(p workerParams) *worker.Reconciler {
	return worker.NewReconciler(
		p.Facade,
		p.Clock,
		worker.Options{
			Interval:   p.Config.ReconcileInterval,
			Batch:      p.Config.ReconcileBatch,
			Workers:    p.Config.WorkerPoolSize,
			MinAge:     p.Config.ReconcileMinAge,
			Production: p.Config.IsProduction(),
		},
		p.Logger.Named("reconcile"),
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Server     *http.Server
	Worker     *worker.Reconciler
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting payledger",
				zap.String("addr", p.Server.Addr),
				zap.String("pricing_mode", string(p.Config.PricingMode)),
				zap.Bool("reconcile_sweep", p.Worker.Enabled()),
			)
			// The start context expires once startup completes.
			p.Worker.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", zap.Error(err))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("payledger stopped")
			return nil
		},
	})
}

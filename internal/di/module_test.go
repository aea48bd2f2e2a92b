package di

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/app"
	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/domain/repository"
	"github.com/polkiloo/payledger/internal/storage/postgres"
	"github.com/polkiloo/payledger/internal/test"
	"github.com/polkiloo/payledger/internal/usecase"
	"github.com/polkiloo/payledger/internal/worker"
)

func testConfig() *config.Config {
	return &config.Config{
		RunAddress:            ":0",
		DatabaseURI:           "postgres://stub",
		Environment:           "test",
		JWTSecret:             "secret",
		TokenTTL:              time.Hour,
		StripeWebhookSecret:   "whsec_test",
		StripeAPIBase:         "https://api.stripe.test",
		PricingMode:           config.PricingStrict,
		OrphanFreshnessWindow: 24 * time.Hour,
		RetentionMode:         config.RetentionRetain,
		RetentionDays:         30,
		WebhookBodyLimit:      1024,
		WorkerPoolSize:        1,
		ReconcileBatch:        1,
		ShutdownTimeout:       time.Millisecond,
	}
}

func replacements(store *test.MemoryStore) fx.Option {
	return fx.Options(
		fx.Replace(testConfig()),
		fx.Replace(zap.NewNop()),
		fx.Replace(&postgres.Storage{}),
		fx.Replace(fx.Annotate(store.Users(), fx.As(new(repository.UserRepository)))),
		fx.Replace(fx.Annotate(store.Orders(), fx.As(new(repository.OrderRepository)))),
		fx.Replace(fx.Annotate(store.Products(), fx.As(new(repository.ProductRepository)))),
		fx.Replace(fx.Annotate(store.PaymentEvents(), fx.As(new(repository.PaymentEventRepository)))),
		fx.Replace(fx.Annotate(&test.StripeClientStub{}, fx.As(new(stripe.Client)))),
	)
}

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	var (
		facade     *app.PaymentsFacade
		engine     *gin.Engine
		reconciler *worker.Reconciler
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(replacements(test.NewMemoryStore())),
		fx.Populate(&facade, &engine, &reconciler),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil {
		t.Fatal("expected facade and router instances")
	}
	if reconciler.Enabled() {
		t.Fatal("expected reconcile sweep disabled without interval")
	}
}

func TestCoreProvidesOperatorUseCases(t *testing.T) {
	var (
		purge     *usecase.PurgeUseCase
		reconcile *usecase.ReconcileUseCase
		products  *usecase.ProductUseCase
		client    stripe.Client
		users     repository.UserRepository
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Core(replacements(test.NewMemoryStore())),
		fx.Populate(&purge, &reconcile, &products, &client, &users),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	if purge == nil || reconcile == nil || products == nil {
		t.Fatal("expected operator use cases")
	}
	if _, ok := client.(*test.StripeClientStub); !ok {
		t.Fatalf("expected stripe client stub to replace the http client, got %T", client)
	}
	if _, err := users.GetByLogin(context.Background(), "nobody"); err == nil {
		t.Fatal("expected in-memory user repository to report a missing login")
	}
}

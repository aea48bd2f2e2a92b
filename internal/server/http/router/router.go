package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/metrics"
	"github.com/polkiloo/payledger/internal/ratelimit"
	"github.com/polkiloo/payledger/internal/server/http/handlers"
	"github.com/polkiloo/payledger/internal/server/http/middleware"
)

// Params collects router dependencies. Metrics and the checkout limiter are
// optional; without them /metrics is absent and checkout is not limited.
type Params struct {
	fx.In

	Facade  handlers.PaymentsFacade
	Config  *config.Config
	Logger  *zap.Logger
	Metrics metrics.ExpositionHandler `optional:"true"`
	Limiter ratelimit.CheckoutLimiter `optional:"true"`
}

// apiBodyLimit caps inflated JSON bodies on /api.
const apiBodyLimit = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	log := p.Logger.Named("http")

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))

	healthHandler := handlers.NewHealthHandler(p.Facade)
	engine.GET("/health", healthHandler.Check)
	if p.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(http.Handler(p.Metrics)))
	}

	// The webhook reads the raw body for signature checks, so it stays out of
	// the decompression and gzip chain.
	webhookHandler := handlers.NewWebhookHandler(p.Facade, p.Config.WebhookBodyLimit)
	engine.POST("/stripe/webhook", webhookHandler.Receive)

	authHandler := handlers.NewAuthHandler(p.Facade, p.Config.IsProduction())
	checkoutHandler := handlers.NewCheckoutHandler(p.Facade, p.Config.IsDevelopment())
	orderHandler := handlers.NewOrderHandler(p.Facade)
	productHandler := handlers.NewProductHandler(p.Facade)

	api := engine.Group("/api")
	api.Use(middleware.DecompressRequest(apiBodyLimit))
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	api.GET("/products", productHandler.List)

	payments := api.Group("/payments")
	payments.Use(middleware.AuthRequired(p.Facade))
	payments.POST("/checkout-session",
		ratelimit.Middleware(p.Limiter.Limiter, principalKey, log),
		checkoutHandler.Create,
	)
	payments.GET("/orders/:id", orderHandler.Get)

	return engine
}

func principalKey(c *gin.Context) string {
	if principal, ok := handlers.CurrentPrincipal(c); ok {
		return principal.ID
	}
	return c.ClientIP()
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PricingMode selects how strictly a checkout total must match the order.
type PricingMode string

const (
	PricingStrict PricingMode = "strict"
	PricingFlex   PricingMode = "flex"
)

// RetentionMode selects the default ledger purge strategy.
type RetentionMode string

const (
	RetentionRetain RetentionMode = "retain"
	RetentionErase  RetentionMode = "erase"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
	AutoMigrate     bool

	JWTSecret string
	TokenTTL  time.Duration

	StripeSecretKey          string
	StripeWebhookSecret      string
	StripeAPIBase            string
	StripeSuccessURL         string
	StripeCancelURL          string
	StripeSignatureTolerance time.Duration

	WebhookBodyLimit      int64
	PricingMode           PricingMode
	OrphanFreshnessWindow time.Duration

	RetentionMode RetentionMode
	RetentionDays int

	RedisAddress       string
	CheckoutRateMax    int
	CheckoutRateWindow time.Duration

	ReconcileInterval time.Duration
	ReconcileBatch    int
	ReconcileMinAge   time.Duration
	WorkerPoolSize    int
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether verbose client errors are allowed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

const (
	defaultRunAddress               = ":8080"
	defaultEnvironment              = "development"
	defaultLogLevel                 = "info"
	defaultJWTSecret                = "change-me-in-production"
	defaultTokenTTL                 = 24 * time.Hour
	defaultShutdownTimeout          = 10 * time.Second
	defaultStripeAPIBase            = "https://api.stripe.com"
	defaultStripeSignatureTolerance = 5 * time.Minute
	defaultWebhookBodyLimit         = 512 * 1024
	defaultOrphanFreshnessWindow    = 24 * time.Hour
	defaultRetentionDays            = 365
	maxRetentionDays                = 3650
	defaultCheckoutRateMax          = 30
	defaultCheckoutRateWindow       = time.Minute
	defaultReconcileBatch           = 16
	defaultReconcileMinAge          = 15 * time.Minute
	defaultWorkerPoolSize           = 2

	webhookSecretMinLength = 26
	jwtSecretMinLengthProd = 32
)

var (
	webhookSecretPattern      = regexp.MustCompile(`^whsec_[A-Za-z0-9]+$`)
	webhookSecretPlaceholders = []string{
		"whsec_123",
		"whsec_test",
		"whsec_placeholder",
		"whsec_changeme",
		"whsec_your_webhook_secret",
	}

	// ErrInvalidProductionConfig is returned when production safeguards fail.
	ErrInvalidProductionConfig = errors.New("invalid production configuration")
)

// Load parses configuration from flags, environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

// LoadWith resolves keys through lookup instead of the process environment
// and ignores command line flags. A .env file still fills unset keys.
func LoadWith(lookup func(string) (string, bool)) (*Config, error) {
	_ = godotenv.Load()
	return load(nil, lookup)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:               getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:              getString(lookup, "DATABASE_URI", ""),
		Environment:              getString(lookup, "APP_ENV", defaultEnvironment),
		LogLevel:                 getString(lookup, "LOG_LEVEL", defaultLogLevel),
		ShutdownTimeout:          getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		AutoMigrate:              getBool(lookup, "AUTO_MIGRATE", true),
		JWTSecret:                getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:                 getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		StripeSecretKey:          getString(lookup, "STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:      getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		StripeAPIBase:            getString(lookup, "STRIPE_API_BASE", defaultStripeAPIBase),
		StripeSuccessURL:         getString(lookup, "STRIPE_SUCCESS_URL", ""),
		StripeCancelURL:          getString(lookup, "STRIPE_CANCEL_URL", ""),
		StripeSignatureTolerance: getDuration(lookup, "STRIPE_SIGNATURE_TOLERANCE", defaultStripeSignatureTolerance),
		WebhookBodyLimit:         int64(getInt(lookup, "WEBHOOK_BODY_LIMIT", defaultWebhookBodyLimit)),
		PricingMode:              PricingMode(strings.ToLower(getString(lookup, "PRICING_MODE", string(PricingStrict)))),
		OrphanFreshnessWindow:    getDuration(lookup, "ORPHAN_FRESHNESS_WINDOW", defaultOrphanFreshnessWindow),
		RetentionMode:            RetentionMode(strings.ToLower(getString(lookup, "PAYMENT_EVENT_RETENTION_MODE", string(RetentionRetain)))),
		RetentionDays:            getInt(lookup, "PAYMENT_EVENT_RETENTION_DAYS", defaultRetentionDays),
		RedisAddress:             getString(lookup, "REDIS_ADDRESS", ""),
		CheckoutRateMax:          getInt(lookup, "RATE_LIMIT_CHECKOUT_MAX", defaultCheckoutRateMax),
		CheckoutRateWindow:       getDuration(lookup, "RATE_LIMIT_CHECKOUT_WINDOW", defaultCheckoutRateWindow),
		ReconcileInterval:        getDuration(lookup, "RECONCILE_INTERVAL", 0),
		ReconcileBatch:           getInt(lookup, "RECONCILE_BATCH", defaultReconcileBatch),
		ReconcileMinAge:          getDuration(lookup, "RECONCILE_MIN_AGE", defaultReconcileMinAge),
		WorkerPoolSize:           getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
	}

	fs := flag.NewFlagSet("payledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		pricingModeStr     = string(cfg.PricingMode)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&pricingModeStr, "pricing-mode", pricingModeStr, "Checkout pricing check: strict or flex")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconcile workers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	cfg.PricingMode = PricingMode(strings.ToLower(pricingModeStr))

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.WebhookBodyLimit <= 0 {
		cfg.WebhookBodyLimit = defaultWebhookBodyLimit
	}
	if cfg.OrphanFreshnessWindow <= 0 {
		cfg.OrphanFreshnessWindow = defaultOrphanFreshnessWindow
	}
	if cfg.StripeSignatureTolerance < 0 {
		cfg.StripeSignatureTolerance = 0
	}
	if cfg.CheckoutRateMax <= 0 {
		cfg.CheckoutRateMax = defaultCheckoutRateMax
	}
	if cfg.CheckoutRateWindow <= 0 {
		cfg.CheckoutRateWindow = defaultCheckoutRateWindow
	}
	if cfg.ReconcileInterval < 0 {
		cfg.ReconcileInterval = 0
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	if cfg.ReconcileMinAge <= 0 {
		cfg.ReconcileMinAge = defaultReconcileMinAge
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	switch cfg.PricingMode {
	case PricingStrict, PricingFlex:
	default:
		return nil, fmt.Errorf("invalid pricing mode %q", cfg.PricingMode)
	}

	switch cfg.RetentionMode {
	case RetentionRetain, RetentionErase:
	default:
		return nil, fmt.Errorf("invalid retention mode %q", cfg.RetentionMode)
	}

	if cfg.RetentionDays < 1 || cfg.RetentionDays > maxRetentionDays {
		return nil, fmt.Errorf("retention days must be within 1..%d", maxRetentionDays)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if err := validateProduction(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateProduction(cfg *Config) error {
	if !cfg.IsProduction() {
		return nil
	}
	if err := validateWebhookSecret(cfg.StripeWebhookSecret); err != nil {
		return err
	}
	if strings.HasPrefix(cfg.StripeSecretKey, "sk_test_") {
		return fmt.Errorf("%w: stripe secret key must be a live key", ErrInvalidProductionConfig)
	}
	if !strings.HasPrefix(cfg.StripeSuccessURL, "https://") {
		return fmt.Errorf("%w: success url must use https", ErrInvalidProductionConfig)
	}
	if !strings.HasPrefix(cfg.StripeCancelURL, "https://") {
		return fmt.Errorf("%w: cancel url must use https", ErrInvalidProductionConfig)
	}
	if len(cfg.JWTSecret) < jwtSecretMinLengthProd {
		return fmt.Errorf("%w: jwt secret must be at least %d characters", ErrInvalidProductionConfig, jwtSecretMinLengthProd)
	}
	return nil
}

func validateWebhookSecret(secret string) error {
	s := strings.TrimSpace(secret)
	if s == "" {
		return fmt.Errorf("%w: webhook secret is required", ErrInvalidProductionConfig)
	}
	if len(s) < webhookSecretMinLength {
		return fmt.Errorf("%w: webhook secret must be at least %d characters", ErrInvalidProductionConfig, webhookSecretMinLength)
	}
	if !webhookSecretPattern.MatchString(s) {
		return fmt.Errorf("%w: webhook secret must match whsec_<alphanumeric>", ErrInvalidProductionConfig)
	}
	lower := strings.ToLower(s)
	for _, p := range webhookSecretPlaceholders {
		if lower == p || strings.Contains(lower, "your_webhook_secret") {
			return fmt.Errorf("%w: webhook secret is a placeholder", ErrInvalidProductionConfig)
		}
	}
	return nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getBool accepts true/1 and false/0, falling back to def otherwise.
func getBool(lookup envLookup, key string, def bool) bool {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}

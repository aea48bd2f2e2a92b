package stripe

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
)

// Module exposes the provider client and webhook verifier to the fx graph.
// Both are built once per process.
var Module = fx.Provide(newClient, newVerifier)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.StripeAPIBase, p.Config.StripeSecretKey, p.Logger.Named("stripe"))
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock
}

func newVerifier(p verifierParams) *Verifier {
	return NewVerifier(p.Config.StripeSignatureTolerance, p.Clock.Now)
}

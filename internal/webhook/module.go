package webhook

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// Module wires the reconciliation pipeline.
var Module = fx.Module("webhook",
	fx.Provide(
		newResolver,
		newLedger,
		newMutator,
		newAckPolicy,
		newProcessor,
	),
)

type pipelineParams struct {
	fx.In

	Config  *config.Config
	Clock   clock.Clock
	Orders  repository.OrderRepository
	Events  repository.PaymentEventRepository
	Metrics Recorder `optional:"true"`
}

func newResolver(p pipelineParams) *Resolver {
	return NewResolver(p.Orders, p.Config.PricingMode, p.Clock)
}

func newLedger(p pipelineParams) *Ledger {
	return NewLedger(p.Events, p.Clock, p.Metrics)
}

func newMutator(p pipelineParams) *Mutator {
	return NewMutator(p.Orders, p.Metrics)
}

func newAckPolicy(p pipelineParams) *AckPolicy {
	return NewAckPolicy(p.Clock, p.Config.OrphanFreshnessWindow)
}

type processorParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Verifier *stripe.Verifier
	Resolver *Resolver
	Ledger   *Ledger
	Mutator  *Mutator
	Policy   *AckPolicy
	Metrics  Recorder `optional:"true"`
}

func newProcessor(p processorParams) *Processor {
	return NewProcessor(
		p.Verifier,
		p.Resolver,
		p.Ledger,
		p.Mutator,
		p.Policy,
		p.Metrics,
		p.Logger.Named("webhook"),
		Options{Secret: p.Config.StripeWebhookSecret, Production: p.Config.IsProduction()},
	)
}

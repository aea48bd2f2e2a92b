package webhook

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
	"github.com/polkiloo/payledger/internal/logger"
)

const tracerName = "github.com/polkiloo/payledger/internal/webhook"

// Response messages. Internal detail never reaches the provider.
const (
	MessageMissingBody      = "Missing raw body"
	MessageMissingSignature = "Missing stripe-signature header"
	MessageInvalidSignature = "Invalid signature"
	MessageInvalidPayload   = "Invalid payload"
	MessageNotConfigured    = "Webhook not configured"
	MessageNotResolvable    = "Event not yet resolvable"
	MessageInternal         = "Internal server error"
)

// EventVerifier authenticates raw deliveries.
type EventVerifier interface {
	Verify(payload []byte, header, secret string) (*stripe.Event, error)
}

// Result is the acknowledgment for one delivery.
type Result struct {
	Decision     Decision
	Outcome      Outcome
	Message      string
	EventID      string
	Transitioned bool
}

func (r Result) StatusCode() int {
	return r.Decision.StatusCode()
}

// Options carries runtime settings of the processor.
type Options struct {
	Secret     string
	Production bool
}

// Processor runs a delivery through verification, classification,
// correlation, the ledger write and the order mutation, in that order.
type Processor struct {
	verifier EventVerifier
	resolver *Resolver
	ledger   *Ledger
	mutator  *Mutator
	policy   *AckPolicy
	metrics  Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
	opts     Options
}

func NewProcessor(
	verifier EventVerifier,
	resolver *Resolver,
	ledger *Ledger,
	mutator *Mutator,
	policy *AckPolicy,
	metrics Recorder,
	log *zap.Logger,
	opts Options,
) *Processor {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		verifier: verifier,
		resolver: resolver,
		ledger:   ledger,
		mutator:  mutator,
		policy:   policy,
		metrics:  metrics,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		opts:     opts,
	}
}

// Process handles one raw delivery and never returns an error: every branch
// maps to an explicit acknowledgment.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) (res Result) {
	ctx, span := p.tracer.Start(ctx, "webhook.process")
	defer span.End()

	log := logger.WithContext(ctx, logger.Payment(p.logger))
	eventType := ""

	defer func() {
		if rec := recover(); rec != nil {
			res = p.fail(span, log, "processing_failed", fmt.Errorf("panic: %v", rec))
		}
		span.SetAttributes(
			attribute.String("webhook.outcome", string(res.Outcome)),
			attribute.Int("http.response.status_code", res.StatusCode()),
		)
		p.metrics.Event(EventTypeLabel(eventType), res.Outcome)
	}()

	event, err := p.verifier.Verify(payload, signature, p.opts.Secret)
	if err != nil {
		return p.rejectUnverified(span, log, payload, err)
	}
	eventType = event.Type
	span.SetAttributes(
		attribute.String("stripe.event_id", event.ID),
		attribute.String("stripe.event_type", event.Type),
	)
	log = log.With(zap.String("stripe_event_id", event.ID), zap.String("type", event.Type))

	kind := Classify(event.Type)
	intent, err := p.resolver.Intent(event, kind)
	if err != nil {
		log.Warn("undecodable event object", zap.String("error_code", "invalid_payload"))
		return Result{Decision: Reject, Outcome: OutcomeRejected, Message: MessageInvalidPayload, EventID: event.ID}
	}
	log = log.With(intent.Fields...)

	resolution, err := p.resolver.Resolve(ctx, intent)
	if err != nil {
		return p.fail(span, log, "correlation_failed", err).withEvent(event.ID)
	}

	outcome, err := p.ledger.Record(ctx, event, intent, resolution)
	switch outcome {
	case repository.InsertCreated:
		return p.afterInsert(ctx, span, log, event, intent, resolution)
	case repository.InsertDuplicate:
		return p.afterDuplicate(ctx, span, log, event, intent, resolution)
	default:
		if err == nil {
			err = errors.New("ledger insert reported no outcome")
		}
		return p.fail(span, log, "persist_failed", err).withEvent(event.ID)
	}
}

func (p *Processor) afterInsert(ctx context.Context, span trace.Span, log *zap.Logger, event *stripe.Event, intent *Intent, res Resolution) Result {
	if res.Orphaned() {
		return p.orphan(log, event, res)
	}

	transitioned, err := p.mutator.Apply(ctx, res.OrderID, intent.Transition)
	if err != nil {
		return p.fail(span, log.With(zap.String("order_id", res.OrderID)), "mutation_failed", err).withEvent(event.ID)
	}

	log.Info("payment event processed",
		zap.String("order_id", res.OrderID),
		zap.Bool("transitioned", transitioned),
	)
	return Result{Decision: Ack, Outcome: OutcomeProcessed, EventID: event.ID, Transitioned: transitioned}
}

// afterDuplicate handles a delivery whose ledger row already exists. A
// resolved row only re-asserts its mutation. An orphaned row is repaired
// when this delivery's correlation succeeds.
func (p *Processor) afterDuplicate(ctx context.Context, span trace.Span, log *zap.Logger, event *stripe.Event, intent *Intent, res Resolution) Result {
	existing, err := p.ledger.Existing(ctx, event.ID)
	if err != nil {
		return p.fail(span, log, "ledger_lookup_failed", err).withEvent(event.ID)
	}

	if !existing.Orphaned {
		orderID := ""
		if existing.OrderID != nil {
			orderID = *existing.OrderID
		}
		transitioned, err := p.mutator.Apply(ctx, orderID, intent.Transition)
		if err != nil {
			return p.fail(span, log.With(zap.String("order_id", orderID)), "mutation_failed", err).withEvent(event.ID)
		}
		log.Info("duplicate event acknowledged",
			zap.String("order_id", orderID),
			zap.Bool("transitioned", transitioned),
		)
		return Result{Decision: Ack, Outcome: OutcomeDuplicate, EventID: event.ID, Transitioned: transitioned}
	}

	if res.Orphaned() {
		return p.orphan(log, event, res)
	}

	transitioned, err := p.ledger.Repair(ctx, event.ID, res.OrderID, intent.Transition)
	if err != nil {
		return p.fail(span, log.With(zap.String("order_id", res.OrderID)), "repair_failed", err).withEvent(event.ID)
	}
	log.Info("orphaned event repaired",
		zap.String("order_id", res.OrderID),
		zap.Bool("transitioned", transitioned),
	)
	return Result{Decision: Ack, Outcome: OutcomeRepaired, EventID: event.ID, Transitioned: transitioned}
}

func (p *Processor) orphan(log *zap.Logger, event *stripe.Event, res Resolution) Result {
	decision := p.policy.ForOrphan(res.Reason, event.CreatedAt())
	retry := decision == Nack
	p.metrics.Orphan(res.Reason, retry)

	fields := append([]zap.Field{zap.String("orphan_reason", string(res.Reason))}, res.Fields...)
	if res.OrderID != "" {
		fields = append(fields, zap.String("order_id", res.OrderID))
	}

	if retry {
		log.Warn("orphaned event awaiting retry", fields...)
		return Result{Decision: Nack, Outcome: OutcomeOrphanRetry, Message: MessageNotResolvable, EventID: event.ID}
	}

	outcome := OutcomeOrphanAck
	if res.Reason.Recoverable() {
		log.Warn("orphaned event abandoned outside freshness window", fields...)
	} else {
		if res.Reason == model.OrphanUnknownEventType {
			outcome = OutcomeIgnored
		}
		log.Info("orphaned event acknowledged", fields...)
	}
	return Result{Decision: Ack, Outcome: outcome, EventID: event.ID}
}

func (p *Processor) rejectUnverified(span trace.Span, log *zap.Logger, payload []byte, err error) Result {
	switch {
	case errors.Is(err, stripe.ErrNotConfigured):
		span.SetStatus(codes.Error, "webhook_not_configured")
		log.Error("webhook secret is not configured", zap.String("error_code", "webhook_not_configured"))
		return Result{Decision: Nack, Outcome: OutcomeFailed, Message: MessageNotConfigured}
	case errors.Is(err, stripe.ErrMissingSignature):
		log.Warn("webhook rejected", zap.String("reason", "missing_signature"))
		return Result{Decision: Reject, Outcome: OutcomeRejected, Message: MessageMissingSignature}
	case errors.Is(err, stripe.ErrInvalidPayload) && len(payload) == 0:
		log.Warn("webhook rejected", zap.String("reason", "missing_body"))
		return Result{Decision: Reject, Outcome: OutcomeRejected, Message: MessageMissingBody}
	case errors.Is(err, stripe.ErrInvalidPayload):
		log.Warn("webhook rejected", zap.String("reason", "invalid_payload"))
		return Result{Decision: Reject, Outcome: OutcomeRejected, Message: MessageInvalidPayload}
	default:
		log.Warn("webhook rejected", zap.String("reason", "invalid_signature"))
		return Result{Decision: Reject, Outcome: OutcomeRejected, Message: MessageInvalidSignature}
	}
}

// fail logs an infrastructure fault and asks the provider to retry. In
// production only the error code is logged.
func (p *Processor) fail(span trace.Span, log *zap.Logger, code string, err error) Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, code)
	log.Error("webhook processing failed", logger.Failure(code, err, p.opts.Production)...)
	return Result{Decision: Nack, Outcome: OutcomeFailed, Message: MessageInternal}
}

func (r Result) withEvent(eventID string) Result {
	r.EventID = eventID
	return r
}

package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/logger"
	"github.com/polkiloo/payledger/internal/usecase"
)

// ReconcileFacade exposes the subset of application functionality required by the sweep.
type ReconcileFacade interface {
	PendingForReconcile(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
	ReconcileOrder(ctx context.Context, orderID string) (usecase.ReconcileOutcome, error)
}

// Options tunes the sweep.
type Options struct {
	Interval time.Duration
	Batch    int
	Workers  int
	MinAge   time.Duration
	// Production drops raw errors from failure logs.
	Production bool
}

// Reconciler periodically asks the provider about stale pending orders and
// settles the ones whose checkout was paid but never confirmed by webhook.
type Reconciler struct {
	facade ReconcileFacade
	clock  clock.Clock
	opts   Options
	logger *zap.Logger

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewReconciler constructs the reconcile worker pool.
func NewReconciler(facade ReconcileFacade, clk clock.Clock, opts Options, log *zap.Logger) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Batch <= 0 {
		opts.Batch = 1
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		facade:   facade,
		clock:    clk,
		opts:     opts,
		logger:   logger.Payment(log),
		inflight: make(map[string]struct{}),
	}
}

// Enabled reports whether a sweep interval is configured.
func (r *Reconciler) Enabled() bool {
	return r.opts.Interval > 0
}

// Start launches background processing. It is a no-op when the sweep is
// disabled or already running. A stopped reconciler may be started again.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Enabled() || r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	// Orders left queued by a previous run were never handled.
	r.inflight = make(map[string]struct{})
	jobs := make(chan model.Order, r.opts.Batch*r.opts.Workers)

	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, jobs)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx, jobs)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer r.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx, jobs)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context, jobs chan<- model.Order) {
	orders, err := r.facade.PendingForReconcile(ctx, r.clock.Now().Add(-r.opts.MinAge), r.opts.Batch)
	if err != nil {
		r.logger.Error("fetch pending orders failed", logger.Failure("reconcile_fetch_failed", err, r.opts.Production)...)
		return
	}
	for _, order := range orders {
		if !r.claim(order.ID) {
			continue
		}
		select {
		case <-ctx.Done():
			r.release(order.ID)
			return
		case jobs <- order:
		}
	}
}

func (r *Reconciler) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[id]; busy {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Reconciler) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}

func (r *Reconciler) worker(ctx context.Context, jobs <-chan model.Order) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-jobs:
			if !ok {
				return
			}
			r.handleOrder(ctx, order)
			r.release(order.ID)
		}
	}
}

func (r *Reconciler) handleOrder(ctx context.Context, order model.Order) {
	log := r.logger.With(zap.String("order_id", order.ID))

	outcome, err := r.facade.ReconcileOrder(ctx, order.ID)
	if err != nil {
		var tooMany stripe.TooManyRequestsError
		switch {
		case errors.As(err, &tooMany):
			log.Warn("provider rate limited reconcile", zap.String("reason", "rate_limited"))
			pause(ctx, tooMany.RetryAfter)
		case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrOrderNotReconcilable):
			log.Info("order skipped", zap.String("reason", err.Error()))
		default:
			log.Error("reconcile failed", logger.Failure("reconcile_failed", err, r.opts.Production)...)
		}
		return
	}
	log.Debug("order reconciled", zap.String("outcome", string(outcome)))
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

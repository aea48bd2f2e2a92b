package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/webhook"
)

const namespace = "payledger"

// Collectors counts webhook outcomes, orphans and order transitions.
type Collectors struct {
	events      *prometheus.CounterVec
	orphans     *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		orphans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "orphans_total",
			Help:      "Ledger entries left without an order, by reason and retry decision.",
		}, []string{"reason", "decision"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "transitions_total",
			Help:      "Guarded order transitions by target status and result.",
		}, []string{"to", "result"}),
	}

	for _, collector := range []prometheus.Collector{c.events, c.orphans, c.transitions} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) Event(eventType string, outcome webhook.Outcome) {
	c.events.WithLabelValues(webhook.EventTypeLabel(eventType), string(outcome)).Inc()
}

func (c *Collectors) Orphan(reason model.OrphanReason, retry bool) {
	decision := "abandoned"
	if retry {
		decision = "retry"
	}
	c.orphans.WithLabelValues(string(reason), decision).Inc()
}

func (c *Collectors) Transition(to model.OrderStatus, applied bool) {
	result := "noop"
	if applied {
		result = "applied"
	}
	c.transitions.WithLabelValues(string(to), result).Inc()
}

// NewRegistry returns a registry with the process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the text exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

var _ webhook.Recorder = (*Collectors)(nil)

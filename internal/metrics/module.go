package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/payledger/internal/webhook"
)

// Module provides the registry, the collectors as the webhook recorder, and
// the exposition handler.
var Module = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		newCollectors,
		asRecorder,
		newHandler,
	),
)

func newCollectors(reg *prometheus.Registry) (*Collectors, error) {
	return New(reg)
}

func asRecorder(c *Collectors) webhook.Recorder {
	return c
}

// ExpositionHandler is the /metrics handler.
type ExpositionHandler http.Handler

func newHandler(reg *prometheus.Registry) ExpositionHandler {
	return Handler(reg)
}

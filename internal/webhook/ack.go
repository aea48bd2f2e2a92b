package webhook

import (
	"net/http"
	"time"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/domain/model"
)

// Decision is the acknowledgment returned to the provider.
type Decision int

const (
	Ack Decision = iota
	Nack
	Reject
)

// StatusCode maps a decision to the HTTP status the provider sees.
func (d Decision) StatusCode() int {
	switch d {
	case Nack:
		return http.StatusInternalServerError
	case Reject:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

func (d Decision) String() string {
	switch d {
	case Nack:
		return "nack"
	case Reject:
		return "reject"
	default:
		return "ack"
	}
}

// AckPolicy decides whether an orphan is worth a provider retry.
type AckPolicy struct {
	clock  clock.Clock
	window time.Duration
}

func NewAckPolicy(clk clock.Clock, window time.Duration) *AckPolicy {
	if clk == nil {
		clk = clock.System{}
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &AckPolicy{clock: clk, window: window}
}

// ForOrphan returns Nack only for a recoverable reason on an event created
// within the freshness window. A zero created time counts as stale.
func (p *AckPolicy) ForOrphan(reason model.OrphanReason, createdAt time.Time) Decision {
	if !reason.Recoverable() {
		return Ack
	}
	if !p.Fresh(createdAt) {
		return Ack
	}
	return Nack
}

// Fresh reports whether createdAt lies within the freshness window.
func (p *AckPolicy) Fresh(createdAt time.Time) bool {
	if createdAt.IsZero() {
		return false
	}
	return p.clock.Now().Sub(createdAt) <= p.window
}

package webhook

import "github.com/polkiloo/payledger/internal/domain/model"

// Outcome labels how a delivery ended.
type Outcome string

const (
	OutcomeProcessed   Outcome = "processed"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRepaired    Outcome = "repaired"
	OutcomeIgnored     Outcome = "ignored"
	OutcomeOrphanRetry Outcome = "orphan_retry"
	OutcomeOrphanAck   Outcome = "orphan_ack"
	OutcomeRejected    Outcome = "rejected"
	OutcomeFailed      Outcome = "failed"
)

// Recorder receives webhook observations.
type Recorder interface {
	Event(eventType string, outcome Outcome)
	Orphan(reason model.OrphanReason, retry bool)
	Transition(to model.OrderStatus, applied bool)
}

// NopRecorder discards observations.
type NopRecorder struct{}

func (NopRecorder) Event(string, Outcome)              {}
func (NopRecorder) Orphan(model.OrphanReason, bool)    {}
func (NopRecorder) Transition(model.OrderStatus, bool) {}

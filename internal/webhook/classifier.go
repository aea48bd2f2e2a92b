package webhook

import "github.com/polkiloo/payledger/internal/adapter/stripe"

// Kind is the routing class of a verified event.
type Kind int

const (
	KindUnsupported Kind = iota
	KindCheckoutPaid
	KindCheckoutFailed
	KindChargeRefunded
	KindPaymentIntentRefunded
)

var routes = map[string]Kind{
	stripe.EventCheckoutSessionCompleted:             KindCheckoutPaid,
	stripe.EventCheckoutSessionAsyncPaymentSucceeded: KindCheckoutPaid,
	stripe.EventCheckoutSessionAsyncPaymentFailed:    KindCheckoutFailed,
	stripe.EventCheckoutSessionExpired:               KindCheckoutFailed,
	stripe.EventChargeRefunded:                       KindChargeRefunded,
	stripe.EventPaymentIntentRefunded:                KindPaymentIntentRefunded,
}

// Classify maps an event type to its route. Unknown types are unsupported.
func Classify(eventType string) Kind {
	return routes[eventType]
}

func (k Kind) Supported() bool {
	return k != KindUnsupported
}

func (k Kind) String() string {
	switch k {
	case KindCheckoutPaid:
		return "checkout_paid"
	case KindCheckoutFailed:
		return "checkout_failed"
	case KindChargeRefunded:
		return "charge_refunded"
	case KindPaymentIntentRefunded:
		return "payment_intent_refunded"
	default:
		return "unsupported"
	}
}

// EventTypeLabel bounds metric label cardinality to the supported set.
func EventTypeLabel(eventType string) string {
	if Classify(eventType).Supported() {
		return eventType
	}
	return "unsupported"
}

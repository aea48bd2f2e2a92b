package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		stripe.EventCheckoutSessionCompleted:             KindCheckoutPaid,
		stripe.EventCheckoutSessionAsyncPaymentSucceeded: KindCheckoutPaid,
		stripe.EventCheckoutSessionAsyncPaymentFailed:    KindCheckoutFailed,
		stripe.EventCheckoutSessionExpired:               KindCheckoutFailed,
		stripe.EventChargeRefunded:                       KindChargeRefunded,
		stripe.EventPaymentIntentRefunded:                KindPaymentIntentRefunded,
		"customer.created":                               KindUnsupported,
		"":                                               KindUnsupported,
	}
	for eventType, want := range cases {
		assert.Equal(t, want, Classify(eventType), eventType)
	}
}

func TestEventTypeLabel(t *testing.T) {
	assert.Equal(t, stripe.EventChargeRefunded, EventTypeLabel(stripe.EventChargeRefunded))
	assert.Equal(t, "unsupported", EventTypeLabel("invoice.finalized"))
	assert.Equal(t, "unsupported", KindUnsupported.String())
	assert.False(t, KindUnsupported.Supported())
	assert.True(t, KindCheckoutPaid.Supported())
}

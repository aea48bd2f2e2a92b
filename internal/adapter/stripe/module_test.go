package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
)

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{StripeAPIBase: "https://api.stripe.com", StripeSecretKey: "sk_test_1"}
	client, err := newClient(clientParams{Config: cfg, Logger: zap.NewNop()})
	require.NoError(t, err)
	httpClient, ok := client.(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, "sk_test_1", httpClient.secretKey)
}

func TestNewVerifierUsesClockAndTolerance(t *testing.T) {
	fake := clock.NewFakeClock(time.Unix(100, 0))
	v := newVerifier(verifierParams{Config: &config.Config{StripeSignatureTolerance: time.Minute}, Clock: fake})
	assert.Equal(t, time.Minute, v.tolerance)
	assert.Equal(t, fake.Now(), v.now())
}

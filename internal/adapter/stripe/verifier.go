package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the provider signature of a webhook delivery.
const SignatureHeader = "Stripe-Signature"

const signatureScheme = "v1"

var (
	ErrMissingSignature = errors.New("missing stripe-signature header")
	ErrNotConfigured    = errors.New("webhook not configured")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// Verifier checks webhook signatures over the exact received bytes.
type Verifier struct {
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a Verifier. A zero tolerance disables the timestamp check.
func NewVerifier(tolerance time.Duration, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{tolerance: tolerance, now: now}
}

// Verify authenticates payload against header and secret, then decodes it.
// The payload is never re-serialized before the HMAC comparison.
func (v *Verifier) Verify(payload []byte, header, secret string) (*Event, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	if strings.TrimSpace(header) == "" {
		return nil, ErrMissingSignature
	}
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNotConfigured
	}

	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	expected := computeSignature(ts, payload, secret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age < 0 {
			age = -age
		}
		if age > v.tolerance {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrInvalidPayload)
	}
	return &event, nil
}

// Sign produces a header value for payload, in the provider's format.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,%s=%s", ts, signatureScheme, hex.EncodeToString(computeSignature(ts, payload, secret)))
}

func computeSignature(ts int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var (
		ts         int64
		haveTS     bool
		signatures [][]byte
	)
	for _, item := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			ts, haveTS = parsed, true
		case signatureScheme:
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}
	return ts, signatures, nil
}

package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/logger"
)

// ErrMissingAPIKey is returned when no secret key is configured.
var ErrMissingAPIKey = errors.New("stripe secret key not configured")

// TooManyRequestsError represents rate limiting signal from the provider.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("stripe error %d: %s", e.StatusCode, e.Message)
}

// CheckoutParams describes a one-item payment session for an order.
// Customer contact data is never part of it.
type CheckoutParams struct {
	OrderID     string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// Client exposes the checkout session operations of the provider API.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL    *url.URL
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewHTTPClient creates an API client with default timeout.
func NewHTTPClient(baseURL, secretKey string, log *zap.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse stripe url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("stripe url must be absolute")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:   parsed,
		secretKey: strings.TrimSpace(secretKey),
		logger:    logger.Payment(log),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateCheckoutSession opens a hosted payment page for one order. The order
// id travels both as client_reference_id and metadata.orderId.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", sessionModePayment)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(p.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Order")
	form.Set("line_items[0][price_data][product_data][description]", "Order "+p.OrderID)
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("client_reference_id", p.OrderID)
	form.Set("metadata["+metadataOrderIDKey+"]", p.OrderID)

	var session CheckoutSession
	err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, "checkout-"+p.OrderID, &session)
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, errors.New("stripe did not return a checkout URL")
	}
	return &session, nil
}

func (c *HTTPClient) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("checkout session id is required")
	}
	var session CheckoutSession
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpointPath string, form url.Values, idempotencyKey string, out any) error {
	if c.secretKey == "" {
		return ErrMissingAPIKey
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)
	endpoint.RawPath = ""

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode stripe response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Type = envelope.Error.Type
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		c.logger.Warn("stripe request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("stripe_error", apiErr.Code),
		)
		return apiErr
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

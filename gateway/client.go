package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"checkout-svc/circuitbreaker"

	"go.uber.org/zap"
)

const (
	maxRetries   = 2
	retryBackoff = 200 * time.Millisecond
)

// Client talks to the payment provider's REST API. Transient transport
// failures are retried a bounded number of times; repeated failures trip
// the circuit breaker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	return &Client{
		baseURL:    getEnv("GATEWAY_URL", "http://localhost:8090"),
		apiKey:     getEnv("GATEWAY_API_KEY", ""),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		breaker:    circuitbreaker.NewCircuitBreaker(5, 30*time.Second),
		logger:     logger,
	}
}

func (c *Client) RetrievePayment(ctx context.Context, ref string) (*PaymentAuthorization, error) {
	var auth *PaymentAuthorization
	var notFound bool
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		err := c.breaker.Execute(ctx, func() error {
			a, nf, err := c.retrieveOnce(ctx, ref)
			if err != nil {
				return err
			}
			auth, notFound = a, nf
			return nil
		})
		if err == nil {
			if notFound {
				return nil, ErrNotFound
			}
			return auth, nil
		}

		lastErr = err
		c.logger.Warn("Payment gateway call failed",
			zap.String("payment_ref", ref),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) retrieveOnce(ctx context.Context, ref string) (*PaymentAuthorization, bool, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var auth PaymentAuthorization
		if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
			return nil, false, fmt.Errorf("failed to decode gateway response: %w", err)
		}
		return &auth, false, nil
	case http.StatusNotFound:
		// Definite answer, not a transport failure.
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker settings.
type HTTPClientConfig struct {
	Client *http.Client

	// Breaker trips after ConsecutiveFailures transient failures
	// and stays open for OpenTimeout.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

var (
	errServerError  = errors.New("server error")
	errRateLimited  = errors.New("rate limited")
	errNoHTTPClient = errors.New("http client not configured")
)

func newBreaker(name string, cfg HTTPClientConfig) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
	})
}

// doRequest executes the request exactly once through the circuit breaker.
// Only transport failures, 429 and 5xx count against the breaker; other
// responses are returned to the caller for classification. Failures of the
// exchange itself come back wrapped as weather.ErrTransient.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker %s: %v", weather.ErrTransient, cb.Name(), err)
		}
		return nil, fmt.Errorf("%w: %v", weather.ErrTransient, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// classifyStatus maps a non-transient HTTP status onto the fetch error taxonomy.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", weather.ErrAuth, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", weather.ErrCityNotFound, status)
	default:
		return fmt.Errorf("%w: unexpected status code %d", weather.ErrTransient, status)
	}
}

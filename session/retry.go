package session

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryStrategy returns the delay to wait before a retry attempt.
// The first retry is attempt 1.
type RetryStrategy func(attempt int) time.Duration

// ExponentialBackoff returns a strategy where the delay before retry n is
// factor * 2^(n-1) seconds. A factor of 0 disables waiting between retries.
func ExponentialBackoff(factor float64) RetryStrategy {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return time.Duration(factor * math.Pow(2, float64(attempt-1)) * float64(time.Second))
	}
}

// Transient status codes and the methods eligible for retry. Fixed
// process-wide, matching the backend's documented rate-limit and overload
// responses.
var (
	retryableStatuses = map[int]struct{}{
		http.StatusTooManyRequests:     {},
		http.StatusInternalServerError: {},
		http.StatusBadGateway:          {},
		http.StatusServiceUnavailable:  {},
		http.StatusGatewayTimeout:      {},
	}

	retryableMethods = map[string]struct{}{
		http.MethodGet:    {},
		http.MethodPost:   {},
		http.MethodPut:    {},
		http.MethodDelete: {},
		http.MethodPatch:  {},
	}
)

func statusRetryable(code int) bool {
	_, ok := retryableStatuses[code]
	return ok
}

func methodRetryable(method string) bool {
	_, ok := retryableMethods[method]
	return ok
}

// retryTransport retries transient failures on top of an inner RoundTripper.
// A request is retried only when its method is retryable and the attempt
// either failed at the transport level or returned a retryable status. Once
// MaxRetries retries are exhausted the last response or error is handed back
// unchanged. Each request runs its own retry loop; the transport itself
// holds no mutable state.
type retryTransport struct {
	Transport     http.RoundTripper
	MaxRetries    int
	RetryStrategy RetryStrategy
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	inner := t.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}

	if !methodRetryable(req.Method) {
		return inner.RoundTrip(req)
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = inner.RoundTrip(req)

		retryable := err != nil || statusRetryable(resp.StatusCode)
		if !retryable || attempt >= t.MaxRetries {
			return resp, err
		}

		// Check replayability before draining, so a non-replayable body
		// still hands back a readable response.
		next, rerr := rewindRequest(req)
		if rerr != nil {
			return resp, err
		}

		if resp != nil {
			drainAndClose(resp.Body)
		}

		if t.RetryStrategy != nil {
			if werr := sleepContext(req.Context(), t.RetryStrategy(attempt+1)); werr != nil {
				return nil, werr
			}
		}

		req = next
	}
}

// rewindRequest prepares the request for another attempt. Requests with a
// consumed body are cloned with a fresh body from GetBody; bodyless requests
// are reused as-is.
func rewindRequest(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next := req.Clone(req.Context())
	next.Body = body
	return next, nil
}

// Drain before closing so the underlying connection can be reused.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

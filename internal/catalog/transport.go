package catalog

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// limitedTransport schedules every outbound call through a shared limiter:
// a token bucket enforces minimum spacing between dispatches and a semaphore
// bounds concurrent in-flight requests. Transient failures (429, 5xx, and
// retryable network errors) are retried with bounded backoff before the
// error surfaces to the caller.
//
// The limiter applies uniformly to every call issued through the client,
// regardless of which run issued it.
type limitedTransport struct {
	base     http.RoundTripper
	limiter  *rate.Limiter
	inFlight chan struct{}
}

func newLimitedTransport(base http.RoundTripper, interval time.Duration, maxInFlight int) *limitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &limitedTransport{
		base:     base,
		limiter:  limiter,
		inFlight: make(chan struct{}, maxInFlight),
	}
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		attemptReq, err := rewindRequest(req, attempt)
		if err != nil {
			return nil, err
		}

		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		select {
		case t.inFlight <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err := t.base.RoundTrip(attemptReq)
		<-t.inFlight

		decision, hint := classify(resp, err)
		switch decision {
		case decisionSuccess:
			return resp, nil
		case decisionFatal:
			return resp, err
		case decisionRetry:
			if err != nil {
				lastErr = err
			} else {
				lastErr = fmt.Errorf("catalog call returned %d", resp.StatusCode)
				drainBody(resp)
			}
			if attempt == maxAttempts-1 {
				return nil, lastErr
			}
			// A request without a rewindable body cannot be replayed.
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			select {
			case <-time.After(backoffDelay(attempt, hint)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func rewindRequest(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

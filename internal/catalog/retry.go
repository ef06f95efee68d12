package catalog

import (
	"net/http"
	"strconv"
	"time"

	"airlog/internal/services"
)

const (
	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

type retryDecision int

const (
	decisionSuccess retryDecision = iota
	decisionRetry
	decisionFatal
)

// classify maps one attempt's result to a typed retry outcome. The returned
// delay is only meaningful for decisionRetry and honors a server-supplied
// Retry-After hint when present; otherwise the caller applies exponential
// backoff from retryBaseDelay.
func classify(resp *http.Response, err error) (retryDecision, time.Duration) {
	if err != nil {
		if services.Retryable(err) {
			return decisionRetry, 0
		}
		return decisionFatal, 0
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return decisionRetry, retryAfterHint(resp)
	case resp.StatusCode >= 500:
		return decisionRetry, 0
	default:
		return decisionSuccess, 0
	}
}

func retryAfterHint(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

func backoffDelay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	delay := retryBaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

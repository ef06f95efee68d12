package catalog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestTransportRetriesRateLimitedRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: newLimitedTransport(nil, 0, 1)}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected success after retry, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestTransportGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	transport := newLimitedTransport(nil, 0, 1)
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	start := time.Now()
	if _, err := transport.RoundTrip(req); err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if got := atomic.LoadInt32(&calls); got != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, got)
	}
	// Two backoff waits at 500ms and 1s.
	if elapsed := time.Since(start); elapsed < retryBaseDelay {
		t.Fatalf("expected backoff between attempts, finished in %v", elapsed)
	}
}

func TestTransportRewindsBodyOnRetry(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := &http.Client{Transport: newLimitedTransport(nil, 0, 1)}
	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"uris":["a"]}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected success after retry, got %d", resp.StatusCode)
	}
	if len(bodies) != 2 || bodies[0] != bodies[1] {
		t.Fatalf("expected identical replayed bodies, got %v", bodies)
	}
}

func TestTransportSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	interval := 50 * time.Millisecond
	client := &http.Client{Transport: newLimitedTransport(nil, interval, 1)}

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
		resp.Body.Close()
	}
	// The first dispatch is immediate; the next two each wait one interval.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("expected at least %v of pacing, got %v", 2*interval, elapsed)
	}
}

func TestRetryAfterHint(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := retryAfterHint(resp); got != 0 {
		t.Fatalf("empty header: got %v", got)
	}
	resp.Header.Set("Retry-After", "3")
	if got := retryAfterHint(resp); got != 3*time.Second {
		t.Fatalf("seconds form: got %v", got)
	}
	resp.Header.Set("Retry-After", time.Now().Add(2*time.Second).UTC().Format(http.TimeFormat))
	if got := retryAfterHint(resp); got <= 0 || got > 2*time.Second {
		t.Fatalf("date form: got %v", got)
	}
}

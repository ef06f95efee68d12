package catalog

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// tokenRefreshLeeway is how much remaining validity triggers a proactive
// refresh before a call goes out with a nearly expired bearer token.
const tokenRefreshLeeway = 60 * time.Second

// guardedTokenSource wraps an oauth2 source with proactive refresh and
// bounded retry. Caching lives in the reuse source so the leeway applies to
// the cached token itself; the guard only adds the backoff loop around
// refresh failures.
type guardedTokenSource struct {
	src oauth2.TokenSource

	mu sync.Mutex
}

func newGuardedTokenSource(src oauth2.TokenSource) *guardedTokenSource {
	return &guardedTokenSource{
		src: oauth2.ReuseTokenSourceWithExpiry(nil, src, tokenRefreshLeeway),
	}
}

func (g *guardedTokenSource) Token() (*oauth2.Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var lastErr error
	delay := retryBaseDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := g.src.Token()
		if err == nil {
			if staleToken(token) {
				// The reuse source may surface a token it was seeded with
				// before the leeway applies to it. One more fetch forces a
				// real refresh; if the issuer only grants short-lived
				// tokens the stale one is still usable.
				if fresh, err := g.src.Token(); err == nil {
					token = fresh
				}
			}
			return token, nil
		}
		lastErr = err
		if attempt < maxAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("refresh auth token: %w", lastErr)
}

func staleToken(token *oauth2.Token) bool {
	return !token.Expiry.IsZero() && time.Until(token.Expiry) <= tokenRefreshLeeway
}

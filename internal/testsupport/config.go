package testsupport

import (
	"path/filepath"
	"testing"

	"airlog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Spotify.ClientID = "test-client"
	cfgVal.Spotify.ClientSecret = "test-secret"
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPlaylistID pins the config to a static target playlist.
func WithPlaylistID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Spotify.PlaylistID = id
	}
}

// WithScraperURL points the scraper at a test server.
func WithScraperURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scraper.URL = url
	}
}

// WithRefreshToken enables the mutating auth mode on the test config.
func WithRefreshToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Spotify.RefreshToken = token
	}
}

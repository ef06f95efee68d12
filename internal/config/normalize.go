package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpotify()
	c.normalizeScraper()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		c.Paths.ArchiveDir = defaultArchiveDir
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSpotify() {
	if c.Spotify.ClientID == "" {
		if value, ok := os.LookupEnv("SPOTIFY_ID"); ok {
			c.Spotify.ClientID = value
		}
	}
	if c.Spotify.ClientSecret == "" {
		if value, ok := os.LookupEnv("SPOTIFY_SECRET"); ok {
			c.Spotify.ClientSecret = value
		}
	}
	if c.Spotify.RefreshToken == "" {
		if value, ok := os.LookupEnv("SPOTIFY_REFRESH_TOKEN"); ok {
			c.Spotify.RefreshToken = value
		}
	}
	c.Spotify.PlaylistID = strings.TrimSpace(c.Spotify.PlaylistID)
	c.Spotify.SnapshotPrefix = strings.TrimSpace(c.Spotify.SnapshotPrefix)
	if c.Spotify.SnapshotPrefix == "" {
		c.Spotify.SnapshotPrefix = defaultSnapshotPrefix
	}
	if c.Spotify.RequestIntervalMS <= 0 {
		c.Spotify.RequestIntervalMS = defaultRequestIntervalMS
	}
	if c.Spotify.MaxInFlight <= 0 {
		c.Spotify.MaxInFlight = defaultMaxInFlight
	}
}

func (c *Config) normalizeScraper() {
	c.Scraper.URL = strings.TrimSpace(c.Scraper.URL)
	if c.Scraper.URL == "" {
		c.Scraper.URL = defaultScraperURL
	}
	if c.Scraper.RequestTimeout <= 0 {
		c.Scraper.RequestTimeout = defaultScraperTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.RunIntervalSeconds <= 0 {
		c.Workflow.RunIntervalSeconds = defaultRunInterval
	}
	if c.Research.TimeoutSeconds <= 0 {
		c.Research.TimeoutSeconds = defaultResearchTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Archive.DedupWindowSeconds < 0 {
		c.Archive.DedupWindowSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

const (
	defaultArchiveDir         = "~/.local/share/airlog/archive"
	defaultDataDir            = "~/.local/share/airlog"
	defaultLogDir             = "~/.local/share/airlog/logs"
	defaultScraperURL         = "https://www.wwoz.org/programs/playlists"
	defaultScraperTimeout     = 30
	defaultSnapshotPrefix     = "WWOZ"
	defaultRequestIntervalMS  = 600
	defaultMaxInFlight        = 2
	defaultConfidence         = 70.0
	defaultDedupWindowSeconds = 300
	defaultResearchTimeout    = 600
	defaultNotifyTimeout      = 10
	defaultRunInterval        = 900
	defaultLogFormat          = "text"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveDir: defaultArchiveDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Spotify: Spotify{
			SnapshotPrefix:    defaultSnapshotPrefix,
			RequestIntervalMS: defaultRequestIntervalMS,
			MaxInFlight:       defaultMaxInFlight,
		},
		Scraper: Scraper{
			URL:            defaultScraperURL,
			RequestTimeout: defaultScraperTimeout,
		},
		Matcher: Matcher{
			ConfidenceThreshold: defaultConfidence,
		},
		Archive: Archive{
			DedupWindowSeconds: defaultDedupWindowSeconds,
		},
		Research: Research{
			TimeoutSeconds: defaultResearchTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Workflow: Workflow{
			RunIntervalSeconds: defaultRunInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateResearch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/airlog/config.toml"
		}
		return fmt.Errorf("spotify.client_id and spotify.client_secret are required. Set SPOTIFY_ID/SPOTIFY_SECRET env vars or edit %s (create with 'airlog config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if c.Matcher.ConfidenceThreshold < 0 || c.Matcher.ConfidenceThreshold > 100 {
		return errors.New("matcher.confidence_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateResearch() error {
	if c.Research.Enabled && len(c.Research.Command) == 0 {
		return errors.New("research.command must be set when research.enabled is true")
	}
	return nil
}

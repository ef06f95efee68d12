package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"airlog/internal/archive"
	"airlog/internal/catalog"
	"airlog/internal/config"
	"airlog/internal/logging"
	"airlog/internal/notifications"
	"airlog/internal/pipeline"
	"airlog/internal/research"
	"airlog/internal/runlog"
	"airlog/internal/scrape"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "airlog.log")},
		})
	})
	return c.logger, c.loggerErr
}

// buildOrchestrator wires the full pipeline. The returned runlog store must
// be closed by the caller.
func (c *commandContext) buildOrchestrator(ctx context.Context) (*pipeline.Orchestrator, *runlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	runs, err := runlog.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	source := scrape.NewWWOZ(cfg.Scraper.URL,
		time.Duration(cfg.Scraper.RequestTimeout)*time.Second, logger)
	client := catalog.New(ctx, cfg, logger)
	store := archive.New(cfg.Paths.ArchiveDir, cfg.Scraper.URL,
		time.Duration(cfg.Archive.DedupWindowSeconds)*time.Second, logger)

	orchestrator := pipeline.New(cfg, pipeline.Deps{
		Source:   source,
		Catalog:  client,
		Archiver: store,
		Runs:     runs,
		Notifier: notifications.NewService(cfg),
		Research: research.New(cfg, logger),
		Logger:   logger,
	})
	return orchestrator, runs, nil
}

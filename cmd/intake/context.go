package main

import (
	"log/slog"
	"strings"
	"sync"

	"intake/internal/config"
	"intake/internal/content"
	"intake/internal/jobs"
	"intake/internal/logging"
	"intake/internal/runner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
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

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withStore opens the content store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *content.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}
	store, err := content.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store, logger)
}

// withService opens both stores and wires the batch runner for fn.
func (c *commandContext) withService(fn func(*config.Config, *content.Store, *runner.Service) error) error {
	return c.withStore(func(cfg *config.Config, store *content.Store, logger *slog.Logger) error {
		jobStore, err := jobs.Open(cfg)
		if err != nil {
			return err
		}
		defer jobStore.Close()
		return fn(cfg, store, runner.New(cfg, jobStore, store, logger))
	})
}

// withJobs opens only the job store for fn.
func (c *commandContext) withJobs(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	jobStore, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer jobStore.Close()
	return fn(jobStore)
}

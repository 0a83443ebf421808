package main

import (
	"strings"
	"sync"

	"voicetovision/internal/config"
	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
)

type commandContext struct {
	configFlag *string
	userFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
	}
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

func (c *commandContext) user() string {
	if c.userFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.userFlag)
}

// openStore builds a quiet store for one-shot CLI commands. The caller
// closes it.
func (c *commandContext) openStore() (*ideas.Store, *logging.Audit, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	audit, err := logging.NewAudit(cfg.System.LogDir)
	if err != nil {
		return nil, nil, err
	}

	store, err := ideas.Open(cfg, logging.NewNop(), audit)
	if err != nil {
		return nil, nil, err
	}
	return store, audit, nil
}

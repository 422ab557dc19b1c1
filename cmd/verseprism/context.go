package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/verseprism/internal/config"
	"github.com/CaptShanks/verseprism/internal/history"
	"github.com/CaptShanks/verseprism/internal/logging"
	"github.com/CaptShanks/verseprism/internal/tui"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

// ensureConfig loads configuration once and wires it into the logging,
// history and tui packages.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}

		if v := flagValue(c.logLevelFlag); v != "" {
			cfg.Logging.Level = v
		}
		if v := flagValue(c.logFormatFlag); v != "" {
			cfg.Logging.Format = v
		}
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			c.configErr = err
			return
		}
		format, err := logging.ParseFormat(cfg.Logging.Format)
		if err != nil {
			c.configErr = err
			return
		}
		logging.Init(level, format, cmd.ErrOrStderr())

		history.Dir = cfg.History.Dir
		history.MaxHistoryFiles = cfg.History.MaxEntries
		tui.ApplyTheme(cfg.UI.Theme)

		c.config = cfg
	})
	return c.config, c.configErr
}

// updateVersion returns the version used for update checks, or "" when
// checks are disabled.
func (c *commandContext) updateVersion() string {
	if c.config != nil && c.config.Update.SkipCheck {
		return ""
	}
	return version
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

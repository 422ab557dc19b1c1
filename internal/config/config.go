// Package config loads verseprism settings from defaults, an optional TOML
// file and VERSEPRISM_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultURL is the GRETIL plaintext of the Ashtavakra Gita
	DefaultURL = "https://gretil.sub.uni-goettingen.de/gretil/corpustei/transformations/plaintext/sa_aSTAvakragItA.txt"
	// DefaultOutputPath is where extracted verses are written when no path is given
	DefaultOutputPath = "verses.json"

	defaultConfigPath = "~/.config/verseprism/config.toml"
)

// Source selects the default text source.
type Source struct {
	URL  string `toml:"url"`
	File string `toml:"file"`
}

// Parser holds the verse marker convention.
type Parser struct {
	Prefix      string `toml:"prefix"`
	StartMarker string `toml:"start_marker"`
}

// Output holds the default destination.
type Output struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

// Fetch holds URL retrieval settings.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// History holds run history settings.
type History struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxEntries int    `toml:"max_entries"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Update holds self-update check settings.
type Update struct {
	SkipCheck    bool `toml:"skip_check"`
	IntervalDays int  `toml:"interval_days"`
}

// UI holds terminal appearance settings.
type UI struct {
	Theme string `toml:"theme"` // "", "light" or "dark"
}

// Config encapsulates all configuration values for verseprism.
type Config struct {
	Source  Source  `toml:"source"`
	Parser  Parser  `toml:"parser"`
	Output  Output  `toml:"output"`
	Fetch   Fetch   `toml:"fetch"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
	Update  Update  `toml:"update"`
	UI      UI      `toml:"ui"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: Source{
			URL: DefaultURL,
		},
		Parser: Parser{
			Prefix:      "Avg",
			StartMarker: "# Text",
		},
		Output: Output{
			Path:   DefaultOutputPath,
			Format: "",
		},
		Fetch: Fetch{
			TimeoutSeconds: 30,
			UserAgent:      "verseprism",
		},
		History: History{
			Enabled:    true,
			Dir:        "~/.verseprism",
			MaxEntries: 50,
		},
		Logging: Logging{
			Level:  "warn",
			Format: "text",
		},
		Update: Update{
			IntervalDays: 7,
		},
	}
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads path (or the default location when path is empty), applies
// environment overrides and validates the result. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	explicit := path != ""
	var resolved string
	var err error
	if explicit {
		resolved, err = ExpandPath(path)
	} else {
		resolved, err = DefaultConfigPath()
	}
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		resolved = ""
	default:
		return nil, "", fmt.Errorf("open config: %w", err)
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolved, nil
}

// FetchTimeout returns the retrieval timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// applyEnv overlays VERSEPRISM_* variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("VERSEPRISM_URL"); v != "" {
		c.Source.URL = v
	}
	if v := getenv("VERSEPRISM_OUTPUT"); v != "" {
		c.Output.Path = v
	}
	if v := getenv("VERSEPRISM_PREFIX"); v != "" {
		c.Parser.Prefix = v
	}
	if v := getenv("VERSEPRISM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("VERSEPRISM_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv("VERSEPRISM_HOME"); v != "" {
		c.History.Dir = v
	}
	if IsTruthy(getenv("VERSEPRISM_NO_HISTORY")) {
		c.History.Enabled = false
	}
	if IsTruthy(getenv("VERSEPRISM_SKIP_UPDATE_CHECK")) {
		c.Update.SkipCheck = true
	}
	if v := getenv("VERSEPRISM_UPDATE_CHECK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Update.IntervalDays = n
		}
	}
}

func (c *Config) normalize() error {
	c.Parser.Prefix = strings.TrimSpace(c.Parser.Prefix)
	c.Parser.StartMarker = strings.TrimSpace(c.Parser.StartMarker)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if c.Source.File != "" {
		p, err := ExpandPath(c.Source.File)
		if err != nil {
			return err
		}
		c.Source.File = p
	}
	if c.History.Dir != "" {
		p, err := ExpandPath(c.History.Dir)
		if err != nil {
			return err
		}
		c.History.Dir = p
	}
	return nil
}

// IsTruthy reports whether s is one of 1, true, yes, on.
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

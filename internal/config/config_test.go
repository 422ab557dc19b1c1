package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"VERSEPRISM_URL", "VERSEPRISM_OUTPUT", "VERSEPRISM_PREFIX", "VERSEPRISM_LOG_LEVEL",
		"VERSEPRISM_THEME", "VERSEPRISM_HOME", "VERSEPRISM_NO_HISTORY",
		"VERSEPRISM_SKIP_UPDATE_CHECK", "VERSEPRISM_UPDATE_CHECK_INTERVAL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	home := isolateHome(t)

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultURL, cfg.Source.URL)
	assert.Equal(t, "Avg", cfg.Parser.Prefix)
	assert.Equal(t, "# Text", cfg.Parser.StartMarker)
	assert.Equal(t, DefaultOutputPath, cfg.Output.Path)
	assert.Equal(t, filepath.Join(home, ".verseprism"), cfg.History.Dir)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
}

func TestLoadExplicitFile(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[parser]
prefix = "BhG"

[output]
path = "out/gita.db"
format = "SQLite"

[fetch]
timeout_seconds = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, resolved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "BhG", cfg.Parser.Prefix)
	assert.Equal(t, "# Text", cfg.Parser.StartMarker)
	assert.Equal(t, "sqlite", cfg.Output.Format)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
}

func TestLoadDefaultLocation(t *testing.T) {
	home := isolateHome(t)
	want := filepath.Join(home, ".config", "verseprism", "config.toml")

	got, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, os.MkdirAll(filepath.Dir(want), 0o755))
	require.NoError(t, os.WriteFile(want, []byte("[ui]\ntheme = \"light\"\n"), 0o644))

	cfg, resolved, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, want, resolved)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateHome(t)
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[parser]\nprefx = \"x\"\n"), 0o644))

	_, _, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("VERSEPRISM_PREFIX", "Ram")
	t.Setenv("VERSEPRISM_NO_HISTORY", "yes")
	t.Setenv("VERSEPRISM_THEME", "Light")
	t.Setenv("VERSEPRISM_UPDATE_CHECK_INTERVAL", "14")

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Ram", cfg.Parser.Prefix)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 14, cfg.Update.IntervalDays)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Parser.Prefix = "A vg"
	cfg.Output.Format = "xml"
	cfg.Fetch.TimeoutSeconds = 0
	cfg.Source.URL = "ftp://example.org/x.txt"

	err := cfg.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	for _, field := range []string{"parser.prefix", "output.format", "fetch.timeout_seconds", "source.url"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "no", "off"} {
		assert.False(t, IsTruthy(v), v)
	}
}

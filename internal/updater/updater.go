// Package updater checks GitHub releases for newer verseprism builds and
// replaces the running binary on request.
package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

const (
	repoSlug         = "CaptShanks/verseprism"
	installScriptURL = "https://raw.githubusercontent.com/CaptShanks/verseprism/main/install.sh"

	// DefaultIntervalDays is the default number of days between update checks
	DefaultIntervalDays = 7

	skipEnv     = "VERSEPRISM_SKIP_UPDATE_CHECK"
	intervalEnv = "VERSEPRISM_UPDATE_CHECK_INTERVAL"
	homeEnv     = "VERSEPRISM_HOME"
	cacheFile   = "update-check"
)

// Status is the outcome of an update check
type Status struct {
	Latest    string
	HasUpdate bool
	Cached    bool
}

// detectLatest is swapped out in tests
var detectLatest = func() (string, bool, error) {
	latest, found, err := selfupdate.DetectLatest(repoSlug)
	if err != nil || !found {
		return "", false, err
	}
	return latest.Version.String(), true, nil
}

// CheckLatest asks GitHub for the newest release and compares it with currentVersion.
// Development builds ("dev" or other non-semver strings) never report an update.
func CheckLatest(currentVersion string) (Status, error) {
	latestVersion, found, err := detectLatest()
	if err != nil || !found {
		return Status{}, err
	}
	latestVersion = normalizeVersion(latestVersion)

	hasUpdate, err := newer(latestVersion, currentVersion)
	if err != nil {
		return Status{Latest: latestVersion}, err
	}
	return Status{Latest: latestVersion, HasUpdate: hasUpdate}, nil
}

func newer(latest, current string) (bool, error) {
	latestSemver, err := semver.Parse(normalizeVersion(latest))
	if err != nil {
		return false, err
	}
	currentSemver, err := semver.Parse(normalizeVersion(current))
	if err != nil {
		return false, err
	}
	return latestSemver.GT(currentSemver), nil
}

// Upgrade replaces the current binary with the latest release.
// On success returns the new version. On failure returns an error suitable for displaying
// the curl fallback command.
func Upgrade(currentVersion string) (newVersion string, err error) {
	v, err := semver.Parse(normalizeVersion(currentVersion))
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", currentVersion, err)
	}

	latest, err := selfupdate.UpdateSelf(v, repoSlug)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

// CurlFallbackMessage returns the message to display when self-update fails.
func CurlFallbackMessage(reason error) string {
	return fmt.Sprintf(`Self-update failed: %v
To upgrade manually, run:
  curl -sSfL %s | sh`, reason, installScriptURL)
}

func normalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}

type updateCache struct {
	LastCheckEpoch int64  `json:"last_check_epoch"`
	LatestVersion  string `json:"latest_version,omitempty"`
	CheckedFor     string `json:"checked_for,omitempty"`
	HasUpdate      bool   `json:"has_update"`
}

// cachePath returns the path to the update check cache file.
func cachePath() (string, error) {
	dir := strings.TrimSpace(os.Getenv(homeEnv))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".verseprism")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFile), nil
}

// CheckLatestWithCache checks for updates at most once per intervalDays.
// A cached answer is reused only when it was computed for currentVersion.
func CheckLatestWithCache(currentVersion string, intervalDays int) (Status, error) {
	if intervalDays <= 0 {
		intervalDays = DefaultIntervalDays
	}
	interval := time.Duration(intervalDays) * 24 * time.Hour

	path, err := cachePath()
	if err != nil {
		return CheckLatest(currentVersion)
	}

	if data, err := os.ReadFile(path); err == nil {
		var cache updateCache
		if json.Unmarshal(data, &cache) == nil && cache.CheckedFor == currentVersion {
			if time.Since(time.Unix(cache.LastCheckEpoch, 0)) < interval {
				return Status{Latest: cache.LatestVersion, HasUpdate: cache.HasUpdate, Cached: true}, nil
			}
		}
	}

	status, err := CheckLatest(currentVersion)
	if err != nil {
		return Status{}, err
	}

	cache := updateCache{
		LastCheckEpoch: time.Now().Unix(),
		LatestVersion:  status.Latest,
		CheckedFor:     currentVersion,
		HasUpdate:      status.HasUpdate,
	}
	if data, err := json.Marshal(cache); err == nil {
		_ = os.WriteFile(path, data, 0644)
	}

	return status, nil
}

// IsSkipUpdateCheck reports whether VERSEPRISM_SKIP_UPDATE_CHECK is set.
func IsSkipUpdateCheck() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(skipEnv)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// UpdateCheckIntervalDays returns VERSEPRISM_UPDATE_CHECK_INTERVAL, or fallback
// when unset or invalid.
func UpdateCheckIntervalDays(fallback int) int {
	if fallback <= 0 {
		fallback = DefaultIntervalDays
	}
	v := strings.TrimSpace(os.Getenv(intervalEnv))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

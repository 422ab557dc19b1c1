package updater

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubDetect(t *testing.T, version string, err error) *int {
	t.Helper()
	calls := 0
	orig := detectLatest
	detectLatest = func() (string, bool, error) {
		calls++
		if err != nil {
			return "", false, err
		}
		return version, true, nil
	}
	t.Cleanup(func() { detectLatest = orig })
	return &calls
}

func TestCurlFallbackMessage(t *testing.T) {
	msg := CurlFallbackMessage(os.ErrPermission)
	if !strings.Contains(msg, "Self-update failed") {
		t.Errorf("expected message to contain 'Self-update failed', got: %s", msg)
	}
	if !strings.Contains(msg, "curl") {
		t.Errorf("expected message to contain 'curl', got: %s", msg)
	}
	if !strings.Contains(msg, "verseprism/main/install.sh") {
		t.Errorf("expected message to point at the verseprism install script, got: %s", msg)
	}
}

func TestIsSkipUpdateCheck(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on"} {
		t.Setenv(skipEnv, v)
		if !IsSkipUpdateCheck() {
			t.Errorf("IsSkipUpdateCheck() should be true for %q", v)
		}
	}

	t.Setenv(skipEnv, "0")
	if IsSkipUpdateCheck() {
		t.Error("IsSkipUpdateCheck() should be false for '0'")
	}
	t.Setenv(skipEnv, "")
	if IsSkipUpdateCheck() {
		t.Error("IsSkipUpdateCheck() should be false when empty")
	}
}

func TestUpdateCheckIntervalDays(t *testing.T) {
	t.Setenv(intervalEnv, "")
	if got := UpdateCheckIntervalDays(0); got != DefaultIntervalDays {
		t.Errorf("default interval should be %d, got %d", DefaultIntervalDays, got)
	}
	if got := UpdateCheckIntervalDays(3); got != 3 {
		t.Errorf("fallback interval should be 3, got %d", got)
	}

	t.Setenv(intervalEnv, "14")
	if got := UpdateCheckIntervalDays(3); got != 14 {
		t.Errorf("interval should be 14, got %d", got)
	}

	t.Setenv(intervalEnv, "invalid")
	if got := UpdateCheckIntervalDays(0); got != DefaultIntervalDays {
		t.Errorf("invalid interval should fall back to %d, got %d", DefaultIntervalDays, got)
	}
}

func TestCheckLatest(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
		wantErr bool
	}{
		{"1.2.0", "1.1.9", true, false},
		{"v1.2.0", "v1.2.0", false, false},
		{"1.2.0", "2.0.0", false, false},
		{"1.2.0", "dev", false, true},
	}
	for _, tt := range tests {
		stubDetect(t, tt.latest, nil)
		st, err := CheckLatest(tt.current)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckLatest(%q) err = %v", tt.current, err)
			continue
		}
		if st.HasUpdate != tt.want {
			t.Errorf("CheckLatest(%q) against %q = %v, want %v", tt.current, tt.latest, st.HasUpdate, tt.want)
		}
		if !strings.HasPrefix(st.Latest, "1.2.0") {
			t.Errorf("latest version should be normalized, got %q", st.Latest)
		}
	}
}

func TestCheckLatestWithCache(t *testing.T) {
	t.Setenv(homeEnv, t.TempDir())
	calls := stubDetect(t, "2.0.0", nil)

	first, err := CheckLatestWithCache("1.0.0", 7)
	if err != nil {
		t.Fatalf("CheckLatestWithCache failed: %v", err)
	}
	if !first.HasUpdate || first.Cached {
		t.Errorf("first check should hit the API, got %+v", first)
	}

	second, err := CheckLatestWithCache("1.0.0", 7)
	if err != nil {
		t.Fatalf("CheckLatestWithCache failed: %v", err)
	}
	if !second.Cached || second.Latest != "2.0.0" {
		t.Errorf("second check should come from cache, got %+v", second)
	}
	if *calls != 1 {
		t.Errorf("expected 1 API call, got %d", *calls)
	}

	// A different running version invalidates the cache
	if _, err := CheckLatestWithCache("2.0.0", 7); err != nil {
		t.Fatalf("CheckLatestWithCache failed: %v", err)
	}
	if *calls != 2 {
		t.Errorf("expected 2 API calls, got %d", *calls)
	}
}

func TestCheckLatestWithCacheError(t *testing.T) {
	t.Setenv(homeEnv, t.TempDir())
	boom := errors.New("rate limited")
	stubDetect(t, "", boom)

	if _, err := CheckLatestWithCache("1.0.0", 7); !errors.Is(err, boom) {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(homeEnv, dir)
	path, err := cachePath()
	if err != nil {
		t.Fatalf("cachePath failed: %v", err)
	}
	if path != filepath.Join(dir, cacheFile) {
		t.Errorf("cachePath = %s", path)
	}
}

package version

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIsNewerThan(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.0", true},
		{"1.0.0", "1.1.0", false},
		{"1.1.0", "1.1.0", false},
		{"2.0.0", "1.9.9", true},
		{"v0.3.0", "0.2.9", true},
		{"invalid", "1.0.0", false},
		{"1.0.0", "invalid", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := isNewerThan(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewerThan(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestLoadSaveCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "update_check.json")

	if _, ok := loadUpdateCacheFrom(path); ok {
		t.Fatal("expected cache miss for nonexistent file")
	}

	saveUpdateCacheTo(path, "me/cardboard", "1.2.0", "1.1.0")

	cache, ok := loadUpdateCacheFrom(path)
	if !ok {
		t.Fatal("expected cache hit after save")
	}
	if cache.LatestVersion != "1.2.0" || cache.CheckedVersion != "1.1.0" || cache.Repo != "me/cardboard" {
		t.Errorf("unexpected cache %+v", cache)
	}
}

func TestCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update_check.json")

	data, _ := json.Marshal(updateCache{
		Repo:           "me/cardboard",
		LatestVersion:  "1.2.0",
		CheckedVersion: "1.1.0",
		Timestamp:      time.Now().Add(-25 * time.Hour),
	})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := loadUpdateCacheFrom(path); ok {
		t.Fatal("expected cache miss for stale entry")
	}
}

func TestCheckForUpdate_FromCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update_check.json")
	saveUpdateCacheTo(path, "me/cardboard", "1.2.0", "1.1.0")

	if got := checkForUpdate("1.1.0", "me/cardboard", path); got != "1.2.0" {
		t.Errorf("expected cached newer version, got %q", got)
	}

	saveUpdateCacheTo(path, "me/cardboard", "1.1.0", "1.1.0")
	if got := checkForUpdate("1.1.0", "me/cardboard", path); got != "" {
		t.Errorf("expected no update, got %q", got)
	}
}

func TestCheckForUpdate_Skipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update_check.json")
	if got := checkForUpdate("dev", "me/cardboard", path); got != "" {
		t.Errorf("expected empty result for dev build, got %q", got)
	}
	if got := checkForUpdate("1.0.0", "", path); got != "" {
		t.Errorf("expected empty result without a repo, got %q", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("skipped checks should not write a cache")
	}
}

func TestLoadCacheFrom_EmptyPath(t *testing.T) {
	if _, ok := loadUpdateCacheFrom(""); ok {
		t.Fatal("expected cache miss for empty path")
	}
}

func TestSaveCacheTo_EmptyPath(t *testing.T) {
	// Should not panic
	saveUpdateCacheTo("", "me/cardboard", "1.0.0", "1.0.0")
}

func TestLoadCacheFrom_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update_check.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := loadUpdateCacheFrom(path); ok {
		t.Fatal("expected cache miss for invalid JSON")
	}
}

func TestVersionStrings(t *testing.T) {
	if !strings.HasPrefix(GetVersionString(), "cardboard dev") {
		t.Errorf("GetVersionString() = %q", GetVersionString())
	}
	if !GetBuildInfo().IsDev() {
		t.Error("test binary should be a dev build")
	}
	if ua := UserAgent(); !strings.HasPrefix(ua, "cardboard/dev (") {
		t.Errorf("UserAgent() = %q", ua)
	}
}

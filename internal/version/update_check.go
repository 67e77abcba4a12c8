package version

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	semver "github.com/Masterminds/semver/v3"
	selfupdate "github.com/creativeprojects/go-selfupdate"

	"cardboard/internal/logger"
)

const (
	updateCheckTTL  = 24 * time.Hour
	updateCacheFile = "update_check.json"
	checksumsFile   = "checksums.txt"
)

// UpdateCheckResult holds the outcome of a background update check.
type UpdateCheckResult struct {
	NewVersion string // empty means no update available (or check skipped/failed)
}

type updateCache struct {
	Repo           string    `json:"repo"`
	LatestVersion  string    `json:"latest_version"`
	CheckedVersion string    `json:"checked_version"` // version that was running when we last checked
	Timestamp      time.Time `json:"timestamp"`
}

// NewUpdater returns a GitHub release updater that verifies checksums.
func NewUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create release source: %w", err)
	}
	return selfupdate.NewUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: checksumsFile},
	})
}

// DetectLatest finds the newest release of repo ("owner/name") for this platform.
func DetectLatest(ctx context.Context, repo string) (*selfupdate.Release, bool, error) {
	updater, err := NewUpdater()
	if err != nil {
		return nil, false, err
	}
	return updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
}

// StartUpdateCheck launches a background goroutine that checks repo for a
// newer release. The channel receives exactly one result.
func StartUpdateCheck(repo string) <-chan UpdateCheckResult {
	ch := make(chan UpdateCheckResult, 1)
	go func() {
		defer close(ch)
		ch <- UpdateCheckResult{NewVersion: checkForUpdate(GetShortVersion(), repo, updateCachePath())}
	}()
	return ch
}

func checkForUpdate(current, repo, cachePath string) string {
	if current == "dev" || repo == "" {
		return ""
	}

	// The cache only answers for the version and repo it was written under.
	if cache, ok := loadUpdateCacheFrom(cachePath); ok && cache.CheckedVersion == current && cache.Repo == repo {
		if isNewerThan(cache.LatestVersion, current) {
			return cache.LatestVersion
		}
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	latest, found, err := DetectLatest(ctx, repo)
	if err != nil || !found {
		logger.Debug("update check for %s: found=%v err=%v", repo, found, err)
		// Cache current version so we don't hammer GitHub when offline
		saveUpdateCacheTo(cachePath, repo, current, current)
		return ""
	}

	latestVer := latest.Version()
	saveUpdateCacheTo(cachePath, repo, latestVer, current)

	if latest.LessOrEqual(current) {
		return ""
	}
	return latestVer
}

func isNewerThan(latest, current string) bool {
	lv, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	cv, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return lv.GreaterThan(cv)
}

func updateCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "cardboard", updateCacheFile)
}

func loadUpdateCacheFrom(path string) (updateCache, bool) {
	if path == "" {
		return updateCache{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return updateCache{}, false
	}

	var cache updateCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return updateCache{}, false
	}

	if time.Since(cache.Timestamp) > updateCheckTTL {
		return updateCache{}, false
	}
	return cache, true
}

func saveUpdateCacheTo(path, repo, latestVersion, checkedVersion string) {
	if path == "" {
		return
	}

	data, err := json.Marshal(updateCache{
		Repo:           repo,
		LatestVersion:  latestVersion,
		CheckedVersion: checkedVersion,
		Timestamp:      time.Now(),
	})
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

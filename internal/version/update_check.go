package version

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/bytedance/sonic"
	selfupdate "github.com/creativeprojects/go-selfupdate"
)

const (
	checkTTL     = 24 * time.Hour
	checkTimeout = 5 * time.Second
	cacheFile    = "update_check.json"
	releaseSlug  = "kanban-board/kanban"
)

// Notice is delivered once per run by StartCheck.
type Notice struct {
	Latest string // empty when up to date or the check was skipped
}

type cacheEntry struct {
	Latest    string    `json:"latest_version"`
	CheckedAt string    `json:"checked_version"`
	Timestamp time.Time `json:"timestamp"`
}

// StartCheck looks for a newer release in the background.
func StartCheck() <-chan Notice {
	ch := make(chan Notice, 1)
	go func() {
		defer close(ch)
		ch <- Notice{Latest: latestFor(Version, cachePath())}
	}()
	return ch
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
}

func latestFor(current, cache string) string {
	if current == "dev" || current == "" {
		return ""
	}

	// A cache written by an older binary is ignored so an upgrade is noticed immediately.
	if latest, checked, ok := loadCache(cache); ok && checked == current {
		if Newer(latest, current) {
			return latest
		}
		return ""
	}

	updater, err := newUpdater()
	if err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	release, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil || !found {
		saveCache(cache, current, current)
		return ""
	}
	saveCache(cache, release.Version(), current)
	if release.LessOrEqual(current) {
		return ""
	}
	return release.Version()
}

// Update replaces the running binary with the latest release and returns
// the version installed, or "" when already current.
func Update(ctx context.Context) (string, error) {
	if IsDev() {
		return "", fmt.Errorf("development builds cannot self-update; install a release")
	}
	updater, err := newUpdater()
	if err != nil {
		return "", err
	}
	release, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return "", fmt.Errorf("checking for releases: %w", err)
	}
	if !found || release.LessOrEqual(Version) {
		return "", nil
	}
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if err := updater.UpdateTo(ctx, release, exe); err != nil {
		return "", fmt.Errorf("installing %s: %w", release.Version(), err)
	}
	saveCache(cachePath(), release.Version(), release.Version())
	return release.Version(), nil
}

// Newer reports whether latest is a strictly greater semver than current.
func Newer(latest, current string) bool {
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

func cachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "kanban", cacheFile)
}

func loadCache(path string) (string, string, bool) {
	if path == "" {
		return "", "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", false
	}
	var entry cacheEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return "", "", false
	}
	if time.Since(entry.Timestamp) > checkTTL {
		return "", "", false
	}
	return entry.Latest, entry.CheckedAt, true
}

func saveCache(path, latest, checked string) {
	if path == "" {
		return
	}
	data, err := sonic.Marshal(cacheEntry{Latest: latest, CheckedAt: checked, Timestamp: time.Now()})
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	_ = os.WriteFile(path, data, 0644)
}

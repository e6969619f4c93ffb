package version

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.0", true},
		{"v1.2.0", "1.1.0", true},
		{"1.0.0", "1.1.0", false},
		{"1.1.0", "1.1.0", false},
		{"2.0.0", "1.9.9", true},
		{"invalid", "1.0.0", false},
		{"1.0.0", "invalid", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Newer(tt.latest, tt.current); got != tt.want {
			t.Errorf("Newer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", cacheFile)

	if _, _, ok := loadCache(path); ok {
		t.Fatal("expected cache miss for nonexistent file")
	}

	saveCache(path, "1.2.0", "1.1.0")

	latest, checked, ok := loadCache(path)
	if !ok {
		t.Fatal("expected cache hit after save")
	}
	if latest != "1.2.0" || checked != "1.1.0" {
		t.Errorf("got (%q, %q), want (1.2.0, 1.1.0)", latest, checked)
	}
}

func TestCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), cacheFile)
	data, _ := sonic.Marshal(cacheEntry{
		Latest:    "1.2.0",
		CheckedAt: "1.1.0",
		Timestamp: time.Now().Add(-checkTTL - time.Hour),
	})
	os.WriteFile(path, data, 0644)

	if _, _, ok := loadCache(path); ok {
		t.Fatal("expected cache miss for stale entry")
	}
}

func TestLatestForUsesFreshCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), cacheFile)

	saveCache(path, "1.2.0", "1.1.0")
	if got := latestFor("1.1.0", path); got != "1.2.0" {
		t.Errorf("latestFor = %q, want 1.2.0 from cache", got)
	}

	saveCache(path, "1.1.0", "1.1.0")
	if got := latestFor("1.1.0", path); got != "" {
		t.Errorf("latestFor = %q, want empty when cache says current", got)
	}
}

func TestLatestForDevBuild(t *testing.T) {
	if got := latestFor("dev", ""); got != "" {
		t.Errorf("expected empty result for dev build, got %q", got)
	}
}

func TestCacheEmptyPathAndBadJSON(t *testing.T) {
	saveCache("", "1.0.0", "1.0.0")
	if _, _, ok := loadCache(""); ok {
		t.Fatal("expected cache miss for empty path")
	}

	path := filepath.Join(t.TempDir(), cacheFile)
	os.WriteFile(path, []byte("not json"), 0644)
	if _, _, ok := loadCache(path); ok {
		t.Fatal("expected cache miss for invalid JSON")
	}
}

func TestString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "dev"
	if s := String(); !strings.HasPrefix(s, "kanban dev") || !IsDev() {
		t.Errorf("dev banner = %q", s)
	}
	Version = "1.4.0"
	if s := String(); !strings.Contains(s, "kanban 1.4.0") || IsDev() {
		t.Errorf("release banner = %q", s)
	}
	if Info().Platform == "" {
		t.Error("platform should be set")
	}
}

func TestUpdateRefusesDevBuild(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()
	Version = "dev"
	if _, err := Update(context.Background()); err == nil {
		t.Error("expected dev build to refuse self-update")
	}
}

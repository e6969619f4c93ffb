package usercfg

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"kanban/internal/errors"
)

// ErrNotConfigured is returned when no config file exists.
var ErrNotConfigured = fmt.Errorf("kanban is not configured; run: kanban setup")

// IsConfigured returns true if a config file exists or the server URL is set in the environment.
func IsConfigured() bool {
	if os.Getenv("KANBAN_SERVER_URL") != "" {
		return true
	}
	for _, p := range []string{Path(), LegacyPath()} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

type Config struct {
	SchemaVersion  int           `toml:"schema_version,omitempty"`
	ServerURL      string        `toml:"server_url"`
	ListenAddr     string        `toml:"listen_addr"`
	Username       string        `toml:"username,omitempty"`
	PollInterval   string        `toml:"poll_interval"`
	RequestTimeout string        `toml:"request_timeout"`
	Seed           *bool         `toml:"seed"`
	UIPrefs        UIPreferences `toml:"ui_prefs,omitempty"`
}

type UIPreferences struct {
	LastFilter      string `toml:"last_filter,omitempty"`
	FuzzySearch     bool   `toml:"fuzzy_search,omitempty"`
	ShowExtraFields bool   `toml:"show_extra_fields,omitempty"`
	LastSelectedCol int    `toml:"last_selected_col,omitempty"`
	LastSelectedRow int    `toml:"last_selected_row,omitempty"`
}

const CurrentSchemaVersion = 2

func Path() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	// XDG-compliant path: ~/.config/kanban/config.toml
	return filepath.Join(homeDir, ".config", "kanban", "config.toml")
}

func LegacyPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	// Single-file location used before the config directory existed
	return filepath.Join(homeDir, ".config", "kanban.toml")
}

// locate returns the config file to read and whether it is the legacy one.
func locate() (string, bool, error) {
	configPath := Path()
	legacyPath := LegacyPath()
	if configPath == "" || legacyPath == "" {
		return "", false, fmt.Errorf("unable to determine home directory")
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath, false, nil
	}
	if _, err := os.Stat(legacyPath); err == nil {
		return legacyPath, true, nil
	}
	return "", false, ErrNotConfigured
}

func Load() (Config, error) {
	actualPath, warnLegacy, err := locate()
	if err == ErrNotConfigured {
		return getDefaults(), ErrNotConfigured
	}
	if err != nil {
		return getDefaults(), errors.NewConfigError("load", err)
	}

	var config Config
	if _, err := toml.DecodeFile(actualPath, &config); err != nil {
		return getDefaults(), errors.NewConfigError("load", fmt.Errorf("failed to decode config file: %v", err))
	}

	// Warn about legacy path usage (once per load)
	if warnLegacy {
		fmt.Fprintf(os.Stderr, "Warning: Using legacy config path %s. Consider moving to %s\n", actualPath, Path())
	}

	// Apply migrations if needed
	migratedConfig := migrateConfig(config)

	return mergeWithDefaults(migratedConfig), nil
}

func Save(config Config) error {
	configPath := Path()
	if configPath == "" {
		return fmt.Errorf("unable to determine home directory")
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}

	return nil
}

func GetRuntimeConfig() Config {
	config, err := Load()
	if err != nil && err != ErrNotConfigured {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		config = getDefaults()
	}

	// Apply environment variable overlays
	return applyEnvOverlays(config)
}

func mergeWithDefaults(config Config) Config {
	defaults := getDefaults()

	// Always ensure we have the current schema version
	config.SchemaVersion = CurrentSchemaVersion

	if config.ServerURL == "" {
		config.ServerURL = defaults.ServerURL
	}
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.PollInterval == "" {
		config.PollInterval = defaults.PollInterval
	}
	if config.RequestTimeout == "" {
		config.RequestTimeout = defaults.RequestTimeout
	}

	// Seed defaults to true when not explicitly set
	if config.Seed == nil {
		config.Seed = defaults.Seed
	}

	return config
}

// Poll returns the board refresh interval. Zero disables polling; an
// unparseable value falls back to the default.
func (c Config) Poll() time.Duration {
	return parseDuration(c.PollInterval, DefaultPollInterval)
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	d := parseDuration(c.RequestTimeout, DefaultRequestTimeout)
	if d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// SeedEnabled reports whether `kanban serve` starts with the starter board.
func (c Config) SeedEnabled() bool {
	return c.Seed == nil || *c.Seed
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// Validate lists problems `kanban config doctor` should report.
func (c Config) Validate() []string {
	var problems []string
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("server_url %q is not an http(s) URL", c.ServerURL))
	}
	if c.ListenAddr == "" || !strings.Contains(c.ListenAddr, ":") {
		problems = append(problems, fmt.Sprintf("listen_addr %q must be host:port or :port", c.ListenAddr))
	}
	for name, v := range map[string]string{"poll_interval": c.PollInterval, "request_timeout": c.RequestTimeout} {
		if v == "" || v == "0" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("%s %q is not a duration like 10s", name, v))
		}
	}
	return problems
}

// applyEnvOverlays applies environment variable overlays to the config
func applyEnvOverlays(config Config) Config {
	// KANBAN_SERVER_URL: board server API base
	if v := os.Getenv("KANBAN_SERVER_URL"); v != "" {
		config.ServerURL = strings.TrimSpace(v)
	}

	// KANBAN_LISTEN_ADDR: where `kanban serve` listens
	if v := os.Getenv("KANBAN_LISTEN_ADDR"); v != "" {
		config.ListenAddr = strings.TrimSpace(v)
	}

	// KANBAN_USER: owner recorded on new cards
	if v := os.Getenv("KANBAN_USER"); v != "" {
		config.Username = strings.TrimSpace(v)
	}

	// KANBAN_POLL_INTERVAL: board refresh interval
	if v := os.Getenv("KANBAN_POLL_INTERVAL"); v != "" {
		config.PollInterval = strings.TrimSpace(v)
	}

	return config
}

// migrateConfig performs in-memory migration of config from older schema versions
func migrateConfig(config Config) Config {
	originalVersion := config.SchemaVersion

	// Version 0 had no schema_version field; the structure is compatible
	if originalVersion == 0 {
		config.SchemaVersion = 1
	}

	// Version 1 stored poll_interval as bare seconds
	if config.SchemaVersion == 1 {
		if v := strings.TrimSpace(config.PollInterval); v != "" && v != "0" {
			if _, err := time.ParseDuration(v); err != nil {
				config.PollInterval = v + "s"
			}
		}
		config.SchemaVersion = 2
	}

	if originalVersion != config.SchemaVersion && originalVersion != 0 {
		fmt.Fprintf(os.Stderr, "Info: Migrated config from schema version %d to %d\n", originalVersion, config.SchemaVersion)
	}

	return config
}

// MigrateAndSave loads the config, applies migrations, and saves it back to disk
// This is used by the `kanban config migrate` command
func MigrateAndSave() error {
	actualPath, _, err := locate()
	if err == ErrNotConfigured {
		return fmt.Errorf("no config file found to migrate")
	}
	if err != nil {
		return err
	}

	var rawConfig Config
	if _, err := toml.DecodeFile(actualPath, &rawConfig); err != nil {
		return fmt.Errorf("failed to decode config file: %v", err)
	}

	originalVersion := rawConfig.SchemaVersion
	if originalVersion == CurrentSchemaVersion {
		return fmt.Errorf("config is already at current schema version %d", CurrentSchemaVersion)
	}

	// Now apply the full Load() process which includes migration and merging
	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load config for migration: %v", err)
	}

	// Save the migrated config
	err = Save(config)
	if err != nil {
		return fmt.Errorf("failed to save migrated config: %v", err)
	}

	fmt.Printf("Successfully migrated config from schema version %d to %d\n", originalVersion, config.SchemaVersion)
	return nil
}

// SaveUIPrefs saves only the UI preferences to the config file
// This is lightweight and can be called frequently without impacting other config values
func SaveUIPrefs(prefs UIPreferences) error {
	config, err := Load()
	if err != nil {
		// Create a minimal config holding only the preferences
		config = Config{SchemaVersion: CurrentSchemaVersion}
	}

	config.UIPrefs = prefs
	return Save(config)
}

// GetUIPrefs returns the current UI preferences from the runtime config
func GetUIPrefs() UIPreferences {
	// Allow ignoring UI prefs via env for troubleshooting
	if os.Getenv("KANBAN_IGNORE_UI_PREFS") == "1" {
		return UIPreferences{}
	}
	config := GetRuntimeConfig()
	return config.UIPrefs
}

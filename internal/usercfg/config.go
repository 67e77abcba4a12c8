package usercfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cardboard/internal/errors"
	"github.com/BurntSushi/toml"
)

// ErrNotConfigured is returned when no config file exists.
var ErrNotConfigured = fmt.Errorf("cardboard is not configured; run: cardboard setup")

// IsConfigured returns true if a config file exists or the base URL is set in the environment.
func IsConfigured() bool {
	if os.Getenv("CARDBOARD_BASE_URL") != "" {
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
	SchemaVersion         int           `toml:"schema_version,omitempty"`
	BaseURL               string        `toml:"base_url"`
	WebURL                string        `toml:"web_url,omitempty"`
	RequestTimeoutSeconds int           `toml:"request_timeout_seconds,omitempty"`
	FetchRetries          *int          `toml:"fetch_retries,omitempty"`
	PollIntervalSeconds   *int          `toml:"poll_interval_seconds,omitempty"`
	SequenceTimeoutMs     int           `toml:"sequence_timeout_ms,omitempty"`
	Markdown              *bool         `toml:"markdown,omitempty"`
	UpdateRepo            string        `toml:"update_repo,omitempty"`
	UIPrefs               UIPreferences `toml:"ui_prefs,omitempty"`
}

type UIPreferences struct {
	LastCategory string `toml:"last_category,omitempty"`
	ShowTags     bool   `toml:"show_tags,omitempty"`
	ShowIDs      bool   `toml:"show_ids,omitempty"`
}

// Schema 1 carried a single `server` key holding the host and port; schema 2
// replaced it with the full base_url.
const CurrentSchemaVersion = 2

func Path() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "cardboard", "config.toml")
}

func LegacyPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "cardboard.toml")
}

// rawConfig is what a file of any schema version may contain.
type rawConfig struct {
	Config
	Server string `toml:"server,omitempty"`
}

// locate returns the config file to read, preferring the XDG path.
func locate() (path string, legacy bool, err error) {
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
	path, legacy, err := locate()
	if err == ErrNotConfigured {
		return getDefaults(), ErrNotConfigured
	}
	if err != nil {
		return getDefaults(), errors.NewConfigError("load", err)
	}

	var raw rawConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return getDefaults(), errors.NewConfigError("load", fmt.Errorf("failed to decode config file: %v", err))
	}

	if legacy {
		fmt.Fprintf(os.Stderr, "Warning: Using legacy config path %s. Consider moving to %s\n", LegacyPath(), Path())
	}

	return mergeWithDefaults(migrateConfig(raw)), nil
}

func Save(config Config) error {
	configPath := Path()
	if configPath == "" {
		return fmt.Errorf("unable to determine home directory")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
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
	return applyEnvOverlays(config)
}

func mergeWithDefaults(config Config) Config {
	d := getDefaults()
	config.SchemaVersion = CurrentSchemaVersion
	if config.BaseURL == "" {
		config.BaseURL = d.BaseURL
	}
	if config.RequestTimeoutSeconds <= 0 {
		config.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
	if config.FetchRetries == nil {
		config.FetchRetries = d.FetchRetries
	}
	if config.PollIntervalSeconds == nil {
		config.PollIntervalSeconds = d.PollIntervalSeconds
	}
	if config.SequenceTimeoutMs <= 0 {
		config.SequenceTimeoutMs = d.SequenceTimeoutMs
	}
	if config.Markdown == nil {
		config.Markdown = d.Markdown
	}
	if config.UpdateRepo == "" {
		config.UpdateRepo = d.UpdateRepo
	}
	return config
}

// RequestTimeout returns the per-request HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Retries returns how many times an idempotent fetch is retried.
func (c Config) Retries() int {
	if c.FetchRetries == nil || *c.FetchRetries < 0 {
		return 0
	}
	return *c.FetchRetries
}

// PollInterval returns the periodic refetch interval; zero disables polling.
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds == nil || *c.PollIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(*c.PollIntervalSeconds) * time.Second
}

// SequenceTimeout returns how long a partial key sequence waits.
func (c Config) SequenceTimeout() time.Duration {
	return time.Duration(c.SequenceTimeoutMs) * time.Millisecond
}

// MarkdownEnabled reports whether card text is rendered as markdown.
func (c Config) MarkdownEnabled() bool {
	return c.Markdown == nil || *c.Markdown
}

// BoardWebURL returns the web UI address, derived from the API base URL
// when not set.
func (c Config) BoardWebURL() string {
	if c.WebURL != "" {
		return c.WebURL
	}
	return strings.TrimSuffix(strings.TrimRight(c.BaseURL, "/"), "/api")
}

func applyEnvOverlays(config Config) Config {
	if v := os.Getenv("CARDBOARD_BASE_URL"); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv("CARDBOARD_WEB_URL"); v != "" {
		config.WebURL = v
	}
	// CARDBOARD_POLL_INTERVAL: seconds, 0 disables polling
	if v := os.Getenv("CARDBOARD_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			config.PollIntervalSeconds = &n
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring CARDBOARD_POLL_INTERVAL=%q\n", v)
		}
	}
	return config
}

// migrateConfig performs in-memory migration of config from older schema versions.
func migrateConfig(raw rawConfig) Config {
	config := raw.Config
	originalVersion := config.SchemaVersion

	if originalVersion < 1 {
		// Version 0 files predate schema_version; the layout matches version 1.
		config.SchemaVersion = 1
	}
	if originalVersion < 2 {
		if config.BaseURL == "" && raw.Server != "" {
			config.BaseURL = serverToBaseURL(raw.Server)
		}
		config.SchemaVersion = 2
	}

	if originalVersion != config.SchemaVersion && originalVersion != 0 {
		fmt.Fprintf(os.Stderr, "Info: Migrated config from schema version %d to %d\n", originalVersion, config.SchemaVersion)
	}
	return config
}

func serverToBaseURL(server string) string {
	server = strings.TrimRight(server, "/")
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	if !strings.HasSuffix(server, "/api") {
		server += "/api"
	}
	return server
}

// MigrateAndSave loads the config, applies migrations, and saves it back to disk.
// This is used by the `cardboard config migrate` command.
func MigrateAndSave() error {
	path, _, err := locate()
	if err == ErrNotConfigured {
		return fmt.Errorf("no config file found to migrate")
	}
	if err != nil {
		return err
	}

	var raw rawConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("failed to decode config file: %v", err)
	}

	originalVersion := raw.SchemaVersion
	if originalVersion == CurrentSchemaVersion {
		return fmt.Errorf("config is already at current schema version %d", CurrentSchemaVersion)
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load config for migration: %v", err)
	}
	if err := Save(config); err != nil {
		return fmt.Errorf("failed to save migrated config: %v", err)
	}

	fmt.Printf("Successfully migrated config from schema version %d to %d\n", originalVersion, config.SchemaVersion)
	return nil
}

// SaveUIPrefs saves only the UI preferences to the config file.
func SaveUIPrefs(prefs UIPreferences) error {
	config, err := Load()
	if err != nil {
		config = Config{SchemaVersion: CurrentSchemaVersion}
	}
	config.UIPrefs = prefs
	return Save(config)
}

// GetUIPrefs returns the current UI preferences from the runtime config.
func GetUIPrefs() UIPreferences {
	if os.Getenv("CARDBOARD_IGNORE_UI_PREFS") == "1" {
		return UIPreferences{}
	}
	return GetRuntimeConfig().UIPrefs
}

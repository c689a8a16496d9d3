package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BOOKMARKS_"

// Config holds all configuration options for the bookmarks tool
type Config struct {
	// Browser capture session
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// Persistent store
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// HTTP surface used by `bookmarks serve`
	Server ServerConfig `yaml:"server" json:"server"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CaptureConfig controls the browser capture session
type CaptureConfig struct {
	TargetURL        string        `yaml:"target_url" json:"target_url"`
	MatchPatterns    []string      `yaml:"match_patterns" json:"match_patterns"`
	IdleThreshold    time.Duration `yaml:"idle_threshold" json:"idle_threshold"`
	NudgeInterval    time.Duration `yaml:"nudge_interval" json:"nudge_interval"`
	ScrollDelta      float64       `yaml:"scroll_delta" json:"scroll_delta"`
	OutputDirectory  string        `yaml:"output_directory" json:"output_directory"`
	OutputFile       string        `yaml:"output_file" json:"output_file"`
	DumpSample       bool          `yaml:"dump_sample" json:"dump_sample"`
	AppendOutput     bool          `yaml:"append_output" json:"append_output"`
	WaitForSignal    bool          `yaml:"wait_for_signal" json:"wait_for_signal"`
	ProfileDirectory string        `yaml:"profile_directory" json:"profile_directory"`
	BrowserBin       string        `yaml:"browser_bin" json:"browser_bin"`
	RemoteURL        string        `yaml:"remote_url" json:"remote_url"`
	Headless         bool          `yaml:"headless" json:"headless"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DatabasePath string        `yaml:"database_path" json:"database_path"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string        `yaml:"address" json:"address"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// IngestPerMinute caps accepted ingestion batches; 0 disables the cap
	IngestPerMinute int `yaml:"ingest_per_minute" json:"ingest_per_minute"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
	Quiet  bool   `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			TargetURL:        "https://x.com/i/bookmarks",
			MatchPatterns:    []string{"/graphql", "bookmark"},
			IdleThreshold:    8 * time.Second,
			NudgeInterval:    1500 * time.Millisecond,
			ScrollDelta:      20000,
			OutputDirectory:  "./out",
			OutputFile:       "bookmarks.ndjson",
			DumpSample:       true,
			AppendOutput:     false,
			WaitForSignal:    true,
			ProfileDirectory: ".browser-profile",
			Headless:         false,
		},
		Storage: StorageConfig{
			DatabasePath: "./data/bookmarks.db",
			BusyTimeout:  10 * time.Second,
		},
		Server: ServerConfig{
			Address:      "127.0.0.1:3000",
			MaxBodyBytes: 64 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,

			IngestPerMinute: 120,
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from BOOKMARKS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(envPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(envPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	// Capture
	setString("TARGET_URL", &c.Capture.TargetURL)
	setDuration("IDLE_THRESHOLD", &c.Capture.IdleThreshold)
	setDuration("NUDGE_INTERVAL", &c.Capture.NudgeInterval)
	setString("OUTPUT_DIR", &c.Capture.OutputDirectory)
	setString("OUTPUT_FILE", &c.Capture.OutputFile)
	setString("PROFILE_DIR", &c.Capture.ProfileDirectory)
	setString("BROWSER_BIN", &c.Capture.BrowserBin)
	setString("REMOTE_URL", &c.Capture.RemoteURL)
	setBool("HEADLESS", &c.Capture.Headless)
	if patterns := os.Getenv(envPrefix + "MATCH_PATTERNS"); patterns != "" {
		c.Capture.MatchPatterns = splitList(patterns)
	}

	// Storage
	setString("DB_PATH", &c.Storage.DatabasePath)

	// Server
	setString("SERVER_ADDR", &c.Server.Address)

	// Notifications
	setBool("NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)

	// Logging
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)
	setString("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".bookmarks.yaml",
		".bookmarks.yml",
		filepath.Join(home, ".config", "bookmarks", "config.yaml"),
		filepath.Join(home, ".config", "bookmarks", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// OutputPath returns the NDJSON capture file path
func (c *Config) OutputPath() string {
	return filepath.Join(c.Capture.OutputDirectory, c.Capture.OutputFile)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Capture
	if c.Capture.TargetURL == "" {
		errs = append(errs, errors.New("capture target URL is required"))
	}
	if len(c.Capture.MatchPatterns) == 0 {
		errs = append(errs, errors.New("at least one response match pattern is required"))
	}
	if c.Capture.IdleThreshold <= 0 {
		errs = append(errs, errors.New("idle threshold must be positive"))
	}
	if c.Capture.NudgeInterval <= 0 {
		errs = append(errs, errors.New("nudge interval must be positive"))
	}
	if c.Capture.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Capture.OutputFile == "" {
		errs = append(errs, errors.New("output file name is required"))
	}

	// Storage
	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Storage.BusyTimeout < 0 {
		errs = append(errs, errors.New("busy timeout cannot be negative"))
	}

	// Server
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}
	if c.Server.IngestPerMinute < 0 {
		errs = append(errs, errors.New("ingest per minute cannot be negative"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys are the long flag names; zero values are ignored.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Capture.OutputDirectory = v
	}
	if v, ok := flags["output-file"].(string); ok && v != "" {
		c.Capture.OutputFile = v
	}
	if v, ok := flags["target-url"].(string); ok && v != "" {
		c.Capture.TargetURL = v
	}
	if v, ok := flags["idle-threshold"].(time.Duration); ok && v > 0 {
		c.Capture.IdleThreshold = v
	}
	if v, ok := flags["nudge-interval"].(time.Duration); ok && v > 0 {
		c.Capture.NudgeInterval = v
	}
	if v, ok := flags["profile-dir"].(string); ok && v != "" {
		c.Capture.ProfileDirectory = v
	}
	if v, ok := flags["remote-url"].(string); ok && v != "" {
		c.Capture.RemoteURL = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Capture.Headless = v
	}
	if v, ok := flags["append"].(bool); ok {
		c.Capture.AppendOutput = v
	}
	if v, ok := flags["no-sample"].(bool); ok && v {
		c.Capture.DumpSample = false
	}
	if v, ok := flags["no-wait"].(bool); ok && v {
		c.Capture.WaitForSignal = false
	}
	if v, ok := flags["db"].(string); ok && v != "" {
		c.Storage.DatabasePath = v
	}
	if v, ok := flags["addr"].(string); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["quiet"].(bool); ok {
		c.Logging.Quiet = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bookmarks.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for foodwaste.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Sources    SourcesConfig    `toml:"sources"`
	Reports    ReportsConfig    `toml:"reports"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Encryption EncryptionConfig `toml:"encryption"`
	Logging    LoggingConfig    `toml:"logging"`
}

// DatabaseConfig represents configuration for the relational store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// SourcesConfig locates the four CSV sources. Each name is a
// case-insensitive glob matched against files in Dir.
type SourcesConfig struct {
	Dir          string `toml:"dir"`
	Providers    string `toml:"providers"`
	Receivers    string `toml:"receivers"`
	FoodListings string `toml:"food_listings"`
	Claims       string `toml:"claims"`
}

// ReportsConfig controls report generation.
type ReportsConfig struct {
	Formats      []string   `toml:"formats"` // "csv" and/or "xlsx"
	TopLocations int        `toml:"top_locations"`
	Sink         SinkConfig `toml:"sink"`
}

// WantsFormat reports whether format is enabled.
func (r ReportsConfig) WantsFormat(format string) bool {
	return slices.Contains(r.Formats, format)
}

// SinkConfig represents configuration for the artifact destination.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SinkConfig struct {
	Type string `toml:"type"` // "filesystem", "s3" or "memory"

	// FileSystem-specific fields (only used when Type == "filesystem")
	Dir string `toml:"dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible services; enables path-style addressing
}

// DashboardConfig configures the web dashboard.
type DashboardConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// EncryptionConfig holds paths to the age key pair used for snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// LoggingConfig controls the log level and log file rotation.
type LoggingConfig struct {
	Level      string `toml:"level"` // "debug", "info", "warn" or "error"
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// SlogLevel parses Level. An empty level is info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown logging level: %q", l.Level)
	}
	return level, nil
}

// NewConfig creates a Config rooted at baseDir with default values.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "food_wastage.db"),
		},
		Sources: SourcesConfig{
			Dir:          filepath.Join(baseDir, "data"),
			Providers:    "providers*.csv",
			Receivers:    "receivers*.csv",
			FoodListings: "food[ _]listings*.csv",
			Claims:       "claims*.csv",
		},
		Reports: ReportsConfig{
			Formats:      []string{"csv"},
			TopLocations: 5,
			Sink: SinkConfig{
				Type: "filesystem",
				Dir:  filepath.Join(baseDir, "reports"),
			},
		},
		Dashboard: DashboardConfig{
			Addr: "127.0.0.1:8501",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "foodwaste.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "foodwaste.key"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Validate checks the tagged unions and required fields.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path required for sqlite database")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}

	switch c.Reports.Sink.Type {
	case "filesystem":
		if c.Reports.Sink.Dir == "" {
			return fmt.Errorf("reports.sink.dir required for filesystem sink")
		}
	case "s3":
		if c.Reports.Sink.S3Bucket == "" {
			return fmt.Errorf("reports.sink.s3_bucket required for s3 sink")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown sink type: %q", c.Reports.Sink.Type)
	}

	if len(c.Reports.Formats) == 0 {
		return fmt.Errorf("reports.formats must name at least one format")
	}
	for _, f := range c.Reports.Formats {
		if f != "csv" && f != "xlsx" {
			return fmt.Errorf("unknown report format: %q", f)
		}
	}
	if c.Reports.TopLocations < 0 {
		return fmt.Errorf("reports.top_locations must not be negative")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

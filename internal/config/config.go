package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a project directory.
const FileName = "projectie.yaml"

// Store backends.
const (
	StoreCSV  = "csv"
	StoreBolt = "bolt"
)

// Config represents the top-level projectie.yaml configuration.
type Config struct {
	DataDir         string           `yaml:"data_dir"`
	Store           string           `yaml:"store"`
	Timezone        string           `yaml:"timezone"`
	OpeningBalance  string           `yaml:"opening_balance"`
	SelectedAccount string           `yaml:"selected_account,omitempty"`
	LogLevel        string           `yaml:"log_level"`
	Recurrence      RecurrenceConfig `yaml:"recurrence"`
	Archive         ArchiveConfig    `yaml:"archive"`
	Git             GitConfig        `yaml:"git"`
}

// ArchiveConfig controls the sweep that splits past occurrences off
// recurring transactions.
type ArchiveConfig struct {
	// OnStart runs the sweep in the background on every command.
	OnStart bool `yaml:"on_start"`
}

// RecurrenceConfig bounds recurrence expansion when a transaction has no
// explicit end.
type RecurrenceConfig struct {
	MaxOccurrences int `yaml:"max_occurrences"`
}

// GitConfig controls versioning of the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(*Config, string){
	"PROJECTIE_DATA_DIR":        func(c *Config, v string) { c.DataDir = v },
	"PROJECTIE_STORE":           func(c *Config, v string) { c.Store = v },
	"PROJECTIE_TIMEZONE":        func(c *Config, v string) { c.Timezone = v },
	"PROJECTIE_OPENING_BALANCE": func(c *Config, v string) { c.OpeningBalance = v },
	"PROJECTIE_LOG_LEVEL":       func(c *Config, v string) { c.LogLevel = v },
}

// Load reads a projectie.yaml file from disk, then applies a .env file next
// to it (if any) and PROJECTIE_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Update rewrites the file at path with fn applied. Environment overrides
// are not applied, so they never leak into the file.
func Update(path string, fn func(*Config)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	fn(cfg)
	return Save(path, cfg)
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		DataDir:        "data",
		Store:          StoreCSV,
		Timezone:       "Local",
		OpeningBalance: "0",
		LogLevel:       "info",
		Recurrence: RecurrenceConfig{
			MaxOccurrences: 10000,
		},
		Archive: ArchiveConfig{
			OnStart: true,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Projectie",
			AuthorEmail: "projectie@localhost",
		},
	}
}

// ApplyEnv overrides fields from PROJECTIE_* environment variables.
func (c *Config) ApplyEnv() {
	for key, set := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			set(c, v)
		}
	}
}

// Validate checks that the config values can be used.
func (c *Config) Validate() error {
	if c.Store != StoreCSV && c.Store != StoreBolt {
		return fmt.Errorf("invalid store %q: want %q or %q", c.Store, StoreCSV, StoreBolt)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Opening(); err != nil {
		return err
	}
	if c.Recurrence.MaxOccurrences < 0 {
		return fmt.Errorf("invalid recurrence.max_occurrences %d", c.Recurrence.MaxOccurrences)
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Opening parses the balance assumed before an account's first reset.
func (c *Config) Opening() (decimal.Decimal, error) {
	if c.OpeningBalance == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.OpeningBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid opening_balance %q: %w", c.OpeningBalance, err)
	}
	return d, nil
}

// DataPath resolves DataDir against the project root.
func (c *Config) DataPath(root string) string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(root, c.DataDir)
}

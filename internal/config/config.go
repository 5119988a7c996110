// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/barosave

// Package config loads barosave CLI configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the BAROSAVE_CONFIG environment variable. There is no automatic discovery;
// without a file the defaults apply. Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "BAROSAVE_CONFIG"

// Default values.
const (
	DefaultWorkDir    = "./tmp"
	DefaultBackupKeep = 1
	DefaultLogLevel   = "info"
)

// Config is the CLI configuration.
type Config struct {
	// WorkDir holds the import/ working directory and backup.save.
	WorkDir string `yaml:"work_dir"`

	// BackupKeep is number of backup generations kept on export.
	// Zero disables backups.
	BackupKeep *int `yaml:"backup_keep,omitempty"`

	// CompressionLevel is gzip level used on export (zero means library default).
	CompressionLevel int `yaml:"compression_level,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Exclude lists gitignore-like patterns of working files left out on export.
	Exclude []string `yaml:"exclude,omitempty"`

	// SanitizeNames rewrites unsafe entry names on import instead of failing.
	SanitizeNames bool `yaml:"sanitize_names,omitempty"`
}

// Default returns configuration with default values.
func Default() *Config {
	keep := DefaultBackupKeep
	return &Config{
		WorkDir:    DefaultWorkDir,
		BackupKeep: &keep,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads configuration from path, or from BAROSAVE_CONFIG when path is empty.
// With neither set, Default is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration over defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return errors.New("work_dir must not be empty")
	}

	if c.BackupKeep != nil && *c.BackupKeep < 0 {
		return fmt.Errorf("backup_keep must not be negative, got %d", *c.BackupKeep)
	}

	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be in [-2, 9], got %d", c.CompressionLevel)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// Backups returns effective backup generation count.
func (c *Config) Backups() int {
	if c.BackupKeep == nil {
		return DefaultBackupKeep
	}

	return *c.BackupKeep
}

// ParseLogLevel maps a level name to slog level. Empty means info.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Package config loads the optional TOML configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/utils"
)

type Config struct {
	Timezone string        `toml:"timezone"`
	Storage  StorageConfig `toml:"storage"`
	Scoring  ScoringConfig `toml:"scoring"`
	Backup   BackupConfig  `toml:"backup"`
	Log      LogConfig     `toml:"log"`
}

type StorageConfig struct {
	Backend constants.StorageBackend `toml:"backend"`
	// Path is the data file for json/sqlite. Empty means the default under the config directory.
	Path string `toml:"path"`
}

type ScoringConfig struct {
	StreakMilestone int `toml:"streak_milestone"`
	StreakBonus     int `toml:"streak_bonus"`
}

type BackupConfig struct {
	Auto       bool `toml:"auto"`
	MaxBackups int  `toml:"max_backups"`
}

type LogConfig struct {
	Debug bool `toml:"debug"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Timezone: constants.DefaultTimezone,
		Storage: StorageConfig{
			Backend: constants.DefaultBackend,
		},
		Scoring: ScoringConfig{
			StreakMilestone: constants.DefaultStreakMilestone,
			StreakBonus:     constants.DefaultStreakBonus,
		},
		Backup: BackupConfig{
			Auto:       constants.DefaultAutoBackup,
			MaxBackups: constants.MaxBackups,
		},
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case constants.BackendJSON, constants.BackendSQLite, constants.BackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.Scoring.StreakMilestone < 1 {
		return fmt.Errorf("scoring.streak_milestone must be at least 1, got %d", c.Scoring.StreakMilestone)
	}
	if c.Scoring.StreakBonus < 0 {
		return fmt.Errorf("scoring.streak_bonus must not be negative, got %d", c.Scoring.StreakBonus)
	}
	if c.Backup.MaxBackups < 1 {
		return fmt.Errorf("backup.max_backups must be at least 1, got %d", c.Backup.MaxBackups)
	}
	return nil
}

// DataPath resolves the data file for file-backed backends.
func (c Config) DataPath(configDir string) string {
	if c.Storage.Path != "" {
		return ExpandPath(c.Storage.Path)
	}
	if c.Storage.Backend == constants.BackendSQLite {
		return filepath.Join(configDir, constants.DefaultSQLiteFile)
	}
	return filepath.Join(configDir, constants.DefaultDataFile)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

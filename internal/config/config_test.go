package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habithouse/internal/constants"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
timezone = "America/New_York"

[storage]
backend = "sqlite"

[scoring]
streak_bonus = 10
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Storage.Backend != constants.BackendSQLite {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Scoring.StreakBonus != 10 {
		t.Errorf("StreakBonus = %d, want 10", cfg.Scoring.StreakBonus)
	}
	if cfg.Scoring.StreakMilestone != constants.DefaultStreakMilestone {
		t.Errorf("StreakMilestone = %d, want default", cfg.Scoring.StreakMilestone)
	}
	if !cfg.Backup.Auto {
		t.Error("Backup.Auto should keep its default")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad backend", "[storage]\nbackend = \"redis\"\n", "unknown storage backend"},
		{"bad timezone", "timezone = \"Mars/Olympus\"\n", "invalid timezone"},
		{"zero milestone", "[scoring]\nstreak_milestone = 0\n", "streak_milestone"},
		{"unknown key", "colour = \"blue\"\n", "failed to parse"},
		{"malformed", "timezone = \n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Timezone = "UTC"
	cfg.Backup.MaxBackups = 3
	cfg.Log.Debug = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestDataPath(t *testing.T) {
	dir := "/cfg"
	cfg := Default()
	if got := cfg.DataPath(dir); got != filepath.Join(dir, constants.DefaultDataFile) {
		t.Errorf("json DataPath = %q", got)
	}

	cfg.Storage.Backend = constants.BackendSQLite
	if got := cfg.DataPath(dir); got != filepath.Join(dir, constants.DefaultSQLiteFile) {
		t.Errorf("sqlite DataPath = %q", got)
	}

	cfg.Storage.Path = "/elsewhere/db.sqlite"
	if got := cfg.DataPath(dir); got != "/elsewhere/db.sqlite" {
		t.Errorf("explicit DataPath = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/x/y"); got != filepath.Join(home, "x/y") {
		t.Errorf("ExpandPath(~/x/y) = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habithouse/internal/backup"
	"github.com/julianstephens/habithouse/internal/config"
	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/keyring"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/internal/storage/postgres"
	"github.com/julianstephens/habithouse/internal/storage/sqlite"
	"github.com/julianstephens/habithouse/internal/tracker"
)

type Context struct {
	Tracker      *tracker.Tracker
	Store        storage.Provider
	Backups      *backup.Manager
	Config       config.Config
	ConfigDir    string
	ConfigPath   string
	StoreOptions StoreOptions

	// Out and In default to stdout and stdin when nil.
	Out io.Writer
	In  io.Reader
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) Print(args ...interface{}) {
	fmt.Fprint(c.out(), args...)
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// Confirm asks a y/N question on the context's input.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(c.in()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.Backups == nil || !c.Config.Backup.Auto {
		return
	}
	if _, err := c.Backups.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// BackupHook is installed on the tracker and runs before destructive
// operations. Failures abort the operation.
func (c *Context) BackupHook() error {
	if c.Backups == nil || !c.Config.Backup.Auto {
		return nil
	}
	if _, err := c.Backups.CreateBackup(); err != nil {
		return fmt.Errorf("automatic backup failed: %w", err)
	}
	return nil
}

// StoreOptions are the command-line overrides for store selection.
type StoreOptions struct {
	// Data overrides the data file path of file-backed backends.
	Data string
	// Database is a PostgreSQL connection string; it selects the postgres backend.
	Database string
}

// NewStore selects the storage backend from the config and flags. A .db or
// .sqlite data path selects SQLite and a .json path selects the JSON store
// regardless of the configured backend.
func NewStore(cfg config.Config, configDir string, opts StoreOptions) (storage.Provider, error) {
	if opts.Database != "" || cfg.Storage.Backend == constants.BackendPostgres {
		connStr, source, err := keyring.ResolveConnectionString(opts.Database)
		if err != nil {
			return nil, err
		}
		// Passwords are accepted only from the keyring
		if err := postgres.ValidateConnString(connStr); err != nil {
			if !(errors.Is(err, postgres.ErrEmbeddedCredentials) && source == keyring.SourceKeyring) {
				return nil, err
			}
		}
		logger.Debug("Using PostgreSQL store", "source", source)
		return postgres.New(connStr), nil
	}

	path := cfg.DataPath(configDir)
	backend := cfg.Storage.Backend
	if opts.Data != "" {
		path = config.ExpandPath(opts.Data)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			backend = constants.BackendSQLite
		case ".json":
			backend = constants.BackendJSON
		}
	}

	if backend == constants.BackendSQLite {
		logger.Debug("Using SQLite store", "path", path)
		return sqlite.NewStore(path), nil
	}
	logger.Debug("Using JSON store", "path", path)
	return storage.NewJSONStore(path), nil
}

// NewBackupManager returns the backup manager for store under configDir.
func NewBackupManager(cfg config.Config, configDir string, store storage.Provider) *backup.Manager {
	return backup.NewManager(store, filepath.Join(configDir, constants.BackupDirName), cfg.Backup.MaxBackups)
}

// NewContext wires the store, backup manager and tracker for cfg.
func NewContext(cfg config.Config, configDir, configPath string, opts StoreOptions) (*Context, error) {
	store, err := NewStore(cfg, configDir, opts)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Store:        store,
		Config:       cfg,
		ConfigDir:    configDir,
		ConfigPath:   configPath,
		StoreOptions: opts,
	}
	ctx.Backups = NewBackupManager(cfg, configDir, store)

	tr, err := tracker.New(store, tracker.Options{
		Timezone:        cfg.Timezone,
		StreakMilestone: cfg.Scoring.StreakMilestone,
		StreakBonus:     cfg.Scoring.StreakBonus,
		Backup:          ctx.BackupHook,
	})
	if err != nil {
		return nil, err
	}
	ctx.Tracker = tr
	return ctx, nil
}

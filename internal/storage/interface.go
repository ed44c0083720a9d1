package storage

import (
	"errors"

	"github.com/julianstephens/habithouse/internal/models"
)

// ErrConflict is returned by Save when the stored document changed since it was loaded
var ErrConflict = errors.New("document was modified concurrently")

// Provider persists the household document as a whole.
type Provider interface {
	// Init prepares the backing store (directories, schema). Safe to call repeatedly.
	Init() error
	// Load returns the stored document. Absent, empty or unreadable content yields
	// a default document; only failures to reach the store are errors.
	Load() (*models.Document, error)
	// Save atomically replaces the stored document and bumps doc.Revision.
	Save(doc *models.Document) error
	Close() error

	// GetConfigPath identifies the store for diagnostics. Never contains secrets.
	GetConfigPath() string
}

// Locker is implemented by file-backed providers whose writers must be
// serialized across processes.
type Locker interface {
	LockPath() string
}

// Migrator is implemented by SQL providers with a versioned schema.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

// ArchiveIndexer is implemented by SQL providers that keep a table of
// archived leaderboard months alongside the document.
type ArchiveIndexer interface {
	ArchiveMonths() ([]string, error)
}

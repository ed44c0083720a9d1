package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/migration"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	return s.open()
}

func (s *Store) open() error {
	_, err := s.connect(func(msg string) { logger.Debug(msg) })
	return err
}

// connect opens the database and brings the schema up to date, returning the
// number of migrations applied. Repeated calls are no-ops.
func (s *Store) connect(logFn func(string)) (int, error) {
	if s.db != nil {
		return 0, nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return 0, fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps the revision check and the write on one handle
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to configure database: %w", err)
	}

	s.db = db
	runner, err := s.runner()
	if err == nil {
		var applied int
		applied, err = runner.Apply(logFn)
		if err == nil {
			return applied, nil
		}
	}
	s.db = nil
	db.Close()
	return 0, fmt.Errorf("failed to run migrations: %w", err)
}

// Migrate applies pending embedded migrations, reporting progress to logFn.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if s.db == nil {
		return s.connect(logFn)
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.Apply(logFn)
}

// SchemaVersion reports the applied and latest available schema versions.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	if err := s.open(); err != nil {
		return 0, 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	st, err := runner.Status()
	if err != nil {
		return 0, 0, err
	}
	return st.Current, st.Latest, nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DialectSQLite), nil
}

func (s *Store) Load() (*models.Document, error) {
	if err := s.open(); err != nil {
		return nil, err
	}

	var body string
	var revision int
	err := s.db.QueryRow("SELECT body, revision FROM documents WHERE id = 1").Scan(&body, &revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := storage.Decode([]byte(body), s.path)
	doc.Revision = revision
	return doc, nil
}

func (s *Store) Save(doc *models.Document) error {
	if err := s.open(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRow("SELECT revision FROM documents WHERE id = 1").Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read revision: %w", err)
	}
	if current != doc.Revision {
		return fmt.Errorf("%w: stored revision %d, loaded revision %d", storage.ErrConflict, current, doc.Revision)
	}

	next := *doc
	next.Revision = doc.Revision + 1
	body, err := storage.Encode(&next)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
		INSERT INTO documents (id, body, revision, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, revision = excluded.revision, updated_at = excluded.updated_at`,
		string(body), next.Revision, now)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if err := syncArchiveMonths(tx, doc.Leaderboard.PastRankings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	doc.Revision = next.Revision
	return nil
}

func syncArchiveMonths(tx *sql.Tx, archives []models.Archive) error {
	if _, err := tx.Exec("DELETE FROM archive_months"); err != nil {
		return fmt.Errorf("failed to clear archive index: %w", err)
	}
	for _, a := range archives {
		_, err := tx.Exec(
			"INSERT INTO archive_months (month, archived_at) VALUES (?, ?) ON CONFLICT(month) DO UPDATE SET archived_at = excluded.archived_at",
			a.Month, a.ArchivedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to index archive %s: %w", a.Month, err)
		}
	}
	return nil
}

// ArchiveMonths lists the archived leaderboard months, oldest first.
func (s *Store) ArchiveMonths() ([]string, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT month FROM archive_months ORDER BY month")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) LockPath() string {
	return s.path + constants.LockfileSuffix
}

// GetDB returns the underlying database connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

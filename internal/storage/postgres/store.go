package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/migration"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/migrations"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB
}

func New(connStr string) *Store {
	return &Store{
		connStr: withSearchPath(connStr, constants.AppName),
	}
}

// IsConnString reports whether s looks like a PostgreSQL URL rather than a file path.
func IsConnString(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

func isURL(connStr string) bool {
	return IsConnString(connStr)
}

// withSearchPath pins search_path to schema unless the caller already chose one.
func withSearchPath(connStr, schema string) string {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if dsnHasKey(connStr, "search_path") {
		return connStr
	}
	return strings.TrimSpace(connStr + " search_path=" + schema)
}

// dsnHasKey reports whether a key=value DSN (or URL query) sets key, case-insensitively.
func dsnHasKey(connStr, key string) bool {
	if isURL(connStr) {
		if u, err := url.Parse(connStr); err == nil {
			for k := range u.Query() {
				if strings.EqualFold(k, key) {
					return true
				}
			}
		}
		return false
	}
	for _, pair := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(pair, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return true
		}
	}
	return false
}

// ValidateConnString checks that connStr parses as a PostgreSQL URL or DSN
// and carries no password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
		}
		if _, set := u.User.Password(); set {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	if dsnHasKey(connStr, "password") {
		return ErrEmbeddedCredentials
	}
	return nil
}

func (s *Store) Init() error {
	_, err := s.connect(func(msg string) { logger.Debug(msg) })
	return err
}

func (s *Store) connect(logFn func(string)) (int, error) {
	if s.db != nil {
		return 0, nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(constants.SQLMaxOpenConns)
	db.SetMaxIdleConns(constants.SQLMaxOpenConns)
	db.SetConnMaxLifetime(constants.SQLConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !dsnHasKey(s.connStr, "sslmode") {
			return 0, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(constants.AppName)); err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to create schema: %w", err)
	}

	runner, err := runnerFor(db)
	if err != nil {
		db.Close()
		return 0, err
	}
	applied, err := runner.Apply(logFn)
	if err != nil {
		db.Close()
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	return applied, nil
}

// Migrate applies pending embedded migrations, reporting progress to logFn.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if s.db == nil {
		return s.connect(logFn)
	}
	runner, err := runnerFor(s.db)
	if err != nil {
		return 0, err
	}
	return runner.Apply(logFn)
}

// SchemaVersion reports the applied and latest available schema versions.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	if err := s.Init(); err != nil {
		return 0, 0, err
	}
	runner, err := runnerFor(s.db)
	if err != nil {
		return 0, 0, err
	}
	st, err := runner.Status()
	if err != nil {
		return 0, 0, err
	}
	return st.Current, st.Latest, nil
}

func runnerFor(db *sql.DB) (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(db, subFS, migration.DialectPostgres), nil
}

func (s *Store) Load() (*models.Document, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	var body []byte
	var revision int
	err := s.db.QueryRow("SELECT body, revision FROM documents WHERE id = 1").Scan(&body, &revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := storage.Decode(body, s.GetConfigPath())
	doc.Revision = revision
	return doc, nil
}

func (s *Store) Save(doc *models.Document) error {
	if err := s.Init(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRow("SELECT revision FROM documents WHERE id = 1 FOR UPDATE").Scan(&current)
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

	_, err = tx.Exec(`
		INSERT INTO documents (id, body, revision, updated_at) VALUES (1, $1::jsonb, $2, now())
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, revision = EXCLUDED.revision, updated_at = EXCLUDED.updated_at`,
		string(body), next.Revision)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM archive_months"); err != nil {
		return fmt.Errorf("failed to clear archive index: %w", err)
	}
	for _, a := range doc.Leaderboard.PastRankings {
		_, err := tx.Exec(
			"INSERT INTO archive_months (month, archived_at) VALUES ($1, $2) ON CONFLICT (month) DO UPDATE SET archived_at = EXCLUDED.archived_at",
			a.Month, a.ArchivedAt)
		if err != nil {
			return fmt.Errorf("failed to index archive %s: %w", a.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	doc.Revision = next.Revision
	return nil
}

// ArchiveMonths lists the archived leaderboard months, oldest first.
func (s *Store) ArchiveMonths() ([]string, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT month FROM archive_months ORDER BY month")
	if err != nil {
		return nil, fmt.Errorf("failed to read archive index: %w", err)
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

// GetConfigPath returns a non-sensitive identifier instead of the connection string.
func (s *Store) GetConfigPath() string {
	return "postgresql"
}

// Package backup keeps rotated snapshots of the habithouse store.
//
// SQLite databases are copied with VACUUM INTO, JSON data files are copied
// byte for byte, and any other provider (PostgreSQL) is snapshotted by
// exporting its document as JSON.
package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/internal/storage/sqlite"
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type kind int

const (
	kindJSON kind = iota
	kindSQLite
	kindSnapshot
)

func (k kind) suffix() string {
	if k == kindSQLite {
		return ".db"
	}
	return ".json"
}

// Manager handles backup operations
type Manager struct {
	store      storage.Provider
	kind       kind
	backupDir  string
	maxBackups int
	now        func() time.Time
}

// NewManager creates a backup manager for store writing into backupDir.
func NewManager(store storage.Provider, backupDir string, maxBackups int) *Manager {
	k := kindSnapshot
	switch store.(type) {
	case *storage.JSONStore:
		k = kindJSON
	case *sqlite.Store:
		k = kindSQLite
	}
	if maxBackups < 1 {
		maxBackups = constants.MaxBackups
	}
	return &Manager{
		store:      store,
		kind:       k,
		backupDir:  backupDir,
		maxBackups: maxBackups,
		now:        time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots the store and rotates old backups.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	switch m.kind {
	case kindSQLite:
		err = m.backupDatabase(backupPath)
	case kindJSON:
		err = m.backupFile(backupPath)
	default:
		err = m.backupSnapshot(backupPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to backup store: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	logger.Info("Backup created", "path", backupPath)
	return backupPath, nil
}

// nextBackupPath names the backup after the current minute, falling back to
// seconds and then a counter when that name is taken.
func (m *Manager) nextBackupPath() (string, error) {
	now := m.now()
	suffix := m.kind.suffix()
	candidate := func(stamp string) string {
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+suffix)
	}

	path := candidate(now.Format(constants.BackupTimestampFormat))
	if !exists(path) {
		return path, nil
	}

	stamp := now.Format(constants.BackupTimestampFormatSeconds)
	path = candidate(stamp)
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = candidate(fmt.Sprintf("%s-%d", stamp, counter))
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// backupDatabase copies the SQLite database with VACUUM INTO
func (m *Manager) backupDatabase(destPath string) error {
	srcPath := m.store.GetConfigPath()
	if !exists(srcPath) {
		return fmt.Errorf("database does not exist: %s", srcPath)
	}

	srcDB, err := sql.Open("sqlite", srcPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := srcDB.Exec("VACUUM INTO ?", destPath); err != nil {
		srcDB.Close()
		return copyFile(srcPath, destPath)
	}
	return nil
}

func (m *Manager) backupFile(destPath string) error {
	srcPath := m.store.GetConfigPath()
	if !exists(srcPath) {
		// Nothing saved yet; record the default document instead
		return m.backupSnapshot(destPath)
	}
	return copyFile(srcPath, destPath)
}

func (m *Manager) backupSnapshot(destPath string) error {
	doc, err := m.store.Load()
	if err != nil {
		return err
	}
	data, err := storage.Encode(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0600)
}

// ListBackups returns all backups, newest first
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type entry struct {
		info    BackupInfo
		counter int
	}
	var found []entry
	suffix := m.kind.suffix()

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, suffix) {
			continue
		}

		ts, counter, ok := parseBackupName(strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), suffix))
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		found = append(found, entry{
			info:    BackupInfo{Path: path, Timestamp: ts, Size: info.Size()},
			counter: counter,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].info.Timestamp.Equal(found[j].info.Timestamp) {
			return found[i].info.Timestamp.After(found[j].info.Timestamp)
		}
		return found[i].counter > found[j].counter
	})

	backups := make([]BackupInfo, len(found))
	for i, f := range found {
		backups[i] = f.info
	}
	return backups, nil
}

// parseBackupName accepts YYYYMMDD-HHMM, YYYYMMDD-HHMMSS and YYYYMMDD-HHMMSS-N.
func parseBackupName(stamp string) (time.Time, int, bool) {
	counter := 0
	parts := strings.Split(stamp, "-")
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, 0, false
		}
		counter = n
		stamp = parts[0] + "-" + parts[1]
	}

	for _, layout := range []string{constants.BackupTimestampFormat, constants.BackupTimestampFormatSeconds} {
		if ts, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			return ts, counter, true
		}
	}
	return time.Time{}, 0, false
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := m.maxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the store contents with the backup at backupPath.
// The current state is backed up first, outside rotation.
func (m *Manager) RestoreBackup(backupPath string) error {
	if !exists(backupPath) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	if err := m.verifyBackup(backupPath); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	current, err := m.createBackup(true)
	if err != nil {
		return fmt.Errorf("failed to backup current store before restore: %w", err)
	}
	logger.Info("Backed up current store before restore", "path", current)

	if m.kind == kindSnapshot {
		return m.restoreSnapshot(backupPath)
	}

	// Release the database handle before swapping the file underneath it
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	dataPath := m.store.GetConfigPath()
	tempPath := dataPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, dataPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore store: %w", err)
	}

	logger.Info("Store restored", "from", backupPath)
	return nil
}

func (m *Manager) restoreSnapshot(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return err
	}
	restored := storage.Decode(data, backupPath)

	current, err := m.store.Load()
	if err != nil {
		return err
	}
	restored.Revision = current.Revision
	if err := m.store.Save(restored); err != nil {
		return fmt.Errorf("failed to restore store: %w", err)
	}
	logger.Info("Store restored", "from", backupPath)
	return nil
}

// verifyBackup checks that the file is a readable database or document
func (m *Manager) verifyBackup(path string) error {
	if m.kind == kindSQLite {
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return err
		}
		defer db.Close()

		var count int
		return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc models.Document
	return json.Unmarshal(data, &doc)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

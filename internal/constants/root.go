package constants

import "time"

// Periodicity is the cadence a habit is tracked on
type Periodicity string

// StorageBackend selects the persistence adapter
type StorageBackend string

const (
	AppName            = "habithouse"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habithouse"
	DefaultConfigFile  = "config.toml"
	DefaultDataFile    = "data.json"
	DefaultSQLiteFile  = "habithouse.db"
	Version            = "v0.3.0"

	// EnvConnectionString overrides the PostgreSQL connection string
	EnvConnectionString = "HABITHOUSE_DB_CONNECTION"

	// Periodicity constants
	PeriodicityDaily  Periodicity = "daily"
	PeriodicityWeekly Periodicity = "weekly"

	// Storage backends
	BackendJSON     StorageBackend = "json"
	BackendSQLite   StorageBackend = "sqlite"
	BackendPostgres StorageBackend = "postgres"

	// Document schema version
	DocumentVersion = 2

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habithouse-"

	// Lock constants
	LockfileSuffix     = ".lock"
	LockTimeout        = 5 * time.Second
	LockPollInterval   = 50 * time.Millisecond
	SQLMaxOpenConns    = 10
	SQLConnMaxLifetime = 5 * time.Minute
)

package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat labels monthly leaderboard archives (YYYY-MM)
	MonthFormat = "2006-01"

	// WeekKeyFormat renders an ISO year and week number (e.g. 2024-W07)
	WeekKeyFormat = "%04d-W%02d"

	// BackupTimestampFormat is used in backup file names
	BackupTimestampFormat        = "20060102-1504"
	BackupTimestampFormatSeconds = "20060102-150405"
)

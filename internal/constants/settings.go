package constants

const (
	// Scoring defaults
	DefaultStreakMilestone = 7 // streak counts divisible by this earn the streak bonus
	DefaultStreakBonus     = 5

	// Streak reset thresholds in calendar days
	DailyResetThresholdDays  = 1
	WeeklyResetThresholdDays = 7

	// General defaults
	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultBackend    = BackendJSON
	DefaultAutoBackup = true
)

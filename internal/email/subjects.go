package email

const (
	subjectCriticalAlertFmt = "[%s] Critical dashboard alert: %s"
	subjectDegradedFmt      = "[%s] Dashboard running on partial data"
)

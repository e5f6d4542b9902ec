package analytics

import (
	"fmt"
	"time"

	"dashboard_backend/internal/dashboard/domain"
)

const (
	highDemandThreshold = 20
	milestoneThreshold  = 10
	overloadFactor      = 2
)

// GenerateAlerts evaluates every rule independently; several may fire.
// The informational contact alert is always last.
func GenerateAlerts(contacts, activeJobs, pendingTasks, completedJobs int, now time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0, 4)

	if pendingTasks > activeJobs*overloadFactor {
		alerts = append(alerts, domain.Alert{
			ID:        domain.AlertIDOverload,
			Type:      domain.AlertCritical,
			Title:     "Team overload",
			Message:   fmt.Sprintf("%d pending tasks against %d active jobs. The backlog is more than twice the active workload.", pendingTasks, activeJobs),
			Action:    "Reassign or close stale tasks",
			Timestamp: now,
		})
	}

	if activeJobs > highDemandThreshold {
		alerts = append(alerts, domain.Alert{
			ID:        domain.AlertIDHighDemand,
			Type:      domain.AlertWarning,
			Title:     "High demand",
			Message:   fmt.Sprintf("%d jobs are active. Check crew capacity before booking more work.", activeJobs),
			Action:    "Review crew schedule",
			Timestamp: now,
		})
	}

	if completedJobs > milestoneThreshold {
		alerts = append(alerts, domain.Alert{
			ID:        domain.AlertIDMilestone,
			Type:      domain.AlertSuccess,
			Title:     "Milestone reached",
			Message:   fmt.Sprintf("%d jobs completed in this period.", completedJobs),
			Timestamp: now,
		})
	}

	alerts = append(alerts, domain.Alert{
		ID:        domain.AlertIDContacts,
		Type:      domain.AlertInfo,
		Title:     "Contact base",
		Message:   fmt.Sprintf("%d contacts in the CRM for this period.", contacts),
		Timestamp: now,
	})

	return alerts
}

// HasCritical reports whether any alert is critical.
func HasCritical(alerts []domain.Alert) bool {
	for _, a := range alerts {
		if a.Type == domain.AlertCritical {
			return true
		}
	}
	return false
}

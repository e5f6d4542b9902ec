package analytics

import (
	"sort"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/taxonomy"
)

// RecentActivityLimit caps the activity feed.
const RecentActivityLimit = 10

// BuildRecentActivity merges the newest jobs, tasks and contacts into one feed,
// newest first.
func BuildRecentActivity(recs domain.Records, limit int) []domain.ActivityItem {
	items := make([]domain.ActivityItem, 0, len(recs.Jobs)+len(recs.Tasks)+len(recs.Contacts))

	for _, job := range recs.Jobs {
		items = append(items, domain.ActivityItem{
			ID:          "job-" + job.ID,
			Type:        "job",
			Title:       "Job created: " + nonEmpty(job.Name, job.ID),
			Description: "Status: " + taxonomy.JobStatusName(job),
			User:        job.SalesRepName,
			Timestamp:   job.CreatedAt,
		})
	}

	for _, task := range recs.Tasks {
		state := "open"
		if taxonomy.ClassifyTask(task).Completed {
			state = "completed"
		}
		items = append(items, domain.ActivityItem{
			ID:          "task-" + task.ID,
			Type:        "task",
			Title:       "Task: " + nonEmpty(task.Title, task.ID),
			Description: "Task " + state,
			User:        AssigneeOf(task),
			Timestamp:   task.CreatedAt,
		})
	}

	for _, contact := range recs.Contacts {
		kind := "prospect"
		if contact.IsCustomer {
			kind = "customer"
		}
		items = append(items, domain.ActivityItem{
			ID:          "contact-" + contact.ID,
			Type:        "contact",
			Title:       "New contact: " + nonEmpty(contact.Name(), contact.ID),
			Description: "Added as " + kind,
			Timestamp:   contact.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID < items[j].ID
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func nonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

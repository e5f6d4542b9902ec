package taxonomy

import (
	"strconv"

	"dashboard_backend/internal/dashboard/domain"
)

// JobClass is the classification of a single job. At most one of Active and
// Completed is set; a job with neither falls through to "other".
type JobClass struct {
	Active    bool
	Completed bool
	Pending   bool
}

// TaskClass is the classification of a single task.
type TaskClass struct {
	Completed bool
	Pending   bool
}

// ClassifyJob decides whether a job is active, completed or neither.
// Completion takes precedence so the outcome is always exclusive.
func ClassifyJob(job domain.Job) JobClass {
	if IsCompletedLabel(job.StatusLabel) || job.StatusCode == CompletedStatusCode {
		return JobClass{Completed: true}
	}
	if job.IsActive && !job.IsClosed && !job.IsArchived && IsActiveLabel(job.StatusLabel) {
		return JobClass{Active: true}
	}
	return JobClass{Pending: Classify(job.StatusLabel).Category == CategoryPending}
}

// ClassifyTask decides whether a task is completed or pending.
func ClassifyTask(task domain.Task) TaskClass {
	if task.IsCompleted {
		return TaskClass{Completed: true}
	}
	return TaskClass{Pending: task.IsActive && !task.IsArchived}
}

// JobStatusName returns the grouping label of a job: its label, else its
// status code, else NoStatusLabel.
func JobStatusName(job domain.Job) string {
	if l := normalize(job.StatusLabel); l != "" {
		return job.StatusLabel
	}
	if job.StatusCode != 0 {
		return "Status " + strconv.Itoa(job.StatusCode)
	}
	return NoStatusLabel
}

// Counts tallies classified records.
type Counts struct {
	TotalJobs      int
	ActiveJobs     int
	CompletedJobs  int
	TotalTasks     int
	CompletedTasks int
	PendingTasks   int
}

// Count classifies every job and task once.
func Count(jobs []domain.Job, tasks []domain.Task) Counts {
	c := Counts{TotalJobs: len(jobs), TotalTasks: len(tasks)}
	for _, job := range jobs {
		class := ClassifyJob(job)
		if class.Active {
			c.ActiveJobs++
		}
		if class.Completed {
			c.CompletedJobs++
		}
	}
	for _, task := range tasks {
		class := ClassifyTask(task)
		if class.Completed {
			c.CompletedTasks++
		}
		if class.Pending {
			c.PendingTasks++
		}
	}
	return c
}

// CompletedJobs returns only the jobs classified as completed.
func CompletedJobs(jobs []domain.Job) []domain.Job {
	out := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		if ClassifyJob(job).Completed {
			out = append(out, job)
		}
	}
	return out
}

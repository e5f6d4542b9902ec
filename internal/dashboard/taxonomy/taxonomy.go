// Package taxonomy is the single source of truth for interpreting CRM status
// labels. The record classifier and the status colorizer both read from here.
package taxonomy

import "strings"

// Category is the display family of a status label.
type Category string

const (
	CategoryCompleted Category = "completed"
	CategoryActive    Category = "active"
	CategoryPending   Category = "pending"
	CategoryCancelled Category = "cancelled"
	CategoryOther     Category = "other"
)

// Display colors per category.
const (
	ColorGreen  = "#10B981"
	ColorBlue   = "#3B82F6"
	ColorOrange = "#F59E0B"
	ColorRed    = "#EF4444"
	ColorPurple = "#8B5CF6"
)

// CompletedStatusCode is the CRM status code that marks a job as completed
// regardless of its label.
const CompletedStatusCode = 4

// NoStatusLabel groups jobs that carry neither a label nor a code.
const NoStatusLabel = "No Status"

// activeLabels are the workflow stages in which a job counts as active.
var activeLabels = map[string]bool{
	"appointment scheduled":      true,
	"estimating":                 true,
	"pending customer signature": true,
	"pending customer approval":  true,
	"lead":                       true,
	"in progress":                true,
	"work in progress":           true,
	"sold":                       true,
	"production":                 true,
}

// Status is the interpretation of a single label.
type Status struct {
	Category Category
	Color    string
}

// Classify maps a label onto its display category. Rules are ordered; the
// first matching substring wins.
func Classify(label string) Status {
	l := normalize(label)
	switch {
	case IsCompletedLabel(l):
		return Status{Category: CategoryCompleted, Color: ColorGreen}
	case strings.Contains(l, "active") || strings.Contains(l, "progress"):
		return Status{Category: CategoryActive, Color: ColorBlue}
	case strings.Contains(l, "pending") || strings.Contains(l, "new"):
		return Status{Category: CategoryPending, Color: ColorOrange}
	case strings.Contains(l, "cancel"):
		return Status{Category: CategoryCancelled, Color: ColorRed}
	default:
		return Status{Category: CategoryOther, Color: ColorPurple}
	}
}

// IsActiveLabel reports whether a label belongs to the active workflow stages.
func IsActiveLabel(label string) bool {
	l := normalize(label)
	if l == "" {
		return false
	}
	return activeLabels[l] || strings.Contains(l, "active") || strings.Contains(l, "progress")
}

// IsCompletedLabel reports whether a label reads as completed.
func IsCompletedLabel(label string) bool {
	l := normalize(label)
	return strings.Contains(l, "complete") || strings.Contains(l, "done")
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

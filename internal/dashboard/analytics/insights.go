package analytics

import (
	"fmt"

	"dashboard_backend/internal/dashboard/domain"
)

// GenerateInsights fills the three fixed narrative templates with the rates
// of the current period.
func GenerateInsights(completionRate, conversionRate, taskRate, engagement float64) []domain.Insight {
	return []domain.Insight{
		{
			ID:       "efficiency",
			Category: "efficiency",
			Title:    "Operational efficiency",
			Description: fmt.Sprintf(
				"Projects are completing at %.1f%% while the team closes %.1f%% of assigned tasks.",
				completionRate, taskRate,
			),
			Impact:     "high",
			Confidence: 0.92,
			Action:     "Review the slowest pipeline stage with each crew lead",
		},
		{
			ID:       "conversion",
			Category: "opportunity",
			Title:    "Conversion opportunity",
			Description: fmt.Sprintf(
				"%.1f%% of contacts are customers. Every prospect moved forward adds roughly %s in pipeline value.",
				conversionRate, formatMoney(DefaultJobValue),
			),
			Impact:     "medium",
			Confidence: 0.87,
			Action:     "Schedule follow-ups for prospects without an appointment",
		},
		{
			ID:       "engagement",
			Category: "engagement",
			Title:    "Customer engagement",
			Description: fmt.Sprintf(
				"Engagement sits at %.1f%% activities per contact.",
				engagement,
			),
			Impact:     "medium",
			Confidence: 0.94,
			Action:     "Log every site visit and call against the contact record",
		},
	}
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

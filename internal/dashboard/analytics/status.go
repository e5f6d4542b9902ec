package analytics

import (
	"sort"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/taxonomy"
)

// DistributeByStatus groups jobs by status name into pie slices.
func DistributeByStatus(jobs []domain.Job) []domain.StatusSlice {
	counts := make(map[string]int)
	for _, job := range jobs {
		counts[taxonomy.JobStatusName(job)]++
	}

	slices := make([]domain.StatusSlice, 0, len(counts))
	for name, n := range counts {
		slices = append(slices, domain.StatusSlice{
			Name:    name,
			Value:   n,
			Color:   taxonomy.Classify(name).Color,
			Revenue: float64(n) * DefaultJobValue,
		})
	}

	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Name < slices[j].Name
	})

	return slices
}

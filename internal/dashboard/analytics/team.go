package analytics

import (
	"math"
	"sort"
	"strings"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
	"dashboard_backend/internal/dashboard/taxonomy"
)

const (
	// GeneralTeam collects tasks without any identifiable assignee.
	GeneralTeam = "General Team"

	maxTeamMembers   = 6
	maxMemberLabel   = 17
	memberLabelTrail = "..."
)

type memberTally struct {
	tasks     int
	completed int
	revenue   float64
}

// AssigneeOf resolves the member a task is credited to.
func AssigneeOf(task domain.Task) string {
	if name := strings.TrimSpace(task.CreatedByName); name != "" {
		return name
	}
	if ref := strings.TrimSpace(task.AssignedTo); ref != "" {
		return ref
	}
	if len(task.Owners) > 0 {
		if owner := strings.TrimSpace(task.Owners[0]); owner != "" {
			return owner
		}
	}
	if rep := strings.TrimSpace(task.SalesRepName); rep != "" {
		return rep
	}
	return GeneralTeam
}

// AnalyzeTeam rolls tasks up per assignee and returns the top members by
// completed tasks. Revenue is an estimate drawn per completed task.
func AnalyzeTeam(tasks []domain.Task, rnd random.Source) []domain.TeamMember {
	tallies := make(map[string]*memberTally)
	for _, task := range tasks {
		key := AssigneeOf(task)
		tally, ok := tallies[key]
		if !ok {
			tally = &memberTally{}
			tallies[key] = tally
		}
		tally.tasks++
		if taxonomy.ClassifyTask(task).Completed {
			tally.completed++
			tally.revenue += float64(rnd.IntBetween(2500, 4500))
		}
	}

	members := make([]domain.TeamMember, 0, len(tallies))
	for name, tally := range tallies {
		if tally.tasks == 0 {
			continue
		}
		members = append(members, domain.TeamMember{
			Member:     name,
			Tasks:      tally.tasks,
			Completed:  tally.completed,
			Efficiency: int(math.Round(float64(tally.completed) / float64(max(tally.tasks, 1)) * 100)),
			Revenue:    tally.revenue,
		})
	}

	sort.Slice(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Completed != b.Completed {
			return a.Completed > b.Completed
		}
		if a.Tasks != b.Tasks {
			return a.Tasks > b.Tasks
		}
		return a.Member < b.Member
	})

	if len(members) > maxTeamMembers {
		members = members[:maxTeamMembers]
	}
	for i := range members {
		members[i].Member = truncateLabel(members[i].Member)
		members[i].Satisfaction = round1(rnd.FloatBetween(4.0, 5.0))
	}

	return members
}

func truncateLabel(name string) string {
	runes := []rune(name)
	if len(runes) <= maxMemberLabel {
		return name
	}
	return strings.TrimRight(string(runes[:maxMemberLabel]), " ") + memberLabelTrail
}

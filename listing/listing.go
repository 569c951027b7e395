package listing

import (
	"strings"
	"time"

	"fireops/models"
	"fireops/workflow"
)

// Wildcard matches every status or priority.
const Wildcard = "all"

// DashboardLimit caps the dashboard panels.
const DashboardLimit = 5

// TaskFilter narrows the corrective task list.
type TaskFilter struct {
	Status   string // task status, "all" or empty
	Priority string // priority, "all" or empty
	Search   string // client name or description
}

// VisitFilter narrows the visit list.
type VisitFilter struct {
	Status string
	Search string // client name
}

// ClientFilter narrows the client list.
type ClientFilter struct {
	Search string // company name, address or referent name
}

func matchesEnum(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || want == Wildcard || want == got
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func normalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clientName(clients map[string]models.Client, id string) string {
	if c, ok := clients[id]; ok {
		return c.CompanyName
	}
	return ""
}

// FilterTasks keeps the tasks matching every predicate of f, in input order.
func FilterTasks(tasks []models.CorrectiveTask, clients map[string]models.Client, f TaskFilter) []models.CorrectiveTask {
	search := normalizeSearch(f.Search)
	out := []models.CorrectiveTask{}
	for _, t := range tasks {
		if !matchesEnum(f.Status, string(t.Status)) || !matchesEnum(f.Priority, string(t.Priority)) {
			continue
		}
		if search != "" && !containsFold(clientName(clients, t.ClientID), search) && !containsFold(t.Description, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterVisits keeps the visits matching every predicate of f, in input order.
func FilterVisits(visits []models.Visit, clients map[string]models.Client, f VisitFilter) []models.Visit {
	search := normalizeSearch(f.Search)
	out := []models.Visit{}
	for _, v := range visits {
		if !matchesEnum(f.Status, string(v.Status)) {
			continue
		}
		if search != "" && !containsFold(clientName(clients, v.ClientID), search) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FilterClients keeps the clients whose name, address or referent matches.
func FilterClients(clients []models.Client, f ClientFilter) []models.Client {
	search := normalizeSearch(f.Search)
	out := []models.Client{}
	for _, c := range clients {
		if search != "" &&
			!containsFold(c.CompanyName, search) &&
			!containsFold(c.Address, search) &&
			!containsFold(c.ReferentName, search) {
			continue
		}
		out = append(out, c)
	}
	return out
}

var (
	byScheduledDate = TimeAsc(func(v models.Visit) *time.Time { return v.ScheduledDate })

	// urgentOrder is the single composite key (priority rank, newest report).
	urgentOrder = By(
		Ascending(func(t models.CorrectiveTask) int { return workflow.PriorityRank(t.Priority) }),
		TimeDesc(func(t models.CorrectiveTask) *time.Time { return t.ReportedDate }),
	)
)

// SortVisitsByDate returns a copy ordered earliest first, undated last.
func SortVisitsByDate(visits []models.Visit) []models.Visit {
	out := append([]models.Visit{}, visits...)
	byScheduledDate.Sort(out)
	return out
}

// UpcomingVisits returns scheduled visits dated today or later, earliest
// first, capped at n.
func UpcomingVisits(visits []models.Visit, now time.Time, n int) []models.Visit {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := []models.Visit{}
	for _, v := range visits {
		if v.Status != models.VisitScheduled || v.ScheduledDate == nil || v.ScheduledDate.Before(startOfDay) {
			continue
		}
		out = append(out, v)
	}
	byScheduledDate.Sort(out)
	return capAt(out, n)
}

// UrgentTasks returns open tasks ordered by priority rank and then by most
// recent report, capped at n.
func UrgentTasks(tasks []models.CorrectiveTask, n int) []models.CorrectiveTask {
	out := []models.CorrectiveTask{}
	for _, t := range tasks {
		if t.Status.Open() {
			out = append(out, t)
		}
	}
	urgentOrder.Sort(out)
	return capAt(out, n)
}

func capAt[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// TaskCounts backs the summary tiles of the task list.
type TaskCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Urgent     int `json:"urgent"` // open and urgent
}

// CountTasksByStatus tallies tasks per status.
func CountTasksByStatus(tasks []models.CorrectiveTask) TaskCounts {
	c := TaskCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskPending:
			c.Pending++
		case models.TaskInProgress:
			c.InProgress++
		case models.TaskCompleted:
			c.Completed++
		}
		if t.Status.Open() && t.Priority == models.PriorityUrgent {
			c.Urgent++
		}
	}
	return c
}

// VisitCounts backs the summary tiles of the visit list.
type VisitCounts struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
}

// CountVisitsByStatus tallies visits per status.
func CountVisitsByStatus(visits []models.Visit) VisitCounts {
	c := VisitCounts{Total: len(visits)}
	for _, v := range visits {
		switch v.Status {
		case models.VisitScheduled:
			c.Scheduled++
		case models.VisitCompleted:
			c.Completed++
		}
	}
	return c
}

// ClientIndex maps clients by ID.
func ClientIndex(clients []models.Client) map[string]models.Client {
	index := make(map[string]models.Client, len(clients))
	for _, c := range clients {
		index[c.ID] = c
	}
	return index
}

// Package dashboard composes the home-page summary: counts, the upcoming
// visit and urgent task panels, reminders and the month calendar.
package dashboard

import (
	"context"
	"time"

	"fireops/calendar"
	"fireops/listing"
	"fireops/models"
	"fireops/reminders"
	"fireops/workflow"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// EntityReader is the read side of the shared store.
type EntityReader interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	ListVisits(ctx context.Context, clientID string) ([]models.Visit, error)
	ListTasks(ctx context.Context, clientID string) ([]models.CorrectiveTask, error)
}

// ReminderSource is the device-local reminder list.
type ReminderSource interface {
	List(ctx context.Context) ([]models.Reminder, error)
}

// Stats are the scalar tiles of the dashboard.
type Stats struct {
	TotalClients     int `json:"totalClients"`
	TotalVisits      int `json:"totalVisits"`
	VisitsToday      int `json:"visitsToday"`
	TotalTasks       int `json:"totalTasks"`
	OpenTasks        int `json:"openTasks"`
	UrgentOpenTasks  int `json:"urgentOpenTasks"`
	OverdueReminders int `json:"overdueReminders"`
}

// VisitPreview is one row of the upcoming visits panel.
type VisitPreview struct {
	Visit  models.Visit   `json:"visit"`
	Client *models.Client `json:"client"`
}

// TaskPreview is one row of the urgent tasks panel.
type TaskPreview struct {
	Task          models.CorrectiveTask `json:"task"`
	Client        *models.Client        `json:"client"`
	PriorityBadge workflow.Badge        `json:"priorityBadge"`
	StatusBadge   workflow.Badge        `json:"statusBadge"`
}

// Summary is the full dashboard payload.
type Summary struct {
	User           string            `json:"user"`
	GeneratedAt    time.Time         `json:"generatedAt"`
	Stats          Stats             `json:"stats"`
	UpcomingVisits []VisitPreview    `json:"upcomingVisits"`
	UrgentTasks    []TaskPreview     `json:"urgentTasks"`
	Reminders      []models.Reminder `json:"reminders"`
	Calendar       calendar.Month    `json:"calendar"`
	Degraded       []string          `json:"degraded,omitempty"` // sources that failed and were shown empty
}

// Aggregator builds dashboard summaries.
type Aggregator struct {
	store     EntityReader
	reminders ReminderSource
	log       zerolog.Logger
	clock     func() time.Time
	loc       *time.Location
}

// NewAggregator creates an aggregator. reminders may be nil.
func NewAggregator(store EntityReader, reminders ReminderSource, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:     store,
		reminders: reminders,
		log:       logger.With().Str("component", "dashboard").Logger(),
		clock:     time.Now,
		loc:       time.Local,
	}
}

// SetClock replaces the time source.
func (a *Aggregator) SetClock(clock func() time.Time) { a.clock = clock }

// SetLocation sets the zone "today" is evaluated in.
func (a *Aggregator) SetLocation(loc *time.Location) { a.loc = loc }

// Summary fetches every source in parallel and joins them. A failing source
// is logged and shown as empty; only context cancellation is returned.
func (a *Aggregator) Summary(ctx context.Context, user *models.User, anchor time.Time) (*Summary, error) {
	now := a.clock().In(a.loc)

	var (
		clients []models.Client
		visits  []models.Visit
		tasks   []models.CorrectiveTask
		rems    []models.Reminder
		failed  = make([]bool, 4)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = a.store.ListClients(gctx)
		failed[0] = a.degrade("clients", err)
		return nil
	})
	g.Go(func() error {
		var err error
		visits, err = a.store.ListVisits(gctx, "")
		failed[1] = a.degrade("visits", err)
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = a.store.ListTasks(gctx, "")
		failed[2] = a.degrade("tasks", err)
		return nil
	})
	g.Go(func() error {
		if a.reminders == nil {
			return nil
		}
		var err error
		rems, err = a.reminders.List(gctx)
		failed[3] = a.degrade("reminders", err)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if clients == nil {
		clients = []models.Client{}
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	if tasks == nil {
		tasks = []models.CorrectiveTask{}
	}
	if rems == nil {
		rems = []models.Reminder{}
	}
	index := listing.ClientIndex(clients)

	s := &Summary{
		User:        user.Identifier(),
		GeneratedAt: now,
		Stats: Stats{
			TotalClients:     len(clients),
			TotalVisits:      len(visits),
			VisitsToday:      countVisitsOn(visits, now),
			TotalTasks:       len(tasks),
			OverdueReminders: reminders.OverdueCount(rems, now),
		},
		UpcomingVisits: []VisitPreview{},
		UrgentTasks:    []TaskPreview{},
		Reminders:      reminders.Upcoming(rems, listing.DashboardLimit),
	}
	counts := listing.CountTasksByStatus(tasks)
	s.Stats.OpenTasks = counts.Pending + counts.InProgress
	s.Stats.UrgentOpenTasks = counts.Urgent

	for _, v := range listing.UpcomingVisits(visits, now, listing.DashboardLimit) {
		s.UpcomingVisits = append(s.UpcomingVisits, VisitPreview{Visit: v, Client: clientRef(index, v.ClientID)})
	}
	for _, t := range listing.UrgentTasks(tasks, listing.DashboardLimit) {
		s.UrgentTasks = append(s.UrgentTasks, TaskPreview{
			Task:          t,
			Client:        clientRef(index, t.ClientID),
			PriorityBadge: workflow.PriorityBadge(t.Priority),
			StatusBadge:   workflow.TaskStatusBadge(t.Status),
		})
	}

	if anchor.IsZero() {
		anchor = now
	}
	s.Calendar = calendar.Build(anchor.In(a.loc), visits, index, now, calendar.WithLocation(a.loc))

	for i, name := range []string{"clients", "visits", "tasks", "reminders"} {
		if failed[i] {
			s.Degraded = append(s.Degraded, name)
		}
	}
	return s, nil
}

func (a *Aggregator) degrade(source string, err error) bool {
	if err == nil {
		return false
	}
	a.log.Warn().Err(err).Str("source", source).Msg("dashboard source unavailable, showing empty")
	return true
}

// countVisitsOn counts scheduled visits falling on now's calendar date.
func countVisitsOn(visits []models.Visit, now time.Time) int {
	y, m, d := now.Date()
	n := 0
	for _, v := range visits {
		if v.Status != models.VisitScheduled || v.ScheduledDate == nil {
			continue
		}
		vy, vm, vd := v.ScheduledDate.In(now.Location()).Date()
		if vy == y && vm == m && vd == d {
			n++
		}
	}
	return n
}

func clientRef(index map[string]models.Client, id string) *models.Client {
	if c, ok := index[id]; ok {
		return &c
	}
	return nil
}

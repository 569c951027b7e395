package dashboard

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"fireops/models"

	"github.com/rs/zerolog"
)

type fakeReader struct {
	clients    []models.Client
	visits     []models.Visit
	tasks      []models.CorrectiveTask
	failVisits bool
}

func (f *fakeReader) ListClients(context.Context) ([]models.Client, error) { return f.clients, nil }

func (f *fakeReader) ListVisits(context.Context, string) ([]models.Visit, error) {
	if f.failVisits {
		return nil, models.Unavailable("list visits", errors.New("offline"))
	}
	return f.visits, nil
}

func (f *fakeReader) ListTasks(context.Context, string) ([]models.CorrectiveTask, error) {
	return f.tasks, nil
}

type fakeReminders struct {
	list []models.Reminder
	err  error
}

func (f *fakeReminders) List(context.Context) ([]models.Reminder, error) { return f.list, f.err }

func ptr(t time.Time) *time.Time { return &t }

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestAggregator(reader EntityReader, rems ReminderSource) *Aggregator {
	a := NewAggregator(reader, rems, zerolog.Nop())
	a.SetClock(func() time.Time { return now })
	a.SetLocation(time.UTC)
	return a
}

func TestSummary(t *testing.T) {
	reader := &fakeReader{
		clients: []models.Client{{ID: "c1", CompanyName: "Hotel Plaza"}, {ID: "c2", CompanyName: "Banco Sur"}},
		visits: []models.Visit{
			{ID: "today-scheduled", ClientID: "c1", Status: models.VisitScheduled, ScheduledDate: ptr(now.Add(-3 * time.Hour))},
			{ID: "today-completed", ClientID: "c1", Status: models.VisitCompleted, ScheduledDate: ptr(now.Add(-2 * time.Hour))},
			{ID: "tomorrow", ClientID: "ghost", Status: models.VisitScheduled, ScheduledDate: ptr(now.Add(24 * time.Hour))},
			{ID: "last-week", ClientID: "c2", Status: models.VisitScheduled, ScheduledDate: ptr(now.Add(-7 * 24 * time.Hour))},
			{ID: "undated", ClientID: "c2", Status: models.VisitScheduled},
		},
		tasks: []models.CorrectiveTask{
			{ID: "normal", ClientID: "c2", Status: models.TaskPending, Priority: models.PriorityNormal, ReportedDate: ptr(now)},
			{ID: "urgent", ClientID: "c1", Status: models.TaskInProgress, Priority: models.PriorityUrgent, ReportedDate: ptr(now.Add(-72 * time.Hour))},
			{ID: "done", ClientID: "c1", Status: models.TaskCompleted, Priority: models.PriorityUrgent, ReportedDate: ptr(now)},
		},
	}
	rems := &fakeReminders{list: []models.Reminder{
		{ID: "r-overdue", Title: "Call", Date: "2025-03-09"},
		{ID: "r-later", Title: "Order parts", Date: "2025-03-15", Time: "10:00"},
		{ID: "r-done", Title: "Done", Date: "2025-03-01", Completed: true},
	}}

	user := &models.User{Username: "alan", DisplayName: "Alan Spitel"}
	s, err := newTestAggregator(reader, rems).Summary(context.Background(), user, time.Time{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if s.User != "Alan Spitel" {
		t.Errorf("User = %q", s.User)
	}
	want := Stats{TotalClients: 2, TotalVisits: 5, VisitsToday: 1, TotalTasks: 3, OpenTasks: 2, UrgentOpenTasks: 1, OverdueReminders: 1}
	if s.Stats != want {
		t.Errorf("Stats = %+v, want %+v", s.Stats, want)
	}

	var upcoming []string
	for _, p := range s.UpcomingVisits {
		upcoming = append(upcoming, p.Visit.ID)
	}
	if !reflect.DeepEqual(upcoming, []string{"today-scheduled", "tomorrow"}) {
		t.Errorf("UpcomingVisits = %v", upcoming)
	}
	if s.UpcomingVisits[1].Client != nil {
		t.Error("visit for a missing client should have a nil client")
	}

	if len(s.UrgentTasks) != 2 || s.UrgentTasks[0].Task.ID != "urgent" {
		t.Errorf("UrgentTasks = %+v", s.UrgentTasks)
	}
	if s.UrgentTasks[0].PriorityBadge.Label != "Urgente" || s.UrgentTasks[0].Client.CompanyName != "Hotel Plaza" {
		t.Errorf("urgent preview = %+v", s.UrgentTasks[0])
	}

	if len(s.Reminders) != 2 || s.Reminders[0].ID != "r-overdue" {
		t.Errorf("Reminders = %+v", s.Reminders)
	}
	if s.Calendar.Anchor.Month() != time.March || len(s.Calendar.Days)%7 != 0 {
		t.Errorf("Calendar anchor = %v", s.Calendar.Anchor)
	}
	if len(s.Degraded) != 0 {
		t.Errorf("Degraded = %v", s.Degraded)
	}
}

func TestSummary_DegradesFailedSources(t *testing.T) {
	reader := &fakeReader{
		clients:    []models.Client{{ID: "c1", CompanyName: "Hotel Plaza"}},
		failVisits: true,
	}
	rems := &fakeReminders{err: errors.New("disk gone")}

	s, err := newTestAggregator(reader, rems).Summary(context.Background(), nil, time.Time{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Stats.TotalClients != 1 || s.Stats.TotalVisits != 0 {
		t.Errorf("Stats = %+v", s.Stats)
	}
	if s.UpcomingVisits == nil || s.UrgentTasks == nil || s.Reminders == nil {
		t.Error("degraded panels should be empty, not nil")
	}
	if !reflect.DeepEqual(s.Degraded, []string{"visits", "reminders"}) {
		t.Errorf("Degraded = %v", s.Degraded)
	}
	if s.User != "" {
		t.Errorf("User = %q, want empty for nil user", s.User)
	}
}

func TestSummary_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestAggregator(&fakeReader{}, nil).Summary(ctx, nil, time.Time{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Summary() error = %v, want context.Canceled", err)
	}
}

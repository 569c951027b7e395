package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"fireops/db"
	"fireops/listing"
	"fireops/models"
	"fireops/workflow"

	"github.com/rs/zerolog"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// flakyStore fails task creation after a number of successful creates.
type flakyStore struct {
	*db.MemoryStore
	allowTaskCreates int
	taskCreates      int
	failLists        bool
}

func (f *flakyStore) Create(ctx context.Context, kind db.Kind, fields map[string]interface{}) (string, error) {
	if kind == db.KindTasks && f.allowTaskCreates >= 0 {
		f.taskCreates++
		if f.taskCreates > f.allowTaskCreates {
			return "", models.Unavailable("create corrective_tasks", errors.New("connection reset"))
		}
	}
	return f.MemoryStore.Create(ctx, kind, fields)
}

func (f *flakyStore) List(ctx context.Context, kind db.Kind, filter db.Filter) ([]db.Document, error) {
	if f.failLists {
		return nil, models.Unavailable("list "+string(kind), errors.New("offline"))
	}
	return f.MemoryStore.List(ctx, kind, filter)
}

type fixture struct {
	store   *flakyStore
	repo    *db.Repository
	clients *ClientService
	visits  *VisitService
	tasks   *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &flakyStore{MemoryStore: db.NewMemoryStore(), allowTaskCreates: -1}
	repo := db.NewRepository(store, zerolog.Nop()).WithLocation(time.UTC)
	return &fixture{
		store:   store,
		repo:    repo,
		clients: NewClientService(repo, zerolog.Nop()),
		visits:  NewVisitService(repo, zerolog.Nop(), time.UTC),
		tasks:   NewTaskService(repo, zerolog.Nop()),
	}
}

func (f *fixture) client(t *testing.T, name string) *models.Client {
	t.Helper()
	c, err := f.clients.Create(context.Background(), models.ClientInput{CompanyName: name, Address: "Florida 1005"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func (f *fixture) visit(t *testing.T, clientID, date string) *models.Visit {
	t.Helper()
	v, err := f.visits.Schedule(context.Background(), models.VisitInput{
		ClientID:      clientID,
		ScheduledDate: date,
		ScheduledTime: "10:00",
		Technicians:   []string{"Alan Spitel", ""},
	}, testNow)
	if err != nil {
		t.Fatalf("schedule visit: %v", err)
	}
	return v
}

func TestClientService_CreateParsesEmails(t *testing.T) {
	f := newFixture(t)
	c, err := f.clients.Create(context.Background(), models.ClientInput{
		CompanyName:  "Hotel Plaza",
		Address:      "Florida 1005",
		ReportEmails: "a@x.com, ,b@x.com,",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !reflect.DeepEqual(c.ReportEmails, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("ReportEmails = %v", c.ReportEmails)
	}
	if c.Frequency != models.FrequencyMonthly {
		t.Errorf("Frequency = %q, want monthly default", c.Frequency)
	}

	_, err = f.clients.Create(context.Background(), models.ClientInput{CompanyName: "No address"})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("Create() without address error = %v, want validation", err)
	}
	_, err = f.clients.Create(context.Background(), models.ClientInput{CompanyName: "x", Address: "y", Frequency: "daily"})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("Create() with unknown frequency error = %v, want validation", err)
	}
}

func TestClientService_UpdateAndDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	f.visit(t, c.ID, "2025-03-12")

	updated, err := f.clients.Update(ctx, c.ID, models.ClientInput{CompanyName: "Hotel Plaza Sur", Address: "Florida 1005", Frequency: models.FrequencyWeekly})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CompanyName != "Hotel Plaza Sur" || updated.Frequency != models.FrequencyWeekly {
		t.Errorf("Update() = %+v", updated)
	}

	detail, err := f.clients.Detail(ctx, c.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(detail.Visits) != 1 || detail.Frequency != "Semanal" {
		t.Errorf("Detail() = %+v", detail)
	}

	if _, err := f.clients.Update(ctx, "missing", models.ClientInput{CompanyName: "x", Address: "y"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestVisitService_Schedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")

	v := f.visit(t, c.ID, "2025-03-12")
	if v.Status != models.VisitScheduled || v.IsPastDateVisit {
		t.Errorf("Schedule() = %+v", v)
	}
	if !v.ScheduledDate.Equal(time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ScheduledDate = %v", v.ScheduledDate)
	}
	if !reflect.DeepEqual(v.Technicians, []string{"Alan Spitel"}) {
		t.Errorf("Technicians = %v", v.Technicians)
	}

	past := f.visit(t, c.ID, "2025-03-01")
	if !past.IsPastDateVisit {
		t.Error("past visit should be flagged")
	}

	tests := []struct {
		name  string
		in    models.VisitInput
		field string
	}{
		{"no client", models.VisitInput{ScheduledDate: "2025-03-12"}, "clientId"},
		{"unknown client", models.VisitInput{ClientID: "ghost", ScheduledDate: "2025-03-12"}, "clientId"},
		{"no date", models.VisitInput{ClientID: c.ID}, "scheduledDate"},
		{"bad date", models.VisitInput{ClientID: c.ID, ScheduledDate: "12/03/2025"}, "scheduledDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.visits.Schedule(ctx, tt.in, testNow)
			var verr *models.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Schedule() error = %v, want validation on %s", err, tt.field)
			}
		})
	}
}

func TestVisitService_CompleteSpawnsTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	v := f.visit(t, c.ID, "2025-03-10")

	res, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{
		Technicians: []string{"", "Alan Spitel", "Marco Sotola"},
		Notes:       strPtr("All extinguishers checked"),
		Issues:      []workflow.Issue{{Description: " Leak ", Priority: models.PriorityUrgent}},
	}, testNow)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	stored, _ := f.repo.GetVisit(ctx, v.ID)
	if stored.Status != models.VisitCompleted || stored.CompletedDate == nil || !stored.CompletedDate.Equal(testNow) {
		t.Errorf("stored visit = %+v", stored)
	}
	if !reflect.DeepEqual(stored.Technicians, []string{"Alan Spitel", "Marco Sotola"}) {
		t.Errorf("Technicians = %v", stored.Technicians)
	}

	if len(res.Tasks) != 1 {
		t.Fatalf("created %d tasks, want 1", len(res.Tasks))
	}
	tasks, _ := f.repo.ListTasks(ctx, c.ID)
	if len(tasks) != 1 {
		t.Fatalf("stored %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Description != "Leak" || task.Priority != models.PriorityUrgent || task.Status != models.TaskPending {
		t.Errorf("task = %+v", task)
	}
	if task.OriginVisitID != v.ID || task.ReportedBy != "Alan Spitel" || task.ClientID != c.ID {
		t.Errorf("task links = %+v", task)
	}

	urgent := listing.UrgentTasks(tasks, listing.DashboardLimit)
	if len(urgent) == 0 || urgent[0].ID != task.ID {
		t.Errorf("Leak task should lead the urgent list: %+v", urgent)
	}

	// Completed visits cannot be completed, edited or deleted again.
	if _, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{Technicians: []string{"Alan Spitel"}}, testNow); !errors.Is(err, models.ErrValidation) {
		t.Errorf("second Complete() error = %v, want validation", err)
	}
	if _, err := f.visits.Update(ctx, v.ID, models.VisitInput{ClientID: c.ID, ScheduledDate: "2025-03-20"}, testNow); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Update() completed error = %v, want validation", err)
	}
	if err := f.visits.Delete(ctx, v.ID); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Delete() completed error = %v, want validation", err)
	}
}

func TestVisitService_CompleteKeepsNotesWhenOmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	v, err := f.visits.Schedule(ctx, models.VisitInput{
		ClientID:      c.ID,
		ScheduledDate: "2025-03-10",
		Technicians:   []string{"Alan Spitel"},
		Notes:         "Llevar llave del tablero",
	}, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	res, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{Technicians: []string{"Alan Spitel"}}, testNow)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	stored, _ := f.repo.GetVisit(ctx, v.ID)
	if stored.Notes != "Llevar llave del tablero" || res.Visit.Notes != stored.Notes {
		t.Errorf("Notes = %q (result %q), want kept", stored.Notes, res.Visit.Notes)
	}
}

func TestVisitService_CompleteRequiresTechnician(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	v := f.visit(t, c.ID, "2025-03-10")

	_, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{
		Technicians: []string{" ", ""},
		Issues:      []workflow.Issue{{Description: "Leak", Priority: models.PriorityUrgent}},
	}, testNow)
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Reason != "at least one technician required" {
		t.Fatalf("Complete() error = %v, want technician validation", err)
	}

	stored, _ := f.repo.GetVisit(ctx, v.ID)
	if stored.Status != models.VisitScheduled || stored.CompletedDate != nil {
		t.Errorf("visit written despite rejection: %+v", stored)
	}
	if tasks, _ := f.repo.ListTasks(ctx, ""); len(tasks) != 0 {
		t.Errorf("tasks created despite rejection: %d", len(tasks))
	}
}

func TestVisitService_CompleteRejectsBlankIssue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	v := f.visit(t, c.ID, "2025-03-10")

	_, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{
		Technicians: []string{"Alan Spitel"},
		Issues:      []workflow.Issue{{Description: "  "}},
	}, testNow)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Complete() error = %v, want validation", err)
	}
	stored, _ := f.repo.GetVisit(ctx, v.ID)
	if stored.Status != models.VisitScheduled {
		t.Error("visit completed despite invalid issue")
	}
}

func TestVisitService_CompletePartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	v := f.visit(t, c.ID, "2025-03-10")
	f.store.allowTaskCreates = 1

	res, err := f.visits.Complete(ctx, v.ID, CompleteVisitInput{
		Technicians: []string{"Daniel Galvez"},
		Issues: []workflow.Issue{
			{Description: "Leak", Priority: models.PriorityUrgent},
			{Description: "Faded sign"},
		},
	}, testNow)

	var perr *models.PartialFailureError
	if !errors.As(err, &perr) {
		t.Fatalf("Complete() error = %v, want PartialFailureError", err)
	}
	if !errors.Is(err, models.ErrPartialFailure) || !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("error chain = %v", err)
	}
	if len(perr.Completed) != 2 {
		t.Errorf("Completed = %v, want visit + one task", perr.Completed)
	}
	if res == nil || len(res.Tasks) != 1 {
		t.Fatalf("result = %+v, want one created task", res)
	}

	stored, _ := f.repo.GetVisit(ctx, v.ID)
	if stored.Status != models.VisitCompleted {
		t.Error("visit update should not be rolled back")
	}
	tasks, _ := f.repo.ListTasks(ctx, "")
	if len(tasks) != 1 {
		t.Errorf("stored %d tasks, want 1", len(tasks))
	}
}

func TestVisitService_ListSortedAscending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plaza := f.client(t, "Hotel Plaza")
	banco := f.client(t, "Banco Sur")
	f.visit(t, plaza.ID, "2025-03-20")
	f.visit(t, banco.ID, "2025-03-05")
	f.visit(t, plaza.ID, "2025-03-12")

	list, err := f.visits.List(ctx, listing.VisitFilter{Search: "plaza"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Visits) != 2 || list.Counts.Total != 3 {
		t.Fatalf("List() = %d visits, counts %+v", len(list.Visits), list.Counts)
	}
	if list.Visits[0].ScheduledDate.After(*list.Visits[1].ScheduledDate) {
		t.Error("visits not ascending")
	}
	if list.Visits[0].Client == nil || list.Visits[0].StatusBadge.Label != "Programada" {
		t.Errorf("view = %+v", list.Visits[0])
	}
}

func TestVisitService_Calendar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	f.visit(t, c.ID, "2025-03-10")

	month, err := f.visits.Calendar(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), testNow)
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	entries := month.DayDetail(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if len(entries) != 1 || entries[0].Client == nil || entries[0].Client.CompanyName != "Hotel Plaza" {
		t.Errorf("DayDetail() = %+v", entries)
	}

	f.store.failLists = true
	if _, err := f.visits.Calendar(ctx, testNow, testNow); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Errorf("Calendar() error = %v, want store unavailable", err)
	}
}

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")

	task, err := f.tasks.Create(ctx, models.TaskInput{ClientID: c.ID, Description: "Replace sign", ReportedBy: "Gustavo Fernandez", Notes: "extintor piso 3"}, testNow)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != models.TaskPending || task.Priority != models.PriorityNormal || task.OriginVisitID != "" {
		t.Errorf("Create() = %+v", task)
	}

	// A bare status change leaves the stored notes alone.
	started, err := f.tasks.Transition(ctx, task.ID, TransitionInput{Status: models.TaskInProgress}, testNow)
	if err != nil {
		t.Fatalf("Transition(in_progress) error = %v", err)
	}
	if started.Status != models.TaskInProgress || started.CompletedDate != nil {
		t.Errorf("started = %+v", started)
	}
	if started.Notes != "extintor piso 3" {
		t.Errorf("Notes after in_progress = %q, want kept", started.Notes)
	}
	if len(started.CompletedBy) != 0 {
		t.Errorf("CompletedBy after in_progress = %v, want empty", started.CompletedBy)
	}

	if _, err := f.tasks.Transition(ctx, task.ID, TransitionInput{Status: models.TaskCompleted}, testNow.Add(time.Hour)); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Transition(completed) without technicians error = %v, want validation", err)
	}
	unchanged, err := f.repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if unchanged.Status != models.TaskInProgress || unchanged.CompletedDate != nil {
		t.Errorf("rejected completion wrote the task: %+v", unchanged)
	}
	if !timesEqual(unchanged.UpdatedAt, started.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", unchanged.UpdatedAt, started.UpdatedAt)
	}

	later := testNow.Add(2 * time.Hour)
	done, err := f.tasks.Transition(ctx, task.ID, TransitionInput{Status: models.TaskCompleted, CompletedBy: []string{"Gustavo Fernandez", ""}, Notes: strPtr(" fixed ")}, later)
	if err != nil {
		t.Fatalf("Transition(completed) error = %v", err)
	}
	if done.CompletedDate == nil || !done.CompletedDate.Equal(later) || done.Notes != "fixed" {
		t.Errorf("completed task = %+v", done)
	}
	if !reflect.DeepEqual(done.CompletedBy, []string{"Gustavo Fernandez"}) {
		t.Errorf("CompletedBy = %v", done.CompletedBy)
	}

	if _, err := f.tasks.Update(ctx, task.ID, models.TaskInput{ClientID: c.ID, Description: "edit", ReportedBy: "Gustavo Fernandez"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Update() completed task error = %v, want validation", err)
	}
	if _, err := f.tasks.Transition(ctx, task.ID, TransitionInput{Status: models.TaskPending}, later); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Transition() out of completed error = %v, want validation", err)
	}

	if err := f.tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.tasks.Get(ctx, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")

	tests := []struct {
		name  string
		in    models.TaskInput
		field string
	}{
		{"no reporter", models.TaskInput{ClientID: c.ID, Description: "Leak"}, "reportedBy"},
		{"unknown reporter", models.TaskInput{ClientID: c.ID, Description: "Leak", ReportedBy: "Nobody Known"}, "reportedBy"},
		{"no description", models.TaskInput{ClientID: c.ID, ReportedBy: "Alan Spitel"}, "description"},
		{"bad priority", models.TaskInput{ClientID: c.ID, Description: "Leak", ReportedBy: "Alan Spitel", Priority: "asap"}, "priority"},
		{"missing client", models.TaskInput{ClientID: "gone", Description: "Leak", ReportedBy: "Alan Spitel"}, "clientId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.Create(ctx, tt.in, testNow)
			var verr *models.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Create() error = %v, want validation on %s", err, tt.field)
			}
		})
	}

	if _, err := f.tasks.Create(ctx, models.TaskInput{ClientID: c.ID, Description: "Leak", ReportedBy: "  Marco Sotola "}, testNow); err != nil {
		t.Errorf("Create() with padded known reporter error = %v", err)
	}
	tasks, _ := f.repo.ListTasks(ctx, c.ID)
	if len(tasks) != 1 || tasks[0].ReportedBy != "Marco Sotola" {
		t.Errorf("stored tasks = %+v, want only the valid one", tasks)
	}
}

func TestTaskService_ListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plaza := f.client(t, "Hotel Plaza")
	banco := f.client(t, "Banco Sur")
	f.tasks.Create(ctx, models.TaskInput{ClientID: plaza.ID, Description: "Leak", Priority: models.PriorityUrgent, ReportedBy: "Daniel Galvez"}, testNow)
	f.tasks.Create(ctx, models.TaskInput{ClientID: banco.ID, Description: "Sign", ReportedBy: "Daniel Galvez"}, testNow)

	list, err := f.tasks.List(ctx, listing.TaskFilter{Priority: "urgent", Status: "all"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].Description != "Leak" {
		t.Errorf("List() = %+v", list.Tasks)
	}
	if list.Tasks[0].PriorityBadge.Label != "Urgente" || list.Tasks[0].Client.CompanyName != "Hotel Plaza" {
		t.Errorf("view = %+v", list.Tasks[0])
	}
	if list.Counts.Total != 2 || list.Counts.Urgent != 1 {
		t.Errorf("Counts = %+v", list.Counts)
	}
}

func TestTaskService_GetMissingClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "Hotel Plaza")
	task, _ := f.tasks.Create(ctx, models.TaskInput{ClientID: c.ID, Description: "Leak", ReportedBy: "Daniel Galvez"}, testNow)
	f.clients.Delete(ctx, c.ID)

	view, err := f.tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if view.Client != nil {
		t.Errorf("Client = %+v, want nil for deleted client", view.Client)
	}
}

func strPtr(s string) *string { return &s }

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

package db

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"fireops/models"

	"github.com/rs/zerolog"
)

func newTestRepository() (*Repository, *MemoryStore) {
	store := NewMemoryStore()
	return NewRepository(store, zerolog.Nop()).WithLocation(time.UTC), store
}

func TestRepository_ClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	client := &models.Client{
		CompanyName:  "Hotel Plaza",
		Address:      "Florida 1005",
		ReportEmails: []string{"a@x.com", "b@x.com"},
		Frequency:    models.FrequencyMonthly,
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if client.ID == "" {
		t.Fatal("CreateClient() did not assign an id")
	}

	got, err := repo.GetClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	if got.CompanyName != "Hotel Plaza" || got.Frequency != models.FrequencyMonthly {
		t.Errorf("GetClient() = %+v", got)
	}
	if !reflect.DeepEqual(got.ReportEmails, client.ReportEmails) {
		t.Errorf("ReportEmails = %v, want %v", got.ReportEmails, client.ReportEmails)
	}
	if got.CreatedAt == nil || got.UpdatedAt == nil {
		t.Error("timestamps not decoded")
	}
}

func TestRepository_ListClientsSortedByName(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()
	for _, name := range []string{"Zeta SA", "acme", "Hotel Plaza"} {
		repo.CreateClient(ctx, &models.Client{CompanyName: name, Address: "x"})
	}

	clients, err := repo.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	var names []string
	for _, c := range clients {
		names = append(names, c.CompanyName)
	}
	want := []string{"acme", "Hotel Plaza", "Zeta SA"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListClients() names = %v, want %v", names, want)
	}
}

func TestRepository_ListVisitsNewestFirstNilLast(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	march := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	repo.CreateVisit(ctx, &models.Visit{ClientID: "c1", ScheduledDate: &march, Status: models.VisitScheduled})
	store.Create(ctx, KindVisits, map[string]interface{}{"clientId": "c1", "scheduledDate": "not a date", "status": "scheduled"})
	repo.CreateVisit(ctx, &models.Visit{ClientID: "c1", ScheduledDate: &april, Status: models.VisitCompleted})
	repo.CreateVisit(ctx, &models.Visit{ClientID: "c2", ScheduledDate: &april, Status: models.VisitScheduled})

	visits, err := repo.ListVisits(ctx, "c1")
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	if len(visits) != 3 {
		t.Fatalf("ListVisits() returned %d visits, want 3", len(visits))
	}
	if !visits[0].ScheduledDate.Equal(april) || !visits[1].ScheduledDate.Equal(march) {
		t.Errorf("unexpected order: %v, %v", visits[0].ScheduledDate, visits[1].ScheduledDate)
	}
	if visits[2].ScheduledDate != nil {
		t.Errorf("unparseable date decoded as %v, want nil", visits[2].ScheduledDate)
	}
}

func TestRepository_UnknownEnumsSurvive(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	id, _ := store.Create(ctx, KindTasks, map[string]interface{}{
		"clientId": "c1",
		"status":   "archived",
		"priority": "critical",
	})
	task, err := repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status.Known() || string(task.Status) != "archived" {
		t.Errorf("Status = %q, want unknown \"archived\"", task.Status)
	}
	if task.Priority.Known() || string(task.Priority) != "critical" {
		t.Errorf("Priority = %q, want unknown \"critical\"", task.Priority)
	}
	if task.CompletedBy == nil || task.Photos == nil {
		t.Error("missing list fields should decode to empty slices")
	}
}

func TestRepository_ManualTaskHasNoOrigin(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository()

	task := &models.CorrectiveTask{ClientID: "c1", Description: "Replace sign", Status: models.TaskPending}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	doc, _ := store.Get(ctx, KindTasks, task.ID)
	if doc.Fields[FieldOriginVisitID] != nil {
		t.Errorf("originVisitId = %v, want nil", doc.Fields[FieldOriginVisitID])
	}
	got, _ := repo.GetTask(ctx, task.ID)
	if got.OriginVisitID != "" {
		t.Errorf("OriginVisitID = %q, want empty", got.OriginVisitID)
	}
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	user := &models.User{UserID: "u1", Username: "alan", DisplayName: "Alan Spitel", Role: models.RoleTechnician}
	if err := repo.PutUser(ctx, user); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}
	if err := repo.StorePasswordHash(ctx, "u1", "hash"); err != nil {
		t.Fatalf("StorePasswordHash() error = %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alan")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.UserID != "u1" || got.Identifier() != "Alan Spitel" {
		t.Errorf("GetUserByUsername() = %+v", got)
	}

	hash, err := repo.GetPasswordHash(ctx, "u1")
	if err != nil || hash != "hash" {
		t.Errorf("GetPasswordHash() = %q, %v", hash, err)
	}

	if _, err := repo.GetUserByUsername(ctx, "ghost"); !IsNotFound(err) {
		t.Errorf("GetUserByUsername(ghost) error = %v, want not found", err)
	}

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := repo.TouchLogin(ctx, "u1", now); err != nil {
		t.Fatalf("TouchLogin() error = %v", err)
	}
	got, _ = repo.GetUser(ctx, "u1")
	if got.LastLogin == nil || !got.LastLogin.Equal(now) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, now)
	}
}

func TestRepository_PutUserRequiresID(t *testing.T) {
	repo, _ := newTestRepository()
	err := repo.PutUser(context.Background(), &models.User{Username: "x"})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("PutUser() error = %v, want validation error", err)
	}
}

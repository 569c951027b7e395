// Package service implements the client, visit and corrective-task
// workflows on top of the typed document repository.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fireops/models"

	"github.com/rs/zerolog"
)

// Entities is the typed store the services work against. *db.Repository
// satisfies it.
type Entities interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, client *models.Client) error
	UpdateClient(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteClient(ctx context.Context, id string) error

	ListVisits(ctx context.Context, clientID string) ([]models.Visit, error)
	GetVisit(ctx context.Context, id string) (*models.Visit, error)
	CreateVisit(ctx context.Context, visit *models.Visit) error
	UpdateVisit(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteVisit(ctx context.Context, id string) error

	ListTasks(ctx context.Context, clientID string) ([]models.CorrectiveTask, error)
	GetTask(ctx context.Context, id string) (*models.CorrectiveTask, error)
	CreateTask(ctx context.Context, task *models.CorrectiveTask) error
	UpdateTask(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteTask(ctx context.Context, id string) error
}

// requireClient resolves a referenced client, turning a missing one into
// a validation error on field.
func requireClient(ctx context.Context, store Entities, field, id string) (*models.Client, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError(field, "client is required")
	}
	client, err := store.GetClient(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewValidationError(field, "client not found")
	}
	return client, err
}

// lookupClient resolves a client for display; a missing client yields nil.
func lookupClient(ctx context.Context, store Entities, log zerolog.Logger, id string) *models.Client {
	client, err := store.GetClient(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warn().Err(err).Str("client_id", id).Msg("client lookup failed")
		}
		return nil
	}
	return client
}

func clientRef(clients map[string]models.Client, id string) *models.Client {
	if c, ok := clients[id]; ok {
		return &c
	}
	return nil
}

// parseSchedule combines a date and an optional HH:MM time in loc. A full
// RFC3339 timestamp in date is accepted as is.
func parseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, models.NewValidationError("scheduledDate", "date is required")
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.In(loc), nil
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = models.DefaultVisitTime
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", date, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("scheduledDate", "date must be YYYY-MM-DD and time HH:MM")
	}
	return t, nil
}

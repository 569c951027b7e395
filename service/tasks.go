package service

import (
	"context"
	"strings"
	"time"

	"fireops/db"
	"fireops/listing"
	"fireops/models"
	"fireops/workflow"

	"github.com/rs/zerolog"
)

// TaskService manages corrective tasks.
type TaskService struct {
	store Entities
	log   zerolog.Logger
}

func NewTaskService(store Entities, logger zerolog.Logger) *TaskService {
	return &TaskService{store: store, log: logger.With().Str("service", "tasks").Logger()}
}

// TaskView is a task joined with its client for display.
type TaskView struct {
	models.CorrectiveTask
	Client        *models.Client `json:"client"`
	StatusBadge   workflow.Badge `json:"statusBadge"`
	PriorityBadge workflow.Badge `json:"priorityBadge"`
}

func newTaskView(t models.CorrectiveTask, client *models.Client) TaskView {
	return TaskView{
		CorrectiveTask: t,
		Client:         client,
		StatusBadge:    workflow.TaskStatusBadge(t.Status),
		PriorityBadge:  workflow.PriorityBadge(t.Priority),
	}
}

// TaskList is the task page payload.
type TaskList struct {
	Tasks  []TaskView         `json:"tasks"`
	Counts listing.TaskCounts `json:"counts"`
}

// List returns tasks matching filter, most recently reported first.
func (s *TaskService) List(ctx context.Context, filter listing.TaskFilter) (*TaskList, error) {
	tasks, err := s.store.ListTasks(ctx, "")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list tasks")
		return nil, err
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list clients")
		return nil, err
	}
	index := listing.ClientIndex(clients)

	filtered := listing.FilterTasks(tasks, index, filter)
	out := &TaskList{Tasks: make([]TaskView, 0, len(filtered)), Counts: listing.CountTasksByStatus(tasks)}
	for _, t := range filtered {
		out.Tasks = append(out.Tasks, newTaskView(t, clientRef(index, t.ClientID)))
	}
	return out, nil
}

// Get returns a task with its client resolved.
func (s *TaskService) Get(ctx context.Context, id string) (*TaskView, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newTaskView(*task, lookupClient(ctx, s.store, s.log, task.ClientID))
	return &view, nil
}

// Create reports a manual task. It starts pending with no origin visit.
func (s *TaskService) Create(ctx context.Context, in models.TaskInput, now time.Time) (*models.CorrectiveTask, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := requireClient(ctx, s.store, "clientId", in.ClientID); err != nil {
		return nil, err
	}

	reported := now
	task := &models.CorrectiveTask{
		ClientID:     in.ClientID,
		Description:  strings.TrimSpace(in.Description),
		Priority:     priorityOrNormal(in.Priority),
		Status:       workflow.InitialTaskStatus(),
		ReportedDate: &reported,
		ReportedBy:   strings.TrimSpace(in.ReportedBy),
		CompletedBy:  []string{},
		Notes:        strings.TrimSpace(in.Notes),
		Photos:       []string{},
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		s.log.Error().Err(err).Str("client_id", in.ClientID).Msg("failed to create task")
		return nil, err
	}
	s.log.Info().Str("task_id", task.ID).Str("priority", string(task.Priority)).Msg("task created")
	return task, nil
}

// Update edits the report of a task that is not yet completed.
func (s *TaskService) Update(ctx context.Context, id string, in models.TaskInput) (*models.CorrectiveTask, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanEditTask(task.Status).Error(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := requireClient(ctx, s.store, "clientId", in.ClientID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		db.FieldClientID:    in.ClientID,
		db.FieldDescription: strings.TrimSpace(in.Description),
		db.FieldPriority:    string(priorityOrNormal(in.Priority)),
		db.FieldReportedBy:  strings.TrimSpace(in.ReportedBy),
		db.FieldNotes:       strings.TrimSpace(in.Notes),
	}
	if err := s.store.UpdateTask(ctx, id, fields); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to update task")
		return nil, err
	}
	return s.store.GetTask(ctx, id)
}

// TransitionInput moves a task to a new status. Notes and CompletedBy are
// only written when present, so a bare status change keeps what is stored.
type TransitionInput struct {
	Status      models.TaskStatus `json:"status"`
	CompletedBy []string          `json:"completedBy,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
}

// Transition applies a status change. Completing requires at least one
// technician and stamps the completion date.
func (s *TaskService) Transition(ctx context.Context, id string, in TransitionInput, now time.Time) (*models.CorrectiveTask, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	to := models.ParseTaskStatus(string(in.Status))

	var guard workflow.GuardResult
	if to == models.TaskCompleted {
		guard = workflow.CanCompleteTask(workflow.CompleteTaskContext{TaskID: id, Status: task.Status, CompletedBy: in.CompletedBy})
	} else {
		guard = workflow.CanTransitionTask(task.Status, to)
	}
	if err := guard.Error(); err != nil {
		return nil, err
	}

	result := workflow.ApplyTaskTransition(to, in.CompletedBy, now)
	fields := map[string]interface{}{
		db.FieldStatus: string(result.NewStatus),
	}
	if to == models.TaskCompleted || len(result.CompletedBy) > 0 {
		fields[db.FieldCompletedBy] = result.CompletedBy
	}
	if in.Notes != nil {
		fields[db.FieldNotes] = strings.TrimSpace(*in.Notes)
	}
	if result.CompletedDate != nil {
		fields[db.FieldCompletedDate] = *result.CompletedDate
	}
	if err := s.store.UpdateTask(ctx, id, fields); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to update task status")
		return nil, err
	}

	s.log.Info().Str("task_id", id).Str("from", string(task.Status)).Str("to", string(to)).Msg("task status changed")
	return s.store.GetTask(ctx, id)
}

// Delete removes a task at any status.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("failed to delete task")
		return err
	}
	return nil
}

func priorityOrNormal(p models.Priority) models.Priority {
	if p = models.ParsePriority(string(p)); p == "" {
		return models.PriorityNormal
	}
	return p
}

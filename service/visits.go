package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fireops/calendar"
	"fireops/db"
	"fireops/listing"
	"fireops/models"
	"fireops/workflow"

	"github.com/rs/zerolog"
)

// VisitService schedules, edits and completes preventive visits.
type VisitService struct {
	store Entities
	log   zerolog.Logger
	loc   *time.Location
}

// NewVisitService creates the service. Form dates are read in loc.
func NewVisitService(store Entities, logger zerolog.Logger, loc *time.Location) *VisitService {
	if loc == nil {
		loc = time.Local
	}
	return &VisitService{store: store, log: logger.With().Str("service", "visits").Logger(), loc: loc}
}

// VisitView is a visit joined with its client for display.
type VisitView struct {
	models.Visit
	Client      *models.Client `json:"client"`
	StatusBadge workflow.Badge `json:"statusBadge"`
}

func newVisitView(v models.Visit, client *models.Client) VisitView {
	return VisitView{Visit: v, Client: client, StatusBadge: workflow.VisitStatusBadge(v.Status)}
}

// VisitList is the visit page payload.
type VisitList struct {
	Visits []VisitView         `json:"visits"`
	Counts listing.VisitCounts `json:"counts"`
}

// List returns visits matching filter, earliest first.
func (s *VisitService) List(ctx context.Context, filter listing.VisitFilter) (*VisitList, error) {
	visits, err := s.store.ListVisits(ctx, "")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list visits")
		return nil, err
	}
	clients, err := s.clients(ctx)
	if err != nil {
		return nil, err
	}

	filtered := listing.SortVisitsByDate(listing.FilterVisits(visits, clients, filter))
	out := &VisitList{Visits: make([]VisitView, 0, len(filtered)), Counts: listing.CountVisitsByStatus(visits)}
	for _, v := range filtered {
		out.Visits = append(out.Visits, newVisitView(v, clientRef(clients, v.ClientID)))
	}
	return out, nil
}

// Get returns a visit with its client resolved.
func (s *VisitService) Get(ctx context.Context, id string) (*VisitView, error) {
	visit, err := s.store.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newVisitView(*visit, lookupClient(ctx, s.store, s.log, visit.ClientID))
	return &view, nil
}

// Schedule creates a new visit in the scheduled state. A date in the past
// is allowed and only marks the visit as recorded after the fact.
func (s *VisitService) Schedule(ctx context.Context, in models.VisitInput, now time.Time) (*models.Visit, error) {
	if _, err := requireClient(ctx, s.store, "clientId", in.ClientID); err != nil {
		return nil, err
	}
	when, err := parseSchedule(in.ScheduledDate, in.ScheduledTime, s.loc)
	if err != nil {
		return nil, err
	}

	visit := &models.Visit{
		ClientID:        in.ClientID,
		ScheduledDate:   &when,
		Status:          workflow.InitialVisitStatus(),
		Technicians:     models.CleanTechnicians(in.Technicians),
		Notes:           in.Notes,
		IsPastDateVisit: workflow.IsPastDate(when, now),
	}
	if err := s.store.CreateVisit(ctx, visit); err != nil {
		s.log.Error().Err(err).Str("client_id", in.ClientID).Msg("failed to schedule visit")
		return nil, err
	}
	s.log.Info().
		Str("visit_id", visit.ID).
		Str("client_id", visit.ClientID).
		Time("scheduled", when).
		Bool("past_date", visit.IsPastDateVisit).
		Msg("visit scheduled")
	return visit, nil
}

// Update reschedules a visit or changes its client, technicians or notes.
func (s *VisitService) Update(ctx context.Context, id string, in models.VisitInput, now time.Time) (*models.Visit, error) {
	visit, err := s.store.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanEditVisit(visit.Status).Error(); err != nil {
		return nil, err
	}
	if _, err := requireClient(ctx, s.store, "clientId", in.ClientID); err != nil {
		return nil, err
	}
	when, err := parseSchedule(in.ScheduledDate, in.ScheduledTime, s.loc)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		db.FieldClientID:        in.ClientID,
		db.FieldScheduledDate:   when,
		db.FieldTechnicians:     models.CleanTechnicians(in.Technicians),
		db.FieldNotes:           in.Notes,
		db.FieldIsPastDateVisit: workflow.IsPastDate(when, now),
	}
	if err := s.store.UpdateVisit(ctx, id, fields); err != nil {
		s.log.Error().Err(err).Str("visit_id", id).Msg("failed to update visit")
		return nil, err
	}
	return s.store.GetVisit(ctx, id)
}

// Delete removes a visit that has not been completed.
func (s *VisitService) Delete(ctx context.Context, id string) error {
	visit, err := s.store.GetVisit(ctx, id)
	if err != nil {
		return err
	}
	if err := workflow.CanDeleteVisit(visit.Status).Error(); err != nil {
		return err
	}
	if err := s.store.DeleteVisit(ctx, id); err != nil {
		s.log.Error().Err(err).Str("visit_id", id).Msg("failed to delete visit")
		return err
	}
	return nil
}

// CompleteVisitInput is the completion form of a visit.
type CompleteVisitInput struct {
	Technicians []string         `json:"technicians"`
	Notes       *string          `json:"notes,omitempty"` // nil keeps the stored notes
	Issues      []workflow.Issue `json:"issues"`
}

// CompletionResult is what a visit completion wrote.
type CompletionResult struct {
	Visit models.Visit            `json:"visit"`
	Tasks []models.CorrectiveTask `json:"tasks"`
}

// Complete marks a visit completed and spawns one pending corrective task
// per reported issue. The writes are not atomic: if a task cannot be
// created, the visit update and earlier tasks stay and a
// *models.PartialFailureError describes what was applied.
func (s *VisitService) Complete(ctx context.Context, id string, in CompleteVisitInput, now time.Time) (*CompletionResult, error) {
	visit, err := s.store.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	guard := workflow.CanCompleteVisit(workflow.CompleteVisitContext{
		VisitID:     id,
		Status:      visit.Status,
		Technicians: in.Technicians,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	issues, err := normalizeIssues(in.Issues)
	if err != nil {
		return nil, err
	}

	done := workflow.ApplyVisitCompletion(in.Technicians, now)
	fields := map[string]interface{}{
		db.FieldStatus:        string(done.NewStatus),
		db.FieldCompletedDate: done.CompletedDate,
		db.FieldTechnicians:   done.Technicians,
	}
	if in.Notes != nil {
		fields[db.FieldNotes] = strings.TrimSpace(*in.Notes)
	}
	if err := s.store.UpdateVisit(ctx, id, fields); err != nil {
		s.log.Error().Err(err).Str("visit_id", id).Msg("failed to complete visit")
		return nil, err
	}

	visit.Status = done.NewStatus
	visit.CompletedDate = &done.CompletedDate
	visit.Technicians = done.Technicians
	if in.Notes != nil {
		visit.Notes = strings.TrimSpace(*in.Notes)
	}
	result := &CompletionResult{Visit: *visit, Tasks: []models.CorrectiveTask{}}

	applied := []string{"visit " + id + " completed"}
	reporter := done.Technicians[0]
	for i, issue := range issues {
		task := workflow.IssueTask(*visit, issue, reporter, now)
		if err := s.store.CreateTask(ctx, &task); err != nil {
			s.log.Error().Err(err).
				Str("visit_id", id).
				Int("issue", i+1).
				Int("tasks_created", len(result.Tasks)).
				Msg("visit completion partially applied")
			return result, &models.PartialFailureError{
				Op:        "complete visit " + id,
				Completed: applied,
				Failed:    fmt.Sprintf("task for issue %d (%s)", i+1, issue.Description),
				Err:       err,
			}
		}
		applied = append(applied, "task "+task.ID)
		result.Tasks = append(result.Tasks, task)
	}

	s.log.Info().Str("visit_id", id).Int("tasks_created", len(result.Tasks)).Msg("visit completed")
	return result, nil
}

// normalizeIssues trims descriptions and defaults the priority to normal.
func normalizeIssues(issues []workflow.Issue) ([]workflow.Issue, error) {
	out := make([]workflow.Issue, 0, len(issues))
	for i, issue := range issues {
		issue.Description = strings.TrimSpace(issue.Description)
		if issue.Description == "" {
			return nil, models.NewValidationError(fmt.Sprintf("issues[%d].description", i), "issue description is required")
		}
		issue.Priority = models.ParsePriority(string(issue.Priority))
		if issue.Priority == "" {
			issue.Priority = models.PriorityNormal
		}
		if !issue.Priority.Known() {
			return nil, models.NewValidationError(fmt.Sprintf("issues[%d].priority", i), "priority must be urgent, normal or next_visit")
		}
		out = append(out, issue)
	}
	return out, nil
}

// Calendar builds the month grid around anchor from every visit.
func (s *VisitService) Calendar(ctx context.Context, anchor, now time.Time) (calendar.Month, error) {
	visits, err := s.store.ListVisits(ctx, "")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load visits for calendar")
		return calendar.Month{}, err
	}
	clients, err := s.clients(ctx)
	if err != nil {
		return calendar.Month{}, err
	}
	return calendar.Build(anchor.In(s.loc), visits, clients, now, calendar.WithLocation(s.loc)), nil
}

// Location is the zone form dates are interpreted in.
func (s *VisitService) Location() *time.Location { return s.loc }

func (s *VisitService) clients(ctx context.Context) (map[string]models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list clients")
		return nil, err
	}
	return listing.ClientIndex(clients), nil
}

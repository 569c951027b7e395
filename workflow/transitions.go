package workflow

import (
	"time"

	"fireops/models"
)

// VisitCompletionResult contains the fields written when a visit completes.
type VisitCompletionResult struct {
	NewStatus     models.VisitStatus
	CompletedDate time.Time
	Technicians   []string
}

// ApplyVisitCompletion computes the visit update for a completion at now.
// Callers run CanCompleteVisit first.
func ApplyVisitCompletion(technicians []string, now time.Time) VisitCompletionResult {
	return VisitCompletionResult{
		NewStatus:     models.VisitCompleted,
		CompletedDate: now,
		Technicians:   models.CleanTechnicians(technicians),
	}
}

// TaskTransitionResult contains the fields written on a task status change.
type TaskTransitionResult struct {
	NewStatus     models.TaskStatus
	CompletedDate *time.Time
	CompletedBy   []string
}

// ApplyTaskTransition computes the task update for a move to newStatus.
// The technician list is recorded on every move; CompletedDate is only
// stamped when the task completes.
func ApplyTaskTransition(newStatus models.TaskStatus, completedBy []string, now time.Time) TaskTransitionResult {
	result := TaskTransitionResult{
		NewStatus:   newStatus,
		CompletedBy: models.CleanTechnicians(completedBy),
	}
	if newStatus == models.TaskCompleted {
		result.CompletedDate = &now
	}
	return result
}

// IssueTask builds the corrective task spawned by one issue reported while
// completing a visit.
func IssueTask(visit models.Visit, issue Issue, reporter string, now time.Time) models.CorrectiveTask {
	reported := now
	return models.CorrectiveTask{
		ClientID:      visit.ClientID,
		OriginVisitID: visit.ID,
		Description:   issue.Description,
		Priority:      issue.Priority,
		Status:        models.TaskPending,
		ReportedDate:  &reported,
		ReportedBy:    reporter,
		CompletedBy:   []string{},
		Photos:        []string{},
	}
}

// Issue is a problem found during a visit.
type Issue struct {
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
}

// InitialVisitStatus returns the status of a newly scheduled visit.
func InitialVisitStatus() models.VisitStatus { return models.VisitScheduled }

// InitialTaskStatus returns the status of a newly reported task.
func InitialTaskStatus() models.TaskStatus { return models.TaskPending }

// IsPastDate reports whether a visit scheduled at date is being recorded
// after the fact. It is informational and never blocks anything.
func IsPastDate(date, now time.Time) bool { return date.Before(now) }

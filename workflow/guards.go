// Package workflow contains the status and priority rules for visits and
// corrective tasks. Guards are pure functions that evaluate preconditions
// without side effects.
package workflow

import (
	"fmt"

	"fireops/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Field   string // input field the rejection refers to, if any
}

// Error converts the guard result to a validation error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return models.NewValidationError(r.Field, r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(field, format string, args ...interface{}) GuardResult {
	return GuardResult{Allowed: false, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CompleteVisitContext provides context for visit completion guards.
type CompleteVisitContext struct {
	VisitID     string
	Status      models.VisitStatus
	Technicians []string
}

// CompleteTaskContext provides context for task completion guards.
type CompleteTaskContext struct {
	TaskID      string
	Status      models.TaskStatus
	CompletedBy []string
}

// CanTransitionVisit evaluates a visit status change.
// Rules:
// - Only scheduled -> completed exists
func CanTransitionVisit(from, to models.VisitStatus) GuardResult {
	if from == models.VisitScheduled && to == models.VisitCompleted {
		return allow()
	}
	return deny("status", "visit cannot move from %s to %s", from, to)
}

// CanCompleteVisit evaluates whether a visit can be completed.
// Rules:
// - Visit must be scheduled
// - At least one non-empty technician
func CanCompleteVisit(ctx CompleteVisitContext) GuardResult {
	if r := CanTransitionVisit(ctx.Status, models.VisitCompleted); !r.Allowed {
		return deny("status", "visit %s is %s and cannot be completed", ctx.VisitID, ctx.Status)
	}
	if len(models.CleanTechnicians(ctx.Technicians)) == 0 {
		return deny("technicians", "at least one technician required")
	}
	return allow()
}

// CanEditVisit evaluates whether a visit's schedule, technicians or notes
// can still be changed.
// Rules:
// - Visit must be scheduled
func CanEditVisit(status models.VisitStatus) GuardResult {
	if status != models.VisitScheduled {
		return deny("status", "only scheduled visits can be edited (current status: %s)", status)
	}
	return allow()
}

// CanDeleteVisit evaluates whether a visit can be deleted.
// Rules:
// - Visit must be scheduled
func CanDeleteVisit(status models.VisitStatus) GuardResult {
	if status != models.VisitScheduled {
		return deny("status", "only scheduled visits can be deleted (current status: %s)", status)
	}
	return allow()
}

// CanTransitionTask evaluates a task status change.
// Rules:
// - pending -> in_progress, pending -> completed, in_progress -> completed
// - Nothing leaves completed
func CanTransitionTask(from, to models.TaskStatus) GuardResult {
	switch {
	case from == models.TaskPending && (to == models.TaskInProgress || to == models.TaskCompleted):
		return allow()
	case from == models.TaskInProgress && to == models.TaskCompleted:
		return allow()
	case from == models.TaskCompleted:
		return deny("status", "task is already completed")
	default:
		return deny("status", "task cannot move from %s to %s", from, to)
	}
}

// CanCompleteTask evaluates whether a task can be completed.
// Rules:
// - Transition to completed must be allowed
// - At least one non-empty technician
func CanCompleteTask(ctx CompleteTaskContext) GuardResult {
	if r := CanTransitionTask(ctx.Status, models.TaskCompleted); !r.Allowed {
		return r
	}
	if len(models.CleanTechnicians(ctx.CompletedBy)) == 0 {
		return deny("completedBy", "at least one technician required")
	}
	return allow()
}

// CanEditTask evaluates whether a task's description, priority or notes
// can still be changed.
// Rules:
// - Task must not be completed
func CanEditTask(status models.TaskStatus) GuardResult {
	if status == models.TaskCompleted {
		return deny("status", "completed tasks cannot be edited")
	}
	return allow()
}

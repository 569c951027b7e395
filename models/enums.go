package models

import "strings"

// Enum values read from the store are kept as typed strings. A value that
// is not one of the declared constants is still representable; Known
// reports false for it and the raw text is preserved for display.

// Frequency is the contracted visit cadence of a client.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
)

// ParseFrequency converts raw store text into a Frequency.
func ParseFrequency(raw string) Frequency { return Frequency(strings.TrimSpace(raw)) }

// Known reports whether f is a declared frequency.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyBimonthly:
		return true
	}
	return false
}

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitCompleted VisitStatus = "completed"
)

// ParseVisitStatus converts raw store text into a VisitStatus.
func ParseVisitStatus(raw string) VisitStatus { return VisitStatus(strings.TrimSpace(raw)) }

// Known reports whether s is a declared visit status.
func (s VisitStatus) Known() bool {
	return s == VisitScheduled || s == VisitCompleted
}

// TaskStatus is the lifecycle state of a corrective task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// ParseTaskStatus converts raw store text into a TaskStatus.
func ParseTaskStatus(raw string) TaskStatus { return TaskStatus(strings.TrimSpace(raw)) }

// Known reports whether s is a declared task status.
func (s TaskStatus) Known() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Open reports whether the task still needs work.
func (s TaskStatus) Open() bool {
	return s == TaskPending || s == TaskInProgress
}

// Priority is the urgency classification of a corrective task.
type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityNormal    Priority = "normal"
	PriorityNextVisit Priority = "next_visit"
)

// ParsePriority converts raw store text into a Priority.
func ParsePriority(raw string) Priority { return Priority(strings.TrimSpace(raw)) }

// Known reports whether p is a declared priority.
func (p Priority) Known() bool {
	switch p {
	case PriorityUrgent, PriorityNormal, PriorityNextVisit:
		return true
	}
	return false
}

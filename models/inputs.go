package models

import "strings"

// ClientInput is the create/edit form of a client.
type ClientInput struct {
	CompanyName      string    `json:"companyName"`
	ReferentName     string    `json:"referentName"`
	ReferentPosition string    `json:"referentPosition"`
	Address          string    `json:"address"`
	ContractRef      string    `json:"contractRef"`
	ReportEmails     string    `json:"reportEmails"` // comma separated
	Frequency        Frequency `json:"frequency"`
}

// Client builds the record described by the form. An empty frequency
// defaults to monthly.
func (in ClientInput) Client() (*Client, error) {
	freq := ParseFrequency(string(in.Frequency))
	if freq == "" {
		freq = FrequencyMonthly
	}
	c := &Client{
		CompanyName:      strings.TrimSpace(in.CompanyName),
		ReferentName:     strings.TrimSpace(in.ReferentName),
		ReferentPosition: strings.TrimSpace(in.ReferentPosition),
		Address:          strings.TrimSpace(in.Address),
		ContractRef:      strings.TrimSpace(in.ContractRef),
		ReportEmails:     ParseReportEmails(in.ReportEmails),
		Frequency:        freq,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !freq.Known() {
		return nil, NewValidationError("frequency", "frequency must be weekly, monthly or bimonthly")
	}
	return c, nil
}

// VisitInput is the schedule/edit form of a visit.
type VisitInput struct {
	ClientID      string   `json:"clientId"`
	ScheduledDate string   `json:"scheduledDate"` // YYYY-MM-DD or a full timestamp
	ScheduledTime string   `json:"scheduledTime"` // HH:MM, defaults to 09:00
	Technicians   []string `json:"technicians"`
	Notes         string   `json:"notes"`
}

// DefaultVisitTime is used when a visit is scheduled without a time.
const DefaultVisitTime = "09:00"

// TaskInput is the create/edit form of a corrective task.
type TaskInput struct {
	ClientID    string   `json:"clientId"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	ReportedBy  string   `json:"reportedBy"`
	Notes       string   `json:"notes"`
}

// Validate checks the fields required to report a task.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.ClientID) == "" {
		return NewValidationError("clientId", "client is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return NewValidationError("description", "description is required")
	}
	reporter := strings.TrimSpace(in.ReportedBy)
	if reporter == "" {
		return NewValidationError("reportedBy", "reporter is required")
	}
	if !IsKnownTechnician(reporter) {
		return NewValidationError("reportedBy", "reporter must be a known technician")
	}
	if p := ParsePriority(string(in.Priority)); p != "" && !p.Known() {
		return NewValidationError("priority", "priority must be urgent, normal or next_visit")
	}
	return nil
}

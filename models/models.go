// models.go
// Defines the core records of the maintenance backend: clients, preventive
// visits, corrective tasks, device-local reminders and authenticated users.

package models

import (
	"strings"
	"time"
)

// AvailableTechnicians is the fixed roster of field technicians.
var AvailableTechnicians = []string{
	"Alan Spitel",
	"Daniel Galvez",
	"Gustavo Fernandez",
	"Marco Sotola",
}

// Client is a service-contract company record.
type Client struct {
	ID               string     `json:"id"`
	CompanyName      string     `json:"companyName"`
	ReferentName     string     `json:"referentName"`
	ReferentPosition string     `json:"referentPosition"`
	Address          string     `json:"address"`
	ContractRef      string     `json:"contractRef,omitempty"`
	ReportEmails     []string   `json:"reportEmails"`
	Frequency        Frequency  `json:"frequency"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Validate checks the fields required at creation time.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return NewValidationError("companyName", "company name is required")
	}
	if strings.TrimSpace(c.Address) == "" {
		return NewValidationError("address", "address is required")
	}
	return nil
}

// Visit is a scheduled or completed preventive-maintenance inspection.
type Visit struct {
	ID              string      `json:"id"`
	ClientID        string      `json:"clientId"`
	ScheduledDate   *time.Time  `json:"scheduledDate"` // nil when missing or unparseable
	Status          VisitStatus `json:"status"`
	Technicians     []string    `json:"technicians"`
	Notes           string      `json:"notes"`
	CompletedDate   *time.Time  `json:"completedDate"`
	IsPastDateVisit bool        `json:"isPastDateVisit"` // informational only
	CreatedAt       *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

// CorrectiveTask is a repair ticket, created manually or spawned by a visit.
type CorrectiveTask struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"clientId"`
	OriginVisitID string     `json:"originVisitId,omitempty"` // empty for manual tasks
	Description   string     `json:"description"`
	Priority      Priority   `json:"priority"`
	Status        TaskStatus `json:"status"`
	ReportedDate  *time.Time `json:"reportedDate"`
	ReportedBy    string     `json:"reportedBy"`
	CompletedDate *time.Time `json:"completedDate"`
	CompletedBy   []string   `json:"completedBy"`
	Notes         string     `json:"notes"`
	Photos        []string   `json:"photos"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Reminder is a device-local note. It never reaches the shared store.
type Reminder struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM, optional
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// UserRole defines the access level of a user.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleTechnician UserRole = "TECHNICIAN"
)

// ParseUserRole accepts a role in any case. Unknown roles parse to "".
func ParseUserRole(s string) UserRole {
	switch r := UserRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTechnician:
		return r
	}
	return ""
}

// User is the authenticated user handle.
type User struct {
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        UserRole   `json:"role"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// Identifier is the display identifier shown on the dashboard.
func (u *User) Identifier() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// ParseReportEmails splits comma-separated input, trimming and dropping empties.
func ParseReportEmails(input string) []string {
	emails := []string{}
	for _, part := range strings.Split(input, ",") {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// CleanTechnicians drops blank entries. Order and duplicates are kept.
func CleanTechnicians(names []string) []string {
	cleaned := []string{}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		cleaned = append(cleaned, name)
	}
	return cleaned
}

// IsKnownTechnician reports whether name belongs to the roster.
func IsKnownTechnician(name string) bool {
	for _, t := range AvailableTechnicians {
		if t == name {
			return true
		}
	}
	return false
}

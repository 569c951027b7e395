package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"fireops/models"

	"github.com/rs/zerolog"
)

// Field names shared by documents and partial updates.
const (
	FieldClientID         = "clientId"
	FieldCompanyName      = "companyName"
	FieldReferentName     = "referentName"
	FieldReferentPosition = "referentPosition"
	FieldAddress          = "address"
	FieldContractRef      = "contractRef"
	FieldReportEmails     = "reportEmails"
	FieldFrequency        = "frequency"
	FieldScheduledDate    = "scheduledDate"
	FieldStatus           = "status"
	FieldTechnicians      = "technicians"
	FieldNotes            = "notes"
	FieldCompletedDate    = "completedDate"
	FieldIsPastDateVisit  = "isPastDateVisit"
	FieldOriginVisitID    = "originVisitId"
	FieldDescription      = "description"
	FieldPriority         = "priority"
	FieldReportedDate     = "reportedDate"
	FieldReportedBy       = "reportedBy"
	FieldCompletedBy      = "completedBy"
	FieldPhotos           = "photos"
)

// Repository decodes store documents into models. All timestamps leave the
// repository either nil or expressed in loc.
type Repository struct {
	store Store
	log   zerolog.Logger
	loc   *time.Location
}

// NewRepository wraps a Store with typed accessors.
func NewRepository(store Store, logger zerolog.Logger) *Repository {
	return &Repository{store: store, log: logger, loc: time.Local}
}

// WithLocation returns a copy that normalises timestamps into loc.
func (r *Repository) WithLocation(loc *time.Location) *Repository {
	cp := *r
	cp.loc = loc
	return &cp
}

// Store exposes the underlying document store.
func (r *Repository) Store() Store { return r.store }

// --- Client Operations ---

// ListClients returns every client ordered by company name.
func (r *Repository) ListClients(ctx context.Context) ([]models.Client, error) {
	docs, err := r.store.List(ctx, KindClients, Filter{})
	if err != nil {
		return nil, err
	}
	clients := make([]models.Client, 0, len(docs))
	for _, doc := range docs {
		clients = append(clients, r.decodeClient(doc))
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].CompanyName) < strings.ToLower(clients[j].CompanyName)
	})
	return clients, nil
}

// GetClient retrieves a client by ID
func (r *Repository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	doc, err := r.store.Get(ctx, KindClients, id)
	if err != nil {
		return nil, err
	}
	client := r.decodeClient(doc)
	return &client, nil
}

// CreateClient stores a new client and fills in its ID.
func (r *Repository) CreateClient(ctx context.Context, client *models.Client) error {
	id, err := r.store.Create(ctx, KindClients, ClientFields(client))
	if err != nil {
		return err
	}
	client.ID = id
	return nil
}

// UpdateClient overwrites the given client fields.
func (r *Repository) UpdateClient(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.store.Update(ctx, KindClients, id, fields)
}

// DeleteClient removes a client. Its visits and tasks are left in place.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	return r.store.Delete(ctx, KindClients, id)
}

// ClientFields encodes the mutable fields of a client.
func ClientFields(c *models.Client) map[string]interface{} {
	emails := c.ReportEmails
	if emails == nil {
		emails = []string{}
	}
	return map[string]interface{}{
		FieldCompanyName:      c.CompanyName,
		FieldReferentName:     c.ReferentName,
		FieldReferentPosition: c.ReferentPosition,
		FieldAddress:          c.Address,
		FieldContractRef:      c.ContractRef,
		FieldReportEmails:     emails,
		FieldFrequency:        string(c.Frequency),
	}
}

func (r *Repository) decodeClient(doc Document) models.Client {
	f := doc.Fields
	return models.Client{
		ID:               doc.ID,
		CompanyName:      asString(f[FieldCompanyName]),
		ReferentName:     asString(f[FieldReferentName]),
		ReferentPosition: asString(f[FieldReferentPosition]),
		Address:          asString(f[FieldAddress]),
		ContractRef:      asString(f[FieldContractRef]),
		ReportEmails:     asStrings(f[FieldReportEmails]),
		Frequency:        models.ParseFrequency(asString(f[FieldFrequency])),
		CreatedAt:        asTime(f[fieldCreatedAt], r.loc),
		UpdatedAt:        asTime(f[fieldUpdatedAt], r.loc),
	}
}

// --- Visit Operations ---

// ListVisits returns visits, optionally for one client, newest scheduled
// date first. Visits without a date sort last.
func (r *Repository) ListVisits(ctx context.Context, clientID string) ([]models.Visit, error) {
	filter := Filter{}
	if clientID != "" {
		filter = Where(FieldClientID, clientID)
	}
	docs, err := r.store.List(ctx, KindVisits, filter)
	if err != nil {
		return nil, err
	}
	visits := make([]models.Visit, 0, len(docs))
	for _, doc := range docs {
		visits = append(visits, r.decodeVisit(doc))
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return newerFirst(visits[i].ScheduledDate, visits[j].ScheduledDate)
	})
	return visits, nil
}

// GetVisit retrieves a visit by ID
func (r *Repository) GetVisit(ctx context.Context, id string) (*models.Visit, error) {
	doc, err := r.store.Get(ctx, KindVisits, id)
	if err != nil {
		return nil, err
	}
	visit := r.decodeVisit(doc)
	return &visit, nil
}

// CreateVisit stores a new visit and fills in its ID.
func (r *Repository) CreateVisit(ctx context.Context, visit *models.Visit) error {
	id, err := r.store.Create(ctx, KindVisits, VisitFields(visit))
	if err != nil {
		return err
	}
	visit.ID = id
	return nil
}

// UpdateVisit overwrites the given visit fields.
func (r *Repository) UpdateVisit(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.store.Update(ctx, KindVisits, id, fields)
}

// DeleteVisit removes a visit.
func (r *Repository) DeleteVisit(ctx context.Context, id string) error {
	return r.store.Delete(ctx, KindVisits, id)
}

// VisitFields encodes every stored field of a visit.
func VisitFields(v *models.Visit) map[string]interface{} {
	technicians := v.Technicians
	if technicians == nil {
		technicians = []string{}
	}
	return map[string]interface{}{
		FieldClientID:        v.ClientID,
		FieldScheduledDate:   timeValue(v.ScheduledDate),
		FieldStatus:          string(v.Status),
		FieldTechnicians:     technicians,
		FieldNotes:           v.Notes,
		FieldCompletedDate:   timeValue(v.CompletedDate),
		FieldIsPastDateVisit: v.IsPastDateVisit,
	}
}

func (r *Repository) decodeVisit(doc Document) models.Visit {
	f := doc.Fields
	return models.Visit{
		ID:              doc.ID,
		ClientID:        asString(f[FieldClientID]),
		ScheduledDate:   asTime(f[FieldScheduledDate], r.loc),
		Status:          models.ParseVisitStatus(asString(f[FieldStatus])),
		Technicians:     asStrings(f[FieldTechnicians]),
		Notes:           asString(f[FieldNotes]),
		CompletedDate:   asTime(f[FieldCompletedDate], r.loc),
		IsPastDateVisit: asBool(f[FieldIsPastDateVisit]),
		CreatedAt:       asTime(f[fieldCreatedAt], r.loc),
		UpdatedAt:       asTime(f[fieldUpdatedAt], r.loc),
	}
}

// --- Corrective Task Operations ---

// ListTasks returns tasks, optionally for one client, most recently
// reported first.
func (r *Repository) ListTasks(ctx context.Context, clientID string) ([]models.CorrectiveTask, error) {
	filter := Filter{}
	if clientID != "" {
		filter = Where(FieldClientID, clientID)
	}
	docs, err := r.store.List(ctx, KindTasks, filter)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.CorrectiveTask, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, r.decodeTask(doc))
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return newerFirst(tasks[i].ReportedDate, tasks[j].ReportedDate)
	})
	return tasks, nil
}

// GetTask retrieves a corrective task by ID
func (r *Repository) GetTask(ctx context.Context, id string) (*models.CorrectiveTask, error) {
	doc, err := r.store.Get(ctx, KindTasks, id)
	if err != nil {
		return nil, err
	}
	task := r.decodeTask(doc)
	return &task, nil
}

// CreateTask stores a new corrective task and fills in its ID.
func (r *Repository) CreateTask(ctx context.Context, task *models.CorrectiveTask) error {
	id, err := r.store.Create(ctx, KindTasks, TaskFields(task))
	if err != nil {
		return err
	}
	task.ID = id
	return nil
}

// UpdateTask overwrites the given task fields.
func (r *Repository) UpdateTask(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.store.Update(ctx, KindTasks, id, fields)
}

// DeleteTask removes a corrective task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	return r.store.Delete(ctx, KindTasks, id)
}

// TaskFields encodes every stored field of a corrective task. Manual tasks
// carry a nil originVisitId.
func TaskFields(t *models.CorrectiveTask) map[string]interface{} {
	completedBy := t.CompletedBy
	if completedBy == nil {
		completedBy = []string{}
	}
	photos := t.Photos
	if photos == nil {
		photos = []string{}
	}
	var origin interface{}
	if t.OriginVisitID != "" {
		origin = t.OriginVisitID
	}
	return map[string]interface{}{
		FieldClientID:      t.ClientID,
		FieldOriginVisitID: origin,
		FieldDescription:   t.Description,
		FieldPriority:      string(t.Priority),
		FieldStatus:        string(t.Status),
		FieldReportedDate:  timeValue(t.ReportedDate),
		FieldReportedBy:    t.ReportedBy,
		FieldCompletedDate: timeValue(t.CompletedDate),
		FieldCompletedBy:   completedBy,
		FieldNotes:         t.Notes,
		FieldPhotos:        photos,
	}
}

func (r *Repository) decodeTask(doc Document) models.CorrectiveTask {
	f := doc.Fields
	return models.CorrectiveTask{
		ID:            doc.ID,
		ClientID:      asString(f[FieldClientID]),
		OriginVisitID: asString(f[FieldOriginVisitID]),
		Description:   asString(f[FieldDescription]),
		Priority:      models.ParsePriority(asString(f[FieldPriority])),
		Status:        models.ParseTaskStatus(asString(f[FieldStatus])),
		ReportedDate:  asTime(f[FieldReportedDate], r.loc),
		ReportedBy:    asString(f[FieldReportedBy]),
		CompletedDate: asTime(f[FieldCompletedDate], r.loc),
		CompletedBy:   asStrings(f[FieldCompletedBy]),
		Notes:         asString(f[FieldNotes]),
		Photos:        asStrings(f[FieldPhotos]),
		CreatedAt:     asTime(f[fieldCreatedAt], r.loc),
		UpdatedAt:     asTime(f[fieldUpdatedAt], r.loc),
	}
}

// --- User Operations ---

// PutUser creates or replaces a user under its UserID.
func (r *Repository) PutUser(ctx context.Context, user *models.User) error {
	if user.UserID == "" {
		return models.NewValidationError("user_id", "user id is required")
	}
	return r.store.Put(ctx, KindUsers, user.UserID, map[string]interface{}{
		"user_id":      user.UserID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"role":         string(user.Role),
		"last_login":   timeValue(user.LastLogin),
	})
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	doc, err := r.store.Get(ctx, KindUsers, userID)
	if err != nil {
		return nil, err
	}
	user := r.decodeUser(doc)
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	docs, err := r.store.List(ctx, KindUsers, Where("username", username))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, models.NotFound("user", username)
	}
	user := r.decodeUser(docs[0])
	return &user, nil
}

// ListUsers returns every user ordered by username.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	docs, err := r.store.List(ctx, KindUsers, Filter{})
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, r.decodeUser(doc))
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// TouchLogin records a successful login.
func (r *Repository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	return r.store.Update(ctx, KindUsers, userID, map[string]interface{}{"last_login": at})
}

func (r *Repository) decodeUser(doc Document) models.User {
	f := doc.Fields
	id := asString(f["user_id"])
	if id == "" {
		id = doc.ID
	}
	return models.User{
		UserID:      id,
		Username:    asString(f["username"]),
		DisplayName: asString(f["display_name"]),
		Role:        models.UserRole(asString(f["role"])),
		LastLogin:   asTime(f["last_login"], r.loc),
	}
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (r *Repository) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return r.store.Put(ctx, KindPasswords, userID, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
	})
}

// GetPasswordHash retrieves a password hash for a user
func (r *Repository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	doc, err := r.store.Get(ctx, KindPasswords, userID)
	if err != nil {
		return "", err
	}
	if hash, ok := doc.Fields["password_hash"].(string); ok && hash != "" {
		return hash, nil
	}
	return "", fmt.Errorf("password hash for user %s: %w", userID, models.ErrNotFound)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, models.ErrNotFound) }

// newerFirst orders by descending time with nil values last.
func newerFirst(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

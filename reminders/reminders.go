// Package reminders manages the device-local reminder list. Reminders never
// reach the shared document store; the whole list is rewritten on every
// change.
package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fireops/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StorageKey is the key the list is kept under.
const StorageKey = "reminders"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Input is the editable part of a reminder.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// Validate checks that title and date are present and well formed.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return models.NewValidationError("date", "date is required")
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(in.Date)); err != nil {
		return models.NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	if t := strings.TrimSpace(in.Time); t != "" {
		if _, err := time.Parse(timeLayout, t); err != nil {
			return models.NewValidationError("time", "time must be formatted as HH:MM")
		}
	}
	return nil
}

// Repository reads and writes the reminder list through a Backend.
type Repository struct {
	mu      sync.Mutex
	backend Backend
	log     zerolog.Logger
	clock   func() time.Time
}

// NewRepository creates a repository over backend.
func NewRepository(backend Backend, logger zerolog.Logger) *Repository {
	return &Repository{backend: backend, log: logger, clock: time.Now}
}

// SetClock replaces the time source used for createdAt and overdue checks.
func (r *Repository) SetClock(clock func() time.Time) { r.clock = clock }

// Now returns the repository's current time.
func (r *Repository) Now() time.Time { return r.clock() }

// List returns every reminder in display order.
func (r *Repository) List(ctx context.Context) ([]models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return Sorted(list), nil
}

// Get returns one reminder.
func (r *Repository) Get(ctx context.Context, id string) (*models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, models.NotFound("reminder", id)
	}
	rem := list[i]
	return &rem, nil
}

// Create appends a new pending reminder.
func (r *Repository) Create(ctx context.Context, in Input) (*models.Reminder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rem := models.Reminder{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		CreatedAt:   r.clock().UTC().Format(time.RFC3339),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.save(ctx, append(list, rem)); err != nil {
		return nil, err
	}
	return &rem, nil
}

// Update replaces the editable fields. ID, completion and createdAt are kept.
func (r *Repository) Update(ctx context.Context, id string, in Input) (*models.Reminder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return r.mutate(ctx, id, func(rem *models.Reminder) {
		rem.Title = strings.TrimSpace(in.Title)
		rem.Description = in.Description
		rem.Date = strings.TrimSpace(in.Date)
		rem.Time = strings.TrimSpace(in.Time)
	})
}

// Toggle flips the completed flag.
func (r *Repository) Toggle(ctx context.Context, id string) (*models.Reminder, error) {
	return r.mutate(ctx, id, func(rem *models.Reminder) { rem.Completed = !rem.Completed })
}

// Delete removes a reminder. Unknown ids are ignored.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil
	}
	return r.save(ctx, append(list[:i:i], list[i+1:]...))
}

func (r *Repository) mutate(ctx context.Context, id string, apply func(*models.Reminder)) (*models.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil, models.NotFound("reminder", id)
	}
	apply(&list[i])
	if err := r.save(ctx, list); err != nil {
		return nil, err
	}
	rem := list[i]
	return &rem, nil
}

// load treats unreadable JSON as an empty list.
func (r *Repository) load(ctx context.Context) ([]models.Reminder, error) {
	data, err := r.backend.Load(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	if len(data) == 0 {
		return []models.Reminder{}, nil
	}
	var stored []storedReminder
	if err := json.Unmarshal(data, &stored); err != nil {
		r.log.Warn().Err(err).Msg("discarding unreadable reminder list")
		return []models.Reminder{}, nil
	}
	list := make([]models.Reminder, 0, len(stored))
	for _, s := range stored {
		list = append(list, s.reminder())
	}
	return list, nil
}

func (r *Repository) save(ctx context.Context, list []models.Reminder) error {
	if list == nil {
		list = []models.Reminder{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}
	if err := r.backend.Save(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}

func indexOf(list []models.Reminder, id string) int {
	for i, rem := range list {
		if rem.ID == id {
			return i
		}
	}
	return -1
}

// storedReminder accepts the numeric ids written by older clients.
type storedReminder struct {
	ID          flexibleID `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Completed   bool       `json:"completed"`
	CreatedAt   string     `json:"createdAt"`
}

func (s storedReminder) reminder() models.Reminder {
	return models.Reminder{
		ID:          string(s.ID),
		Title:       s.Title,
		Description: s.Description,
		Date:        s.Date,
		Time:        s.Time,
		Completed:   s.Completed,
		CreatedAt:   s.CreatedAt,
	}
}

type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// --- Ordering and overdue rules ---

// at resolves the reminder's date and time in loc, using fallback when the
// time is missing. ok is false for an unparseable date.
func at(rem models.Reminder, fallback string, loc *time.Location) (time.Time, bool) {
	clock := strings.TrimSpace(rem.Time)
	if clock == "" {
		clock = fallback
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, strings.TrimSpace(rem.Date)+" "+clock, loc)
	if err != nil {
		day, derr := time.ParseInLocation(dateLayout, strings.TrimSpace(rem.Date), loc)
		if derr != nil {
			return time.Time{}, false
		}
		return day, true
	}
	return t, true
}

// Sorted returns a copy with pending reminders first, each group ordered by
// date and time (missing time counts as 00:00).
func Sorted(list []models.Reminder) []models.Reminder {
	out := append([]models.Reminder{}, list...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		ta, okA := at(a, "00:00", time.UTC)
		tb, okB := at(b, "00:00", time.UTC)
		if okA != okB {
			return okA
		}
		return ta.Before(tb)
	})
	return out
}

// Overdue reports whether a pending reminder's moment has passed. A reminder
// without a time is due at 23:59 of its day.
func Overdue(rem models.Reminder, now time.Time) bool {
	if rem.Completed {
		return false
	}
	t, ok := at(rem, "23:59", now.Location())
	return ok && t.Before(now)
}

// OverdueCount counts overdue reminders.
func OverdueCount(list []models.Reminder, now time.Time) int {
	n := 0
	for _, rem := range list {
		if Overdue(rem, now) {
			n++
		}
	}
	return n
}

// Upcoming returns up to n pending reminders, earliest first.
func Upcoming(list []models.Reminder, n int) []models.Reminder {
	out := []models.Reminder{}
	for _, rem := range Sorted(list) {
		if rem.Completed {
			continue
		}
		if n >= 0 && len(out) == n {
			break
		}
		out = append(out, rem)
	}
	return out
}

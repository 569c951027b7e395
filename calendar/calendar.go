// Package calendar buckets visits into a month grid of whole weeks.
package calendar

import (
	"sort"
	"time"

	"fireops/models"
)

// DefaultPreview is the number of visits shown in a day cell before the
// overflow indicator takes over.
const DefaultPreview = 3

const dayKeyLayout = "2006-01-02"

// Entry is a visit joined with its client. Client is nil when the visit
// references a client that no longer exists.
type Entry struct {
	Visit  models.Visit   `json:"visit"`
	Client *models.Client `json:"client"`
}

// Day is one cell of the grid.
type Day struct {
	Date    time.Time `json:"date"`
	InMonth bool      `json:"inMonth"`
	IsToday bool      `json:"isToday"`
	Visits  []Entry   `json:"visits"`
}

// Preview returns at most n entries of the day.
func (d Day) Preview(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if len(d.Visits) <= n {
		return d.Visits
	}
	return d.Visits[:n]
}

// Overflow returns how many entries Preview(n) leaves out.
func (d Day) Overflow(n int) int {
	if extra := len(d.Visits) - n; extra > 0 {
		return extra
	}
	return 0
}

// Month is the grid for one anchor month.
type Month struct {
	Anchor time.Time `json:"anchor"` // first day of the month
	Start  time.Time `json:"start"`  // first grid day
	End    time.Time `json:"end"`    // last grid day
	Days   []Day     `json:"days"`
}

// Weeks splits the grid into rows of seven days.
func (m Month) Weeks() [][]Day {
	weeks := make([][]Day, 0, len(m.Days)/7)
	for i := 0; i+7 <= len(m.Days); i += 7 {
		weeks = append(weeks, m.Days[i:i+7])
	}
	return weeks
}

// DayDetail returns every entry of date sorted by time of day. A date
// outside the grid yields an empty list.
func (m Month) DayDetail(date time.Time) []Entry {
	key := date.In(m.Anchor.Location()).Format(dayKeyLayout)
	for _, d := range m.Days {
		if d.Date.Format(dayKeyLayout) == key {
			out := make([]Entry, len(d.Visits))
			copy(out, d.Visits)
			return out
		}
	}
	return []Entry{}
}

type options struct {
	weekStart time.Weekday
	loc       *time.Location
}

// Option customises Build.
type Option func(*options)

// WithWeekStart sets the first column of the grid. Sunday by default.
func WithWeekStart(day time.Weekday) Option {
	return func(o *options) { o.weekStart = day }
}

// WithLocation sets the zone used to decide which day a visit falls on.
// The anchor's location is used by default.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// Build lays out the month containing anchor and buckets visits into it.
// Visits without a scheduled date are skipped.
func Build(anchor time.Time, visits []models.Visit, clients map[string]models.Client, now time.Time, opts ...Option) Month {
	o := options{weekStart: time.Sunday, loc: anchor.Location()}
	for _, opt := range opts {
		opt(&o)
	}

	first := FirstOfMonth(anchor.In(o.loc))
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int((7+first.Weekday()-o.weekStart)%7))
	endWeekday := (o.weekStart + 6) % 7
	end := last.AddDate(0, 0, int((7+endWeekday-last.Weekday())%7))

	buckets := bucket(visits, clients, o.loc)
	todayKey := now.In(o.loc).Format(dayKeyLayout)

	days := []Day{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayKeyLayout)
		entries := buckets[key]
		if entries == nil {
			entries = []Entry{}
		}
		days = append(days, Day{
			Date:    d,
			InMonth: d.Month() == first.Month() && d.Year() == first.Year(),
			IsToday: key == todayKey,
			Visits:  entries,
		})
	}

	return Month{Anchor: first, Start: start, End: end, Days: days}
}

func bucket(visits []models.Visit, clients map[string]models.Client, loc *time.Location) map[string][]Entry {
	buckets := make(map[string][]Entry)
	for _, v := range visits {
		if v.ScheduledDate == nil {
			continue
		}
		entry := Entry{Visit: v}
		if c, ok := clients[v.ClientID]; ok {
			entry.Client = &c
		}
		key := v.ScheduledDate.In(loc).Format(dayKeyLayout)
		buckets[key] = append(buckets[key], entry)
	}
	for key := range buckets {
		entries := buckets[key]
		sort.SliceStable(entries, func(i, j int) bool {
			return clockOf(entries[i].Visit.ScheduledDate, loc) < clockOf(entries[j].Visit.ScheduledDate, loc)
		})
	}
	return buckets
}

func clockOf(t *time.Time, loc *time.Location) time.Duration {
	local := t.In(loc)
	return time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
}

// FirstOfMonth returns midnight of the first day of t's month in t's zone.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// NextMonth moves the anchor forward one month.
func NextMonth(anchor time.Time) time.Time { return FirstOfMonth(anchor).AddDate(0, 1, 0) }

// PrevMonth moves the anchor back one month.
func PrevMonth(anchor time.Time) time.Time { return FirstOfMonth(anchor).AddDate(0, -1, 0) }

// Today jumps the anchor to the current month.
func Today(now time.Time) time.Time { return FirstOfMonth(now) }

// ParseMonth reads a YYYY-MM anchor in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("month", "month must be formatted as YYYY-MM")
	}
	return t, nil
}

// ParseDay reads a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, s, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

package handlers

import (
	"errors"
	"net/http"

	"fireops/calendar"
	"fireops/listing"
	"fireops/middleware"
	"fireops/models"
	"fireops/service"
)

type VisitHandler struct {
	visits *service.VisitService
	now    Clock
}

func NewVisitHandler(visits *service.VisitService, now Clock) *VisitHandler {
	return &VisitHandler{visits: visits, now: now}
}

// List returns visits earliest first, filtered by ?status= and ?search=.
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.visits.List(r.Context(), listing.VisitFilter{
		Status: queryValue(r, "status"),
		Search: queryValue(r, "search"),
	})
	if err != nil {
		degraded(r, "visits", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"visits":   []service.VisitView{},
			"counts":   listing.VisitCounts{},
			"degraded": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	visit, err := h.visits.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// Create schedules a visit.
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.VisitInput
	if !decodeJSON(w, r, &in) {
		return
	}
	visit, err := h.visits.Schedule(r.Context(), in, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.VisitInput
	if !decodeJSON(w, r, &in) {
		return
	}
	visit, err := h.visits.Update(r.Context(), r.PathValue("id"), in, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.visits.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Visit deleted"})
}

// Complete closes a visit and opens one corrective task per reported issue.
// A partially applied completion answers 207 with what was written.
func (h *VisitHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var in service.CompleteVisitInput
	if !decodeJSON(w, r, &in) {
		return
	}
	result, err := h.visits.Complete(r.Context(), r.PathValue("id"), in, h.now())
	var perr *models.PartialFailureError
	switch {
	case errors.As(err, &perr) && result != nil:
		middleware.LoggerFrom(r.Context()).Error().Err(err).Str("visit_id", r.PathValue("id")).Msg("visit completion partially applied")
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"error":     "Visit completed but not every corrective task was created",
			"visit":     result.Visit,
			"tasks":     result.Tasks,
			"completed": perr.Completed,
			"failed":    perr.Failed,
		})
	case err != nil:
		writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// CalendarCell is a day of the grid as drawn: a short preview and the
// number of visits left out of it.
type CalendarCell struct {
	calendar.Day
	Preview  []calendar.Entry `json:"preview"`
	Overflow int              `json:"overflow"`
}

// CalendarResponse is the month view payload.
type CalendarResponse struct {
	Month    string           `json:"month"`
	Prev     string           `json:"prev"`
	Next     string           `json:"next"`
	Weeks    [][]CalendarCell `json:"weeks"`
	Degraded bool             `json:"degraded,omitempty"`
}

// Calendar returns the month grid for ?month=YYYY-MM, the current month by
// default. A store failure renders the grid with no visits.
func (h *VisitHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	loc := h.visits.Location()
	anchor := calendar.Today(now.In(loc))
	if m := queryValue(r, "month"); m != "" {
		parsed, err := calendar.ParseMonth(m, loc)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		anchor = parsed
	}

	month, err := h.visits.Calendar(r.Context(), anchor, now)
	failed := err != nil
	if failed {
		degraded(r, "calendar", err)
		month = calendar.Build(anchor, nil, nil, now, calendar.WithLocation(loc))
	}

	resp := CalendarResponse{
		Month:    month.Anchor.Format("2006-01"),
		Prev:     calendar.PrevMonth(month.Anchor).Format("2006-01"),
		Next:     calendar.NextMonth(month.Anchor).Format("2006-01"),
		Weeks:    make([][]CalendarCell, 0, 6),
		Degraded: failed,
	}
	for _, week := range month.Weeks() {
		row := make([]CalendarCell, 0, len(week))
		for _, day := range week {
			row = append(row, CalendarCell{
				Day:      day,
				Preview:  day.Preview(calendar.DefaultPreview),
				Overflow: day.Overflow(calendar.DefaultPreview),
			})
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalendarDay lists every visit of ?date=YYYY-MM-DD by time of day.
func (h *VisitHandler) CalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := calendar.ParseDay(queryValue(r, "date"), h.visits.Location())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	month, err := h.visits.Calendar(r.Context(), day, h.now())
	if err != nil {
		degraded(r, "calendar day", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":     day.Format("2006-01-02"),
			"visits":   []calendar.Entry{},
			"degraded": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":   day.Format("2006-01-02"),
		"visits": month.DayDetail(day),
	})
}

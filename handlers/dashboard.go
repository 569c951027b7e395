package handlers

import (
	"net/http"
	"time"

	"fireops/calendar"
	"fireops/dashboard"
	"fireops/middleware"
)

type DashboardHandler struct {
	aggregator *dashboard.Aggregator
	loc        *time.Location
}

func NewDashboardHandler(aggregator *dashboard.Aggregator, loc *time.Location) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator, loc: loc}
}

// Get returns the dashboard summary. ?month=YYYY-MM moves the embedded
// calendar away from the current month.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	var anchor time.Time
	if m := queryValue(r, "month"); m != "" {
		parsed, err := calendar.ParseMonth(m, h.loc)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		anchor = parsed
	}

	summary, err := h.aggregator.Summary(r.Context(), user, anchor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "fireops-api",
	})
}

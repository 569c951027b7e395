package handlers

import (
	"net/http"

	"fireops/models"
	"fireops/reminders"
)

type ReminderHandler struct {
	reminders *reminders.Repository
}

func NewReminderHandler(repo *reminders.Repository) *ReminderHandler {
	return &ReminderHandler{reminders: repo}
}

// List returns reminders pending first, each flagged when overdue.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.reminders.List(r.Context())
	if err != nil {
		degraded(r, "reminders", err)
		list = []models.Reminder{}
	}
	now := h.reminders.Now()

	type item struct {
		models.Reminder
		Overdue bool `json:"overdue"`
	}
	items := make([]item, 0, len(list))
	for _, rem := range reminders.Sorted(list) {
		items = append(items, item{Reminder: rem, Overdue: reminders.Overdue(rem, now)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reminders": items,
		"overdue":   reminders.OverdueCount(list, now),
	})
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in reminders.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rem, err := h.reminders.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in reminders.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rem, err := h.reminders.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	rem, err := h.reminders.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.reminders.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

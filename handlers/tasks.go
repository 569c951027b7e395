package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fireops/listing"
	"fireops/middleware"
	"fireops/models"
	"fireops/service"
	"fireops/workflow"
)

type TaskHandler struct {
	tasks *service.TaskService
	now   Clock
}

func NewTaskHandler(tasks *service.TaskService, now Clock) *TaskHandler {
	return &TaskHandler{tasks: tasks, now: now}
}

func taskFilter(r *http.Request) listing.TaskFilter {
	return listing.TaskFilter{
		Status:   queryValue(r, "status"),
		Priority: queryValue(r, "priority"),
		Search:   queryValue(r, "search"),
	}
}

// List returns tasks most recently reported first, filtered by ?status=,
// ?priority= and ?search=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.tasks.List(r.Context(), taskFilter(r))
	if err != nil {
		degraded(r, "tasks", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tasks":    []service.TaskView{},
			"counts":   listing.TaskCounts{},
			"degraded": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Create reports a manual corrective task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := h.tasks.Create(r.Context(), in, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := h.tasks.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateStatus moves a task through pending, in progress and completed.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in service.TransitionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := h.tasks.Transition(r.Context(), r.PathValue("id"), in, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

var exportHeader = []string{
	"ID",
	"Cliente",
	"Descripción",
	"Prioridad",
	"Estado",
	"Fecha reporte",
	"Reportado por",
	"Fecha completado",
	"Completado por",
	"Visita origen",
	"Notas",
}

// Export streams the filtered task list as CSV.
func (h *TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	user, _ := middleware.GetUserFromContext(r.Context())

	list, err := h.tasks.List(r.Context(), taskFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("tareas_correctivas_%s.csv", h.now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		log.Error().Err(err).Msg("failed to write CSV header")
		return
	}
	for _, t := range list.Tasks {
		if err := writer.Write(exportRow(t)); err != nil {
			log.Error().Err(err).Msg("failed to write CSV row")
			return
		}
	}

	log.Info().Str("by", user.Identifier()).Int("tasks", len(list.Tasks)).Msg("task CSV export")
}

func exportRow(t service.TaskView) []string {
	client := "Cliente no encontrado"
	if t.Client != nil {
		client = t.Client.CompanyName
	}
	return []string{
		t.ID,
		client,
		t.Description,
		workflow.PriorityLabel(t.Priority),
		workflow.TaskStatusLabel(t.Status),
		formatTime(t.ReportedDate),
		t.ReportedBy,
		formatTime(t.CompletedDate),
		strings.Join(t.CompletedBy, ", "),
		t.OriginVisitID,
		t.Notes,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

package workflow

import (
	"testing"

	"fireops/models"
)

func TestPriorityRank(t *testing.T) {
	tests := []struct {
		p    models.Priority
		want int
	}{
		{models.PriorityUrgent, 0},
		{models.PriorityNormal, 1},
		{models.PriorityNextVisit, 2},
		{models.Priority("critical"), 3},
		{models.Priority(""), 3},
	}
	for _, tt := range tests {
		if got := PriorityRank(tt.p); got != tt.want {
			t.Errorf("PriorityRank(%q) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"scheduled", VisitStatusLabel(models.VisitScheduled), "Programada"},
		{"visit completed", VisitStatusLabel(models.VisitCompleted), "Completada"},
		{"pending", TaskStatusLabel(models.TaskPending), "Pendiente"},
		{"in progress", TaskStatusLabel(models.TaskInProgress), "En Proceso"},
		{"next visit", PriorityLabel(models.PriorityNextVisit), "Próxima Visita"},
		{"bimonthly", FrequencyLabel(models.FrequencyBimonthly), "Bimestral"},
		{"unknown task status", TaskStatusLabel(models.TaskStatus("archived")), "Desconocido"},
		{"unknown priority", PriorityLabel(models.Priority("critical")), "Desconocido"},
		{"unknown frequency", FrequencyLabel(models.Frequency("daily")), "Desconocido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("label = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStyles(t *testing.T) {
	if got := TaskStatusStyle(models.TaskPending); got != "bg-red-100 text-red-800" {
		t.Errorf("pending style = %q", got)
	}
	if got := PriorityStyle(models.PriorityUrgent); got != "bg-red-500 text-white" {
		t.Errorf("urgent style = %q", got)
	}
	if got := TaskStatusStyle(models.TaskStatus("x")); got != neutralStyle {
		t.Errorf("unknown style = %q, want neutral", got)
	}

	b := PriorityBadge(models.Priority("critical"))
	if b.Value != "critical" || b.Label != "Desconocido" || b.Style != neutralStyle {
		t.Errorf("PriorityBadge() = %+v", b)
	}
}

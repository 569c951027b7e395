package workflow

import "fireops/models"

// Style is a pair of display classes for a status badge.
type Style string

const (
	unknownLabel = "Desconocido"
	neutralStyle = Style("bg-gray-100 text-gray-800")
)

// PriorityRank orders priorities for the urgent-task view. Lower is more
// urgent; unknown priorities sort after every known one.
func PriorityRank(p models.Priority) int {
	switch p {
	case models.PriorityUrgent:
		return 0
	case models.PriorityNormal:
		return 1
	case models.PriorityNextVisit:
		return 2
	default:
		return 3
	}
}

var visitStatusLabels = map[models.VisitStatus]string{
	models.VisitScheduled: "Programada",
	models.VisitCompleted: "Completada",
}

var visitStatusStyles = map[models.VisitStatus]Style{
	models.VisitScheduled: "bg-blue-100 text-blue-800",
	models.VisitCompleted: "bg-green-100 text-green-800",
}

var taskStatusLabels = map[models.TaskStatus]string{
	models.TaskPending:    "Pendiente",
	models.TaskInProgress: "En Proceso",
	models.TaskCompleted:  "Completada",
}

var taskStatusStyles = map[models.TaskStatus]Style{
	models.TaskPending:    "bg-red-100 text-red-800",
	models.TaskInProgress: "bg-yellow-100 text-yellow-800",
	models.TaskCompleted:  "bg-green-100 text-green-800",
}

var priorityLabels = map[models.Priority]string{
	models.PriorityUrgent:    "Urgente",
	models.PriorityNormal:    "Normal",
	models.PriorityNextVisit: "Próxima Visita",
}

var priorityStyles = map[models.Priority]Style{
	models.PriorityUrgent:    "bg-red-500 text-white",
	models.PriorityNormal:    "bg-yellow-500 text-white",
	models.PriorityNextVisit: "bg-blue-500 text-white",
}

var frequencyLabels = map[models.Frequency]string{
	models.FrequencyWeekly:    "Semanal",
	models.FrequencyMonthly:   "Mensual",
	models.FrequencyBimonthly: "Bimestral",
}

func VisitStatusLabel(s models.VisitStatus) string { return labelOr(visitStatusLabels[s]) }
func VisitStatusStyle(s models.VisitStatus) Style  { return styleOr(visitStatusStyles[s]) }
func TaskStatusLabel(s models.TaskStatus) string   { return labelOr(taskStatusLabels[s]) }
func TaskStatusStyle(s models.TaskStatus) Style    { return styleOr(taskStatusStyles[s]) }
func PriorityLabel(p models.Priority) string       { return labelOr(priorityLabels[p]) }
func PriorityStyle(p models.Priority) Style        { return styleOr(priorityStyles[p]) }
func FrequencyLabel(f models.Frequency) string     { return labelOr(frequencyLabels[f]) }

func labelOr(label string) string {
	if label == "" {
		return unknownLabel
	}
	return label
}

func styleOr(style Style) Style {
	if style == "" {
		return neutralStyle
	}
	return style
}

// Badge is the display form of an enum value.
type Badge struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Style Style  `json:"style"`
}

func VisitStatusBadge(s models.VisitStatus) Badge {
	return Badge{Value: string(s), Label: VisitStatusLabel(s), Style: VisitStatusStyle(s)}
}

func TaskStatusBadge(s models.TaskStatus) Badge {
	return Badge{Value: string(s), Label: TaskStatusLabel(s), Style: TaskStatusStyle(s)}
}

func PriorityBadge(p models.Priority) Badge {
	return Badge{Value: string(p), Label: PriorityLabel(p), Style: PriorityStyle(p)}
}

// internal/adapters/output/report.go
package output

import (
	"sort"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
)

// Report es el resumen de un ingest completo.
type Report struct {
	ID           string            `json:"id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Duration     string            `json:"duration"`
	Cancelled    bool              `json:"cancelled"`
	DataSources  []DataSourceEntry `json:"data_sources"`
	Modules      []string          `json:"modules"`
	Tasks        TaskCounts        `json:"tasks"`
	FilesSkipped int               `json:"files_skipped"`
	Findings     map[string]int    `json:"findings"`
	Messages     map[string]int    `json:"messages"`
	Problems     []MessageEntry    `json:"problems,omitempty"`
}

// DataSourceEntry identifica una imagen ingerida.
type DataSourceEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Root string `json:"root"`
}

// TaskCounts cuenta tareas terminadas por estado, por tier.
type TaskCounts struct {
	DataSource  map[string]int `json:"datasource"`
	Files       map[string]int `json:"files"`
	FileModules map[string]int `json:"file_modules"`
}

// MessageEntry es un warning o error del inbox.
type MessageEntry struct {
	Severity string    `json:"severity"`
	Module   string    `json:"module"`
	Title    string    `json:"title"`
	Details  string    `json:"details,omitempty"`
	At       time.Time `json:"at"`
}

// NewReport crea un reporte vacío.
func NewReport(id string, modules []string, started time.Time) *Report {
	return &Report{
		ID:        id,
		StartedAt: started,
		Modules:   append([]string(nil), modules...),
		Findings:  make(map[string]int),
		Messages:  make(map[string]int),
	}
}

// AddDataSource registra una imagen del ingest.
func (r *Report) AddDataSource(ds *domain.DataSource) {
	r.DataSources = append(r.DataSources, DataSourceEntry{ID: ds.ID, Name: ds.Name, Root: ds.Root})
}

// AddMessage cuenta un mensaje del inbox; warnings y errores se conservan.
func (r *Report) AddMessage(msg ports.Message) {
	r.Messages[string(msg.Severity)]++
	if msg.Severity != ports.SeverityWarning && msg.Severity != ports.SeverityError {
		return
	}
	r.Problems = append(r.Problems, MessageEntry{
		Severity: string(msg.Severity),
		Module:   msg.Module,
		Title:    msg.Title,
		Details:  msg.Details,
		At:       msg.Timestamp,
	})
}

// SetTasks copia los conteos de tareas del scheduler.
func (r *Report) SetTasks(ds, files, fileModules map[domain.TaskState]int, skipped int) {
	r.Tasks = TaskCounts{
		DataSource:  stateCounts(ds),
		Files:       stateCounts(files),
		FileModules: stateCounts(fileModules),
	}
	r.FilesSkipped = skipped
}

// SetFindings copia el conteo de findings por kind.
func (r *Report) SetFindings(byKind map[domain.FindingKind]int) {
	r.Findings = make(map[string]int, len(byKind))
	for k, n := range byKind {
		r.Findings[k.String()] = n
	}
}

// Finalize cierra el reporte.
func (r *Report) Finalize(finished time.Time, cancelled bool) {
	r.FinishedAt = finished
	r.Duration = finished.Sub(r.StartedAt).Round(time.Millisecond).String()
	r.Cancelled = cancelled
	sort.SliceStable(r.Problems, func(i, j int) bool {
		return r.Problems[i].At.Before(r.Problems[j].At)
	})
}

// TotalFindings suma los findings de todos los kinds.
func (r *Report) TotalFindings() int {
	total := 0
	for _, n := range r.Findings {
		total += n
	}
	return total
}

// FilesProcessed archivos que terminaron el pipeline completo.
func (r *Report) FilesProcessed() int {
	return r.Tasks.Files[string(domain.TaskStateCompleted)]
}

func stateCounts(m map[domain.TaskState]int) map[string]int {
	out := make(map[string]int, len(m))
	for state, n := range m {
		out[string(state)] = n
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

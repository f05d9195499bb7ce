// internal/platform/ui/raw_presenter.go
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"autoingest/internal/core/ports"
)

// LogFormat define el formato de salida para el modo raw
type LogFormat string

const (
	LogFormatText LogFormat = "text" // Formato logfmt (default)
	LogFormatJSON LogFormat = "json" // Formato JSON estructurado
)

// RawPresenter implementa el Presenter para salidas sin terminal: una línea
// por actualización.
type RawPresenter struct {
	format LogFormat
	out    io.Writer
	mu     sync.Mutex
}

// NewRawPresenter crea un nuevo RawPresenter sobre stdout
func NewRawPresenter(format LogFormat) *RawPresenter {
	return NewRawPresenterWithWriter(format, os.Stdout)
}

// NewRawPresenterWithWriter crea un RawPresenter que escribe en w
func NewRawPresenterWithWriter(format LogFormat, w io.Writer) *RawPresenter {
	if format == "" {
		format = LogFormatText
	}
	return &RawPresenter{format: format, out: w}
}

// log escribe un log en el formato configurado
func (r *RawPresenter) log(level, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339)

	if r.format == LogFormatJSON {
		r.logJSON(timestamp, level, message, fields)
	} else {
		r.logText(timestamp, level, message, fields)
	}
}

// logText escribe en formato logfmt: timestamp LEVEL message key=value key2=value2
func (r *RawPresenter) logText(timestamp, level, message string, fields map[string]interface{}) {
	parts := []string{timestamp, fmt.Sprintf("%-5s", level), message}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, r.formatValue(fields[k])))
	}

	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

// logJSON escribe en formato JSON estructurado
func (r *RawPresenter) logJSON(timestamp, level, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"message":   message,
	}
	if len(fields) > 0 {
		entry["data"] = fields
	}

	jsonBytes, _ := json.Marshal(entry)
	fmt.Fprintln(r.out, string(jsonBytes))
}

// formatValue formatea valores para logfmt (entrecomilla strings con espacios)
func (r *RawPresenter) formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.Contains(val, " ") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Start registra la configuración del run
func (r *RawPresenter) Start(info RunInfo) {
	r.log("INFO", "ingest_started", map[string]interface{}{
		"images":      strings.Join(info.Images, ","),
		"modules":     strings.Join(info.Modules, ","),
		"workers":     info.FileWorkers,
		"min_free":    info.MinFree,
		"unallocated": info.Unallocated,
	})
}

// Report registra la actualización de una tarea
func (r *RawPresenter) Report(u ports.ProgressUpdate) {
	fields := map[string]interface{}{
		"task":   u.TaskID,
		"title":  u.Title,
		"status": StatusOf(u).String(),
	}
	if u.Done > 0 || u.Total > 0 {
		fields["done"] = u.Done
	}
	if u.Total > 0 {
		fields["total"] = u.Total
	}
	if u.Detail != "" {
		fields["detail"] = u.Detail
	}
	if u.Phase == ports.ProgressFinished {
		fields["duration"] = u.Elapsed
	}
	r.log("INFO", "task_"+string(u.Phase), fields)
}

// Message registra un mensaje del inbox
func (r *RawPresenter) Message(msg ports.Message) {
	level := "INFO"
	switch msg.Severity {
	case ports.SeverityWarning:
		level = "WARN"
	case ports.SeverityError:
		level = "ERROR"
	}
	fields := map[string]interface{}{
		"id":       msg.ID,
		"module":   msg.Module,
		"severity": string(msg.Severity),
		"title":    msg.Title,
	}
	if msg.Details != "" {
		fields["details"] = msg.Details
	}
	r.log(level, "inbox_message", fields)
}

// Finish registra las estadísticas finales
func (r *RawPresenter) Finish(stats RunStats) {
	fields := map[string]interface{}{
		"duration": stats.Duration,
		"files":    stats.FilesProcessed,
		"messages": stats.Messages,
	}
	for state, n := range stats.TasksByState {
		fields["tasks_"+state] = n
	}
	r.log("INFO", "ingest_completed", fields)

	if len(stats.FindingsByKind) > 0 {
		breakdown := make(map[string]interface{}, len(stats.FindingsByKind))
		for k, v := range stats.FindingsByKind {
			breakdown[k] = v
		}
		r.log("INFO", "findings_by_kind", breakdown)
	}
}

// Close no libera nada
func (r *RawPresenter) Close() error {
	return nil
}

// internal/platform/ui/presenter.go
package ui

import (
	"time"

	"autoingest/internal/core/ports"
)

// Presenter muestra al operador el progreso de un ingest: un handle por tarea
// y los mensajes del inbox.
type Presenter interface {
	ports.ProgressReporter

	// Start inicia la presentación con la configuración del run
	Start(info RunInfo)

	// Message muestra un mensaje del inbox
	Message(msg ports.Message)

	// Finish finaliza la presentación con estadísticas finales
	Finish(stats RunStats)

	// Close limpia recursos del presenter
	Close() error
}

// RunInfo contiene la configuración inicial del run.
type RunInfo struct {
	Images      []string
	Modules     []string
	FileWorkers int
	MinFree     uint64
	Unallocated bool
}

// RunStats contiene estadísticas finales del run.
type RunStats struct {
	Duration       time.Duration
	TasksByState   map[string]int
	FindingsByKind map[string]int
	FilesProcessed int
	Messages       int
}

// New retorna el presenter adecuado: noop en modo quiet, raw para "text" y
// "json", pterm en otro caso.
func New(mode string, quiet bool) Presenter {
	switch {
	case quiet:
		return NewNoopPresenter()
	case mode == string(LogFormatText):
		return NewRawPresenter(LogFormatText)
	case mode == string(LogFormatJSON):
		return NewRawPresenter(LogFormatJSON)
	default:
		return NewPTermPresenter()
	}
}

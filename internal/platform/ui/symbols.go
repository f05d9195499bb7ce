// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
)

// Status representa el estado visible de una tarea
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCancelling
	StatusSuccess
	StatusStopped
	StatusError
)

// StatusOf deriva el estado visible de una actualización de progreso.
func StatusOf(u ports.ProgressUpdate) Status {
	switch u.Phase {
	case ports.ProgressPending:
		return StatusPending
	case ports.ProgressActive:
		return StatusRunning
	case ports.ProgressCancelling:
		return StatusCancelling
	}
	switch u.State {
	case domain.TaskStateCompleted:
		return StatusSuccess
	case domain.TaskStateFailedInit:
		return StatusError
	default:
		return StatusStopped
	}
}

// String convierte el status a string
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCancelling:
		return "cancelling"
	case StatusSuccess:
		return "completed"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "failed"
	default:
		return "unknown"
	}
}

// Symbol retorna el símbolo Unicode para cada estado
func (s Status) Symbol() string {
	switch s {
	case StatusPending:
		return "⏸"
	case StatusRunning:
		return "⣾"
	case StatusCancelling:
		return "⚠"
	case StatusSuccess:
		return "✓"
	case StatusStopped:
		return "⊘"
	case StatusError:
		return "✗"
	default:
		return "?"
	}
}

// Color retorna el color pterm para cada estado
func (s Status) Color() pterm.Color {
	switch s {
	case StatusPending, StatusStopped:
		return pterm.FgGray
	case StatusRunning:
		return pterm.FgCyan
	case StatusCancelling:
		return pterm.FgYellow
	case StatusSuccess:
		return pterm.FgGreen
	case StatusError:
		return pterm.FgRed
	default:
		return pterm.FgDefault
	}
}

// Style retorna un pterm.Style configurado para el estado
func (s Status) Style() *pterm.Style {
	return pterm.NewStyle(s.Color())
}

// Icons globales para diferentes elementos de la UI
var (
	IconImage    = "💽"
	IconModules  = "🧩"
	IconTime     = "⏱"
	IconFindings = "📦"
	IconWorkers  = "⚙️"
	IconDisk     = "🗄"
)

// Separadores
var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)

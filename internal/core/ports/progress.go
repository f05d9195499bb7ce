// internal/core/ports/progress.go
package ports

import (
	"time"

	"autoingest/internal/core/domain"
)

// ProgressPhase es la fase visible de un progress handle.
type ProgressPhase string

const (
	ProgressPending    ProgressPhase = "pending"
	ProgressActive     ProgressPhase = "active"
	ProgressCancelling ProgressPhase = "cancelling"
	ProgressFinished   ProgressPhase = "finished"
)

// ProgressUpdate es un cambio en el progreso de una tarea.
// Total == 0 indica progreso indeterminado.
type ProgressUpdate struct {
	TaskID  string
	Title   string
	Phase   ProgressPhase
	Done    int
	Total   int
	Detail  string
	State   domain.TaskState // solo en ProgressFinished
	Elapsed time.Duration
}

// ProgressReporter recibe las actualizaciones de todos los progress handles.
// Las llamadas llegan desde varias goroutines.
type ProgressReporter interface {
	Report(u ProgressUpdate)
}

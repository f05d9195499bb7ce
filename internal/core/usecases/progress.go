// internal/core/usecases/progress.go
package usecases

import (
	"sync"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// ProgressHandle acompaña a un worker: Pending -> Active -> (Cancelling) ->
// Finished. Contiene el token de cancelación, único canal por el que una
// cancelación externa llega al módulo.
type ProgressHandle struct {
	taskID   string
	title    string
	token    *domain.CancellationToken
	reporter ports.ProgressReporter
	logger   logx.Logger
	fault    sync.Once

	mu      sync.Mutex
	phase   ports.ProgressPhase
	done    int
	total   int
	detail  string
	started time.Time
	state   domain.TaskState
}

// NewProgressHandle crea un handle en Pending y lo reporta. logger recibe el
// primer panic del reporter; nil lo descarta.
func NewProgressHandle(taskID, title string, token *domain.CancellationToken, reporter ports.ProgressReporter, logger logx.Logger) *ProgressHandle {
	if logger == nil {
		logger = logx.NewNop()
	}
	h := &ProgressHandle{
		taskID:   taskID,
		title:    title,
		token:    token,
		reporter: reporter,
		logger:   logger,
		phase:    ports.ProgressPending,
		started:  time.Now(),
	}
	h.report(h.snapshotLocked())
	return h
}

// Token retorna el token de cancelación del handle.
func (h *ProgressHandle) Token() *domain.CancellationToken { return h.token }

// Start pasa a Active. total == 0 deja el progreso indeterminado.
func (h *ProgressHandle) Start(total int) {
	h.mu.Lock()
	if h.phase != ports.ProgressPending {
		h.mu.Unlock()
		return
	}
	h.phase = ports.ProgressActive
	h.total = total
	h.started = time.Now()
	u := h.snapshotLocked()
	h.mu.Unlock()

	h.report(u)
}

// Progress actualiza el avance mientras el handle está activo.
func (h *ProgressHandle) Progress(done int, detail string) {
	h.mu.Lock()
	if h.phase != ports.ProgressActive && h.phase != ports.ProgressCancelling {
		h.mu.Unlock()
		return
	}
	h.done = done
	h.detail = detail
	u := h.snapshotLocked()
	h.mu.Unlock()

	h.report(u)
}

// Cancel marca el token y pasa a Cancelling. Un handle terminado lo ignora.
func (h *ProgressHandle) Cancel(reason string) {
	h.mu.Lock()
	if h.phase == ports.ProgressFinished {
		h.mu.Unlock()
		return
	}
	h.token.Cancel(reason)
	h.phase = ports.ProgressCancelling
	h.detail = reason
	u := h.snapshotLocked()
	h.mu.Unlock()

	h.report(u)
}

// Finish finaliza el handle con el estado terminal de la tarea. Solo la
// primera llamada tiene efecto.
func (h *ProgressHandle) Finish(state domain.TaskState) {
	h.mu.Lock()
	if h.phase == ports.ProgressFinished {
		h.mu.Unlock()
		return
	}
	h.phase = ports.ProgressFinished
	h.state = state
	u := h.snapshotLocked()
	h.mu.Unlock()

	h.report(u)
}

// Phase retorna la fase actual.
func (h *ProgressHandle) Phase() ports.ProgressPhase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// State retorna el estado terminal ("" mientras no terminó).
func (h *ProgressHandle) State() domain.TaskState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *ProgressHandle) snapshotLocked() ports.ProgressUpdate {
	return ports.ProgressUpdate{
		TaskID:  h.taskID,
		Title:   h.title,
		Phase:   h.phase,
		Done:    h.done,
		Total:   h.total,
		Detail:  h.detail,
		State:   h.state,
		Elapsed: time.Since(h.started),
	}
}

// report entrega la actualización fuera del lock. Un panic del reporter no
// afecta al worker y se registra una vez por handle.
func (h *ProgressHandle) report(u ports.ProgressUpdate) {
	if h.reporter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.fault.Do(func() {
				h.logger.Err(domain.PanicError(r), "component", "progress", "task", h.taskID)
			})
		}
	}()
	h.reporter.Report(u)
}

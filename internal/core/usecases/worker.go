// internal/core/usecases/worker.go
package usecases

import (
	"context"
	"sync"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/workerpool"
)

// dataSourceWorker ejecuta un módulo data-source-tier sobre un data source.
// Sostiene el FairLock entre Init y Complete/Stop, de modo que nunca hay dos
// módulos data-source-tier en ejecución a la vez.
type dataSourceWorker struct {
	s        *Scheduler
	task     *domain.ScheduledTask
	module   ports.TieredModule
	ticket   *workerpool.Ticket
	progress *ProgressHandle
	logger   logx.Logger

	mu    sync.Mutex
	state domain.TaskState
}

// run es el cuerpo de la goroutine del worker. Un fallo interno solo
// afecta a este worker.
func (w *dataSourceWorker) run() {
	state := domain.TaskStateStopped
	defer func() {
		if r := recover(); r != nil {
			w.logger.Err(domain.PanicError(r), "stage", w.State())
			state = domain.TaskStateStopped
		}
		w.finish(state)
	}()

	state = w.execute()
}

func (w *dataSourceWorker) execute() domain.TaskState {
	token := w.progress.Token()
	name := w.module.Name()
	dsID := w.task.DataSource.ID

	guard, err := w.ticket.Wait(token.Context())
	if err != nil {
		return w.stoppedWhilePending("cancelled while waiting for lock")
	}
	defer guard.Release()

	if !w.awaitAdmission(token) || token.IsCancelled() {
		return w.stoppedWhilePending("cancelled before start")
	}

	w.transition(domain.TaskStateInitializing)
	w.progress.Start(0)

	ic := ports.InitContext{Services: w.s.services}
	if err := callHook(func() error { return w.module.Base().Init(ic) }); err != nil {
		ierr := domain.NewInitializationError(name, err)
		w.logger.Err(ierr)
		w.s.postMessage(ports.SeverityError, name, "Module failed to start", ierr.Error())
		w.transition(domain.TaskStateFailedInit)
		w.s.publishModule(ports.ModuleEventFailedInit, name, dsID)
		return domain.TaskStateFailedInit
	}

	if token.IsCancelled() {
		return w.stop()
	}

	w.transition(domain.TaskStateRunning)
	w.s.publishModule(ports.ModuleEventStarted, name, dsID)

	ctx := context.Background()
	tier := domain.TierDataSource.String()
	w.s.metrics.AddActiveTasks(ctx, tier, 1)
	pc := ports.NewPipelineContext(w.task, []string{name}, token, w.s.services)
	start := time.Now()

	err = callHook(func() error { return w.module.DataSource.Process(pc, w.task.DataSource, token) })

	w.s.metrics.ObserveModuleDuration(ctx, name, time.Since(start))
	w.s.metrics.AddActiveTasks(ctx, tier, -1)

	if err != nil {
		perr := domain.NewProcessingError(name, w.task.DataSource.Name, err)
		w.logger.Err(perr)
		w.s.postMessage(ports.SeverityError, name, "Module processing failed", perr.Error())
	}

	if token.IsCancelled() {
		return w.stop()
	}
	return w.complete()
}

// stoppedWhilePending termina la tarea sin invocar hooks del módulo.
func (w *dataSourceWorker) stoppedWhilePending(reason string) domain.TaskState {
	w.logger.Info(reason, "reason", w.progress.Token().Reason())
	w.s.publishModule(ports.ModuleEventStopped, w.module.Name(), w.task.DataSource.ID)
	return domain.TaskStateStopped
}

// awaitAdmission difiere el inicio mientras el espacio libre conocido esté
// bajo el umbral. Espacio desconocido nunca bloquea. Retorna false si la
// tarea se canceló durante la espera.
func (w *dataSourceWorker) awaitAdmission(token *domain.CancellationToken) bool {
	mon := w.s.monitor
	if mon == nil || !mon.BelowThreshold() {
		return true
	}

	free, _ := mon.FreeSpace()
	w.logger.Warn(domain.ErrResourceExhausted.Error()+", deferring start", "free_bytes", free)
	w.s.metrics.IncAdmissionDeferred(context.Background())
	w.progress.Progress(0, "waiting for free space")

	ticker := time.NewTicker(w.s.admissionPoll)
	defer ticker.Stop()

	for {
		select {
		case <-token.Done():
			return false
		case <-ticker.C:
			if !mon.BelowThreshold() {
				w.logger.Info("free space recovered, starting")
				return true
			}
		}
	}
}

func (w *dataSourceWorker) complete() domain.TaskState {
	name := w.module.Name()
	w.transition(domain.TaskStateCompleting)
	if err := callHook(w.module.Base().Complete); err != nil {
		w.logger.Err(err, "hook", "complete")
	}
	w.transition(domain.TaskStateCompleted)
	w.s.publishModule(ports.ModuleEventCompleted, name, w.task.DataSource.ID)
	return domain.TaskStateCompleted
}

func (w *dataSourceWorker) stop() domain.TaskState {
	name := w.module.Name()
	w.transition(domain.TaskStateStopping)
	if err := callHook(w.module.Base().Stop); err != nil {
		w.logger.Err(err, "hook", "stop")
	}
	w.transition(domain.TaskStateStopped)
	w.s.publishModule(ports.ModuleEventStopped, name, w.task.DataSource.ID)
	w.logger.Info("module stopped", "reason", w.progress.Token().Reason())
	return domain.TaskStateStopped
}

// finish libera todo lo que la tarea reservó en el submit.
func (w *dataSourceWorker) finish(state domain.TaskState) {
	ds := w.task.DataSource

	w.mu.Lock()
	w.state = state
	w.mu.Unlock()

	w.progress.Finish(state)
	ds.ClearScheduled(w.module.Name())
	w.s.recordTask(domain.TierDataSource, state)
	w.s.forget(ds.ID, w.task.ID)
	w.s.tracker.release(ds.ID)
	w.progress.Token().Release()
	w.s.activity.done()

	w.logger.Debug("task finished", "state", state, "duration_ms", time.Since(w.task.CreatedAt).Milliseconds())
}

// transition avanza el estado validando la máquina de lifecycle.
func (w *dataSourceWorker) transition(next domain.TaskState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == next {
		return
	}
	if !w.state.CanTransitionTo(next) {
		w.logger.Warn("invalid state transition", "from", w.state, "to", next)
	}
	w.state = next
}

// State retorna el estado actual del worker.
func (w *dataSourceWorker) State() domain.TaskState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

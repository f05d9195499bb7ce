// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"autoingest/internal/platform/logx"
)

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Name retorna el nombre de la tarea
	Name() string
}

// WorkerPool ejecuta tareas con concurrencia acotada. Submit bloquea mientras
// no haya un slot libre.
type WorkerPool struct {
	workers int
	logger  logx.Logger
	sem     *semaphore.Weighted

	onResult func(TaskResult)

	// Control
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	Task     Task
	Error    error
	Duration time.Duration
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers int
	Logger  logx.Logger

	// OnResult se invoca (en la goroutine de la tarea) al terminar cada tarea
	OnResult func(TaskResult)
}

// NewWorkerPool crea un nuevo worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:  cfg.Workers,
		logger:   cfg.Logger.With("component", "worker-pool"),
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		onResult: cfg.OnResult,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ErrPoolStopped se retorna al enviar tareas a un pool detenido.
var ErrPoolStopped = errors.New("worker pool stopped")

// Submit espera un slot libre y ejecuta task en su propia goroutine.
// Retorna error si ctx termina o el pool fue detenido antes de obtener slot.
func (wp *WorkerPool) Submit(ctx context.Context, task Task) error {
	if wp.closed.Load() {
		return ErrPoolStopped
	}
	if err := wp.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if wp.closed.Load() {
		wp.sem.Release(1)
		return ErrPoolStopped
	}

	wp.wg.Add(1)
	wp.active.Add(1)
	go func() {
		defer wp.wg.Done()
		defer wp.sem.Release(1)
		defer wp.active.Add(-1)
		wp.executeTask(task)
	}()
	return nil
}

// executeTask ejecuta una tarea individual.
func (wp *WorkerPool) executeTask(task Task) {
	start := time.Now()

	wp.logger.Debug("executing task", "task", task.Name())

	err := wp.safeExecute(task)
	duration := time.Since(start)

	if err != nil {
		wp.failed.Add(1)
	} else {
		wp.completed.Add(1)
	}

	wp.logger.Debug("task completed",
		"task", task.Name(),
		"duration_ms", duration.Milliseconds(),
		"error", err != nil,
	)

	if wp.onResult != nil {
		wp.onResult(TaskResult{Task: task, Error: err, Duration: duration})
	}
}

// safeExecute convierte un panic de la tarea en error.
func (wp *WorkerPool) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name(), r)
		}
	}()
	return task.Execute(wp.ctx)
}

// Stop rechaza nuevas tareas, cancela el context de las activas y espera.
func (wp *WorkerPool) Stop() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}
	wp.logger.Info("stopping worker pool")

	wp.cancel()
	wp.wg.Wait()

	wp.logger.Info("worker pool stopped")
}

// Stats retorna estadísticas del worker pool.
func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Workers:   wp.workers,
		Active:    int(wp.active.Load()),
		Completed: int(wp.completed.Load()),
		Failed:    int(wp.failed.Load()),
	}
}

// WorkerPoolStats contiene estadísticas del worker pool.
type WorkerPoolStats struct {
	Workers   int
	Active    int
	Completed int
	Failed    int
}

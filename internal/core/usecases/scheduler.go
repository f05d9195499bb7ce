// internal/core/usecases/scheduler.go
package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/metrics"
	"autoingest/internal/platform/registry"
	"autoingest/internal/platform/workerpool"
)

// defaultAdmissionPoll período con el que un worker diferido reconsulta el monitor.
const defaultAdmissionPoll = 5 * time.Second

// Scheduler recibe pedidos (data source, módulos) y los expande en tareas:
// un worker por módulo data-source-tier, serializados por el FairLock, y un
// pipeline file-tier por pedido que envía cada archivo al worker pool.
type Scheduler struct {
	registry *registry.ModuleRegistry
	lock     *workerpool.FairLock
	pool     *workerpool.WorkerPool
	files    ports.FileEnumerator
	monitor  ports.ResourceMonitor
	inbox    ports.MessagePoster
	bus      ports.Publisher
	reporter ports.ProgressReporter
	metrics  metrics.IngestMetrics
	logger   logx.Logger

	services      *IngestServices
	tracker       *ingestTracker
	sessions      *moduleSessions
	admissionPoll time.Duration

	mu                 sync.Mutex
	closed             bool
	processUnallocated bool
	handles            map[string]map[string]*ProgressHandle // ds -> task -> handle
	pipelines          map[*domain.CancellationToken]*filePipeline
	pipelineSeq        uint64
	stats              SchedulerStats

	activity activity
	ctx      context.Context
	cancel   context.CancelFunc
}

// SchedulerOptions configura el scheduler.
type SchedulerOptions struct {
	Registry *registry.ModuleRegistry
	Lock     *workerpool.FairLock
	Files    ports.FileEnumerator
	Sink     ports.ResultSink
	Bus      ports.Publisher
	Inbox    ports.MessagePoster
	Monitor  ports.ResourceMonitor
	Settings ports.SettingsStore
	Reporter ports.ProgressReporter
	Metrics  metrics.IngestMetrics
	Logger   logx.Logger

	// FileWorkers tamaño del pool del pipeline file-tier
	FileWorkers int

	// DataEventBatch findings por ModuleDataEvent (default 100)
	DataEventBatch int

	// ProcessUnallocated incluye archivos de espacio no asignado
	ProcessUnallocated bool

	// AdmissionPoll período de reconsulta mientras el espacio libre está bajo el umbral
	AdmissionPoll time.Duration
}

// SchedulerStats cuenta estados terminales.
type SchedulerStats struct {
	DataSourceTasks map[domain.TaskState]int
	FileTasks       map[domain.TaskState]int
	FileModules     map[domain.TaskState]int // lifecycle de cada módulo file-tier por pipeline
	FilesSkipped    int
}

// NewScheduler crea un scheduler listo para recibir pedidos.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Registry == nil {
		opts.Registry = registry.NewModuleRegistry(opts.Logger)
	}
	if opts.Lock == nil {
		opts.Lock = workerpool.NewFairLock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.FileWorkers <= 0 {
		opts.FileWorkers = 4
	}
	if opts.AdmissionPoll <= 0 {
		opts.AdmissionPoll = defaultAdmissionPoll
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		registry: opts.Registry,
		lock:     opts.Lock,
		files:              opts.Files,
		monitor:            opts.Monitor,
		inbox:              opts.Inbox,
		bus:                opts.Bus,
		reporter:           opts.Reporter,
		metrics:            opts.Metrics,
		logger:             opts.Logger.With("component", "scheduler"),
		tracker:            newIngestTracker(opts.Bus),
		sessions:           newModuleSessions(),
		admissionPoll:      opts.AdmissionPoll,
		processUnallocated: opts.ProcessUnallocated,
		handles:            make(map[string]map[string]*ProgressHandle),
		pipelines:          make(map[*domain.CancellationToken]*filePipeline),
		stats: SchedulerStats{
			DataSourceTasks: make(map[domain.TaskState]int),
			FileTasks:       make(map[domain.TaskState]int),
			FileModules:     make(map[domain.TaskState]int),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	s.pool = workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers:  opts.FileWorkers,
		Logger:   opts.Logger,
		OnResult: s.onFileResult,
	})

	s.services = &IngestServices{
		logger:    opts.Logger,
		sink:      newMeteredSink(opts.Sink, opts.Logger, opts.Metrics),
		files:     opts.Files,
		inbox:     opts.Inbox,
		bus:       opts.Bus,
		monitor:   opts.Monitor,
		settings:  opts.Settings,
		batch:     opts.DataEventBatch,
		scheduler: s,
	}

	return s
}

// Services retorna el handle de colaboradores que reciben los módulos.
func (s *Scheduler) Services() *IngestServices { return s.services }

// SetProcessUnallocated habilita o deshabilita el procesamiento de espacio
// no asignado para los pipelines que se creen a partir de ahora.
func (s *Scheduler) SetProcessUnallocated(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processUnallocated = enabled
}

// Submit expande el pedido en tareas. Los módulos se resuelven una única vez
// contra un snapshot del registry. Nombres desconocidos se registran y se
// omiten. Un par (data source, módulo) en vuelo no se duplica.
func (s *Scheduler) Submit(ds *domain.DataSource, selected []string) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	snapshot := s.registry.Snapshot()
	modules, unknown := snapshot.Resolve(selected)
	if len(unknown) > 0 {
		s.logger.Warn("unknown modules skipped", "datasource", ds.ID, "modules", strings.Join(unknown, ", "))
		s.postMessage(ports.SeverityWarning, "scheduler", "Unknown modules",
			fmt.Sprintf("not registered, skipped for %s: %s", ds.Name, strings.Join(unknown, ", ")))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSchedulerClosed
	}

	var (
		launches    []func()
		fileModules []ports.TieredModule
	)
	for _, m := range modules {
		if !ds.TryMarkScheduled(m.Name()) {
			s.logger.Debug("module already in flight", "datasource", ds.ID, "module", m.Name())
			continue
		}
		switch m.Tier() {
		case domain.TierDataSource:
			launches = append(launches, s.prepareDataSourceWorkerLocked(ds, m))
		case domain.TierFile:
			fileModules = append(fileModules, m)
		}
	}
	dsCount := len(launches)
	if len(fileModules) > 0 {
		launches = append(launches, s.prepareFilePipelineLocked(ds, fileModules))
	}
	s.mu.Unlock()

	// los eventos se publican fuera de s.mu: un observer puede volver a llamar
	// al scheduler. Todas las tareas se cuentan antes de arrancar la primera.
	for range launches {
		s.tracker.acquire(ds.ID)
	}
	for _, launch := range launches {
		launch()
	}

	s.logger.Info("ingest submitted",
		"datasource", ds.ID,
		"datasource_modules", dsCount,
		"file_modules", len(fileModules),
	)
	return nil
}

// prepareDataSourceWorkerLocked crea la tarea y reserva su lugar en el lock
// en orden de submit. Retorna la función que la pone en marcha. Requiere s.mu.
func (s *Scheduler) prepareDataSourceWorkerLocked(ds *domain.DataSource, m ports.TieredModule) func() {
	task := domain.NewDataSourceTask(ds, m.Name())
	token := domain.NewCancellationToken(s.ctx)
	progress := NewProgressHandle(task.ID, fmt.Sprintf("%s: %s", ds.Name, m.Name()), token, s.reporter, s.logger)

	w := &dataSourceWorker{
		s:        s,
		task:     task,
		module:   m,
		ticket:   s.lock.Reserve(task.ID),
		progress: progress,
		state:    domain.TaskStatePending,
		logger:   s.logger.With("component", "worker", "module", m.Name(), "datasource", ds.ID),
	}

	s.registerLocked(ds.ID, task.ID, progress)
	s.activity.add()

	return func() {
		s.publishModule(ports.ModuleEventPending, m.Name(), ds.ID)
		go w.run()
	}
}

// prepareFilePipelineLocked crea el pipeline file-tier del pedido. Requiere s.mu.
func (s *Scheduler) prepareFilePipelineLocked(ds *domain.DataSource, modules []ports.TieredModule) func() {
	token := domain.NewCancellationToken(s.ctx)
	task := domain.NewFileTask(ds, nil)
	progress := NewProgressHandle(task.ID, fmt.Sprintf("%s: file pipeline", ds.Name), token, s.reporter, s.logger)

	p := newFilePipeline(s, task.ID, ds, modules, progress, s.processUnallocated)
	s.pipelineSeq++
	p.seq = s.pipelineSeq

	s.pipelines[token] = p
	s.registerLocked(ds.ID, task.ID, progress)
	s.activity.add()

	// el pipeline retiene una cuenta del tracker hasta terminar
	return func() {
		for _, m := range modules {
			s.publishModule(ports.ModuleEventPending, m.Name(), ds.ID)
		}
		go p.run()
	}
}

// ScheduleFile envía un archivo derivado por el pipeline file-tier del
// contexto. Un contexto data-source-tier usa el pipeline más reciente de su
// data source.
func (s *Scheduler) ScheduleFile(pc *ports.PipelineContext, f *domain.File) error {
	if pc == nil || f == nil {
		return fmt.Errorf("%w: nil pipeline context or file", domain.ErrInvalidDataSource)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSchedulerClosed
	}
	p, ok := s.pipelines[pc.Token()]
	if !ok {
		p, ok = s.latestPipelineLocked(pc.DataSource().ID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no file pipeline running for %s", pc.DataSource().ID)
	}
	return p.scheduleDerived(f)
}

// latestPipelineLocked retorna el último pipeline creado para dsID. Requiere s.mu.
func (s *Scheduler) latestPipelineLocked(dsID string) (*filePipeline, bool) {
	var latest *filePipeline
	for _, candidate := range s.pipelines {
		if candidate.ds.ID != dsID {
			continue
		}
		if latest == nil || candidate.seq > latest.seq {
			latest = candidate
		}
	}
	return latest, latest != nil
}

// Cancel solicita la cancelación de todas las tareas de un data source.
// Retorna cuántas tareas recibieron el pedido.
func (s *Scheduler) Cancel(dsID, reason string) int {
	s.mu.Lock()
	handles := make([]*ProgressHandle, 0, len(s.handles[dsID]))
	for _, h := range s.handles[dsID] {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel(reason)
	}
	if len(handles) > 0 {
		s.logger.Info("cancellation requested", "datasource", dsID, "tasks", len(handles), "reason", reason)
	}
	return len(handles)
}

// CancelAll solicita la cancelación de todas las tareas en vuelo.
func (s *Scheduler) CancelAll(reason string) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	total := 0
	for _, id := range ids {
		total += s.Cancel(id, reason)
	}
	return total
}

// Wait bloquea hasta que no queden workers ni pipelines, o hasta que ctx termine.
func (s *Scheduler) Wait(ctx context.Context) error {
	return s.activity.wait(ctx)
}

// IsRunning indica si queda trabajo en vuelo.
func (s *Scheduler) IsRunning() bool {
	return s.activity.count() > 0
}

// Outstanding retorna las tareas pendientes de un data source.
func (s *Scheduler) Outstanding(dsID string) int {
	return s.tracker.count(dsID)
}

// Close rechaza nuevos pedidos, cancela el trabajo en vuelo y espera a que
// termine. Módulos que no consultan el token pueden demorar el cierre.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.CancelAll("scheduler closed")
	err := s.activity.wait(context.Background())
	s.pool.Stop()
	s.cancel()

	s.logger.Info("scheduler closed")
	return err
}

// Stats retorna una copia de los contadores.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := SchedulerStats{
		DataSourceTasks: make(map[domain.TaskState]int, len(s.stats.DataSourceTasks)),
		FileTasks:       make(map[domain.TaskState]int, len(s.stats.FileTasks)),
		FileModules:     make(map[domain.TaskState]int, len(s.stats.FileModules)),
		FilesSkipped:    s.stats.FilesSkipped,
	}
	for k, v := range s.stats.DataSourceTasks {
		out.DataSourceTasks[k] = v
	}
	for k, v := range s.stats.FileTasks {
		out.FileTasks[k] = v
	}
	for k, v := range s.stats.FileModules {
		out.FileModules[k] = v
	}
	return out
}

// PoolStats expone las estadísticas del pool file-tier.
func (s *Scheduler) PoolStats() workerpool.WorkerPoolStats {
	return s.pool.Stats()
}

// onFileResult recibe del pool el resultado de cada archivo. Los errores de
// módulos ya quedaron registrados por el pipeline.
func (s *Scheduler) onFileResult(r workerpool.TaskResult) {
	s.metrics.ObserveFileDuration(context.Background(), r.Duration, r.Error != nil)
	if r.Error != nil {
		s.logger.Debug("file finished with errors", "task", r.Task.Name(), "error", r.Error.Error())
	}
}

func (s *Scheduler) registerLocked(dsID, taskID string, h *ProgressHandle) {
	if s.handles[dsID] == nil {
		s.handles[dsID] = make(map[string]*ProgressHandle)
	}
	s.handles[dsID][taskID] = h
}

func (s *Scheduler) forget(dsID, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles[dsID], taskID)
	if len(s.handles[dsID]) == 0 {
		delete(s.handles, dsID)
	}
}

func (s *Scheduler) forgetPipeline(p *filePipeline) {
	s.mu.Lock()
	delete(s.pipelines, p.progress.Token())
	s.mu.Unlock()
	s.forget(p.ds.ID, p.id)
}

// recordTask registra el estado terminal de una tarea.
func (s *Scheduler) recordTask(tier domain.Tier, state domain.TaskState) {
	s.mu.Lock()
	if tier == domain.TierDataSource {
		s.stats.DataSourceTasks[state]++
	} else {
		s.stats.FileTasks[state]++
	}
	s.mu.Unlock()

	s.metrics.IncTasksFinished(context.Background(), tier.String(), state.String())
}

func (s *Scheduler) recordFileModule(state domain.TaskState) {
	s.mu.Lock()
	s.stats.FileModules[state]++
	s.mu.Unlock()
}

func (s *Scheduler) recordSkipped(reason string) {
	s.mu.Lock()
	s.stats.FilesSkipped++
	s.mu.Unlock()
	s.metrics.IncFilesSkipped(context.Background(), reason)
}

func (s *Scheduler) publishModule(typ ports.ModuleEventType, module, dsID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ports.ModuleEvent{Type: typ, Module: module, DataSource: dsID})
}

func (s *Scheduler) postMessage(sev ports.Severity, module, title, details string) {
	if s.inbox == nil {
		return
	}
	s.inbox.PostMessage(sev, module, title, details)
}

// activity cuenta workers y pipelines vivos. A diferencia de un WaitGroup
// admite nuevos add mientras hay llamadas a wait en curso.
type activity struct {
	mu      sync.Mutex
	n       int
	waiters []chan struct{}
}

func (a *activity) add() {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
}

func (a *activity) done() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n--
	if a.n > 0 {
		return
	}
	for _, w := range a.waiters {
		close(w)
	}
	a.waiters = nil
}

func (a *activity) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func (a *activity) wait(ctx context.Context) error {
	a.mu.Lock()
	if a.n == 0 {
		a.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	a.waiters = append(a.waiters, ch)
	a.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// callHook ejecuta un hook de módulo convirtiendo un panic en error.
func callHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.PanicError(r)
		}
	}()
	return fn()
}

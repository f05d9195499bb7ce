// internal/core/usecases/file_pipeline.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// progressEvery cada cuántos archivos se reporta avance del pipeline.
const progressEvery = 50

// filePipeline corre los módulos file-tier de un pedido: inicializa cada
// módulo una vez, enumera los archivos del data source y envía cada uno al
// worker pool, donde los módulos se ejecutan en orden de registro.
type filePipeline struct {
	s           *Scheduler
	id          string
	seq         uint64
	ds          *domain.DataSource
	requested   []ports.TieredModule
	progress    *ProgressHandle
	unallocated bool
	logger      logx.Logger

	// módulos inicializados correctamente, fijados antes de enumerar
	active   []ports.TieredModule
	names    []string
	released bool

	mu        sync.Mutex
	pending   int
	sealed    bool
	closed    bool
	idle      chan struct{}
	processed int
	failures  map[string]int
}

func newFilePipeline(s *Scheduler, id string, ds *domain.DataSource, modules []ports.TieredModule, progress *ProgressHandle, unallocated bool) *filePipeline {
	return &filePipeline{
		s:           s,
		id:          id,
		ds:          ds,
		requested:   modules,
		progress:    progress,
		unallocated: unallocated,
		logger:      s.logger.With("component", "file-pipeline", "datasource", ds.ID),
		idle:        make(chan struct{}),
		failures:    make(map[string]int),
	}
}

func (p *filePipeline) run() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Err(domain.PanicError(r), "stage", "pipeline")
			p.releaseModules()
		}
		p.finish()
	}()

	token := p.progress.Token()
	if token.IsCancelled() {
		for _, m := range p.requested {
			p.endModule(m, domain.TaskStateStopped)
		}
		return
	}

	p.progress.Start(0)
	p.initModules()
	if len(p.active) == 0 {
		p.logger.Warn("no file modules started")
		return
	}

	for _, m := range p.active {
		p.s.publishModule(ports.ModuleEventStarted, m.Name(), p.ds.ID)
	}
	p.s.metrics.AddActiveTasks(context.Background(), domain.TierFile.String(), 1)
	start := time.Now()

	p.enumerate(token)
	p.seal()
	<-p.idle

	p.s.metrics.AddActiveTasks(context.Background(), domain.TierFile.String(), -1)
	p.shutdownModules(token, time.Since(start))
	p.reportFailures()
}

// initModules toma cada módulo de las sesiones compartidas. Init corre solo
// si ningún otro pipeline lo está usando. Los que fallan quedan en
// FailedInit y no reciben archivos.
func (p *filePipeline) initModules() {
	ic := ports.InitContext{Services: p.s.services}
	for _, m := range p.requested {
		err := p.s.sessions.acquire(m, ic)
		if err == nil {
			p.active = append(p.active, m)
			p.names = append(p.names, m.Name())
			continue
		}
		ierr := domain.NewInitializationError(m.Name(), err)
		p.logger.Err(ierr)
		p.s.postMessage(ports.SeverityError, m.Name(), "Module failed to start", ierr.Error())
		p.endModule(m, domain.TaskStateFailedInit)
	}
}

// enumerate envía cada archivo del data source al pool. Submit bloquea
// mientras no haya slot, lo que limita los archivos en vuelo.
func (p *filePipeline) enumerate(token *domain.CancellationToken) {
	if p.s.files == nil {
		p.logger.Warn("no file enumerator configured")
		return
	}

	files, errs := p.s.files.AllFiles(token.Context(), p.ds)
	for f := range files {
		if token.IsCancelled() {
			break
		}
		if f.IsUnallocated() && !p.unallocated {
			p.s.recordSkipped("unallocated")
			continue
		}
		if !p.add() {
			break
		}
		p.dispatch(f)
	}

	if err := <-errs; err != nil && !token.IsCancelled() {
		p.logger.Err(err, "stage", "enumerate")
		p.s.postMessage(ports.SeverityWarning, "file-pipeline", "File enumeration incomplete",
			fmt.Sprintf("%s: %v", p.ds.Name, err))
	}
}

// scheduleDerived agrega un archivo producido por un módulo. La reserva es
// síncrona; el envío al pool no, porque el módulo que llama ya ocupa un slot.
func (p *filePipeline) scheduleDerived(f *domain.File) error {
	if !p.add() {
		return fmt.Errorf("file pipeline for %s is shutting down", p.ds.ID)
	}
	go p.dispatch(f)
	return nil
}

// dispatch envía un archivo ya contado por add.
func (p *filePipeline) dispatch(f *domain.File) {
	ft := &fileTask{p: p, task: domain.NewFileTask(p.ds, f)}
	p.s.tracker.acquire(p.ds.ID)
	if err := p.s.pool.Submit(p.progress.Token().Context(), ft); err != nil {
		ft.finish(domain.TaskStateStopped)
	}
}

// shutdownModules suelta cada módulo activo. El último pipeline en soltarlo
// invoca Complete, o Stop si ese pipeline fue cancelado.
func (p *filePipeline) shutdownModules(token *domain.CancellationToken, elapsed time.Duration) {
	p.released = true
	cancelled := token.IsCancelled()
	for _, m := range p.active {
		p.s.metrics.ObserveModuleDuration(context.Background(), m.Name(), elapsed)
		hook := "complete"
		if cancelled {
			hook = "stop"
		}
		last, err := p.s.sessions.release(m, cancelled)
		if err != nil {
			p.logger.Err(err, "module", m.Name(), "hook", hook)
		} else if !last {
			p.logger.Debug("module still in use by another pipeline", "module", m.Name())
		}
		if cancelled {
			p.endModule(m, domain.TaskStateStopped)
			continue
		}
		p.endModule(m, domain.TaskStateCompleted)
	}
}

// releaseModules suelta los módulos que quedaron tomados tras un panic.
func (p *filePipeline) releaseModules() {
	if p.released {
		return
	}
	p.released = true
	for _, m := range p.active {
		if _, err := p.s.sessions.release(m, true); err != nil {
			p.logger.Err(err, "module", m.Name(), "hook", "stop")
		}
		p.endModule(m, domain.TaskStateStopped)
	}
}

// endModule publica el estado terminal de un módulo y libera su marca.
func (p *filePipeline) endModule(m ports.TieredModule, state domain.TaskState) {
	typ := ports.ModuleEventCompleted
	switch state {
	case domain.TaskStateStopped:
		typ = ports.ModuleEventStopped
	case domain.TaskStateFailedInit:
		typ = ports.ModuleEventFailedInit
	}
	p.ds.ClearScheduled(m.Name())
	p.s.recordFileModule(state)
	p.s.publishModule(typ, m.Name(), p.ds.ID)
}

// reportFailures deja un único mensaje por módulo con archivos fallidos.
func (p *filePipeline) reportFailures() {
	p.mu.Lock()
	names := make([]string, 0, len(p.failures))
	for name := range p.failures {
		names = append(names, name)
	}
	sort.Strings(names)
	counts := make([]int, len(names))
	for i, name := range names {
		counts[i] = p.failures[name]
	}
	p.mu.Unlock()

	for i, name := range names {
		p.s.postMessage(ports.SeverityWarning, name, "Errors while processing files",
			fmt.Sprintf("%d file(s) of %s failed, see log for details", counts[i], p.ds.Name))
	}
}

func (p *filePipeline) finish() {
	state := domain.TaskStateCompleted
	if p.progress.Token().IsCancelled() {
		state = domain.TaskStateStopped
	}

	// cierra el pipeline por si run terminó antes de sellar
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.progress.Finish(state)
	p.s.forgetPipeline(p)
	p.s.tracker.release(p.ds.ID)
	p.progress.Token().Release()
	p.s.activity.done()

	p.mu.Lock()
	processed := p.processed
	p.mu.Unlock()
	p.logger.Info("file pipeline finished",
		"state", state,
		"modules", strings.Join(p.names, ","),
		"files", processed,
	)
}

// add reserva un archivo en vuelo. Falla una vez que el pipeline cerró.
func (p *filePipeline) add() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.pending++
	return true
}

// done descuenta un archivo; al quedar en cero con la enumeración sellada
// el pipeline pasa a idle y deja de aceptar archivos.
func (p *filePipeline) done(processed bool) {
	p.mu.Lock()
	p.pending--
	if processed {
		p.processed++
	}
	count := p.processed
	p.closeIfIdleLocked()
	p.mu.Unlock()

	if processed && count%progressEvery == 0 {
		p.progress.Progress(count, "")
	}
}

// seal marca el fin de la enumeración.
func (p *filePipeline) seal() {
	p.mu.Lock()
	p.sealed = true
	p.closeIfIdleLocked()
	p.mu.Unlock()
}

func (p *filePipeline) closeIfIdleLocked() {
	if p.sealed && p.pending == 0 && !p.closed {
		p.closed = true
		close(p.idle)
	}
}

func (p *filePipeline) recordFailure(module string) {
	p.mu.Lock()
	p.failures[module]++
	p.mu.Unlock()
}

// fileTask corre el pipeline de módulos sobre un archivo. Implementa
// workerpool.Task.
type fileTask struct {
	p    *filePipeline
	task *domain.ScheduledTask
}

func (t *fileTask) Name() string { return "file:" + t.task.File.Path() }

// Execute ejecuta los módulos en orden. Un error de un módulo no detiene a
// los siguientes; la cancelación sí. Retorna los errores de módulos unidos.
func (t *fileTask) Execute(context.Context) error {
	state := domain.TaskStateStopped
	defer func() { t.finish(state) }()
	var failures []error

	p := t.p
	token := p.progress.Token()
	file := t.task.File
	results := ports.NewResultTable()
	pc := ports.NewFilePipelineContext(t.task, p.names, token, p.s.services, results)

	for _, m := range p.active {
		if token.IsCancelled() {
			return errors.Join(failures...)
		}
		var res domain.ModuleResult
		err := callHook(func() error {
			var perr error
			res, perr = m.File.Process(pc, file, token)
			return perr
		})
		if err != nil {
			perr := domain.NewProcessingError(m.Name(), file.Path(), err)
			p.logger.Err(perr)
			failures = append(failures, perr)
			res = domain.ModuleResultError
			p.recordFailure(m.Name())
		} else if res == "" {
			res = domain.ModuleResultOK
		}
		results.Record(m.Name(), res)
	}

	state = domain.TaskStateCompleted
	p.s.metrics.IncFilesProcessed(context.Background())
	return errors.Join(failures...)
}

func (t *fileTask) finish(state domain.TaskState) {
	t.p.s.recordTask(domain.TierFile, state)
	t.p.s.tracker.release(t.p.ds.ID)
	t.p.done(state == domain.TaskStateCompleted)
}

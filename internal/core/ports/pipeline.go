// internal/core/ports/pipeline.go
package ports

import (
	"sync"

	"autoingest/internal/core/domain"
	"autoingest/internal/platform/logx"
)

// Services agrupa los colaboradores que el engine inyecta en cada módulo.
// Reemplaza el acceso global a servicios: cada módulo recibe su handle en Init
// y en cada PipelineContext.
type Services interface {
	// Logger retorna un logger con scope del módulo
	Logger(module string) logx.Logger

	// Sink retorna el result sink compartido
	Sink() ResultSink

	// Files retorna el enumerador de archivos del data source
	Files() FileEnumerator

	// PostMessage publica un mensaje en el inbox del operador
	PostMessage(severity Severity, module, title, details string) Message

	// FireDataEvent publica un evento de datos disponibles
	FireDataEvent(ev ModuleDataEvent)

	// FireContentEvent publica un evento de contenido modificado
	FireContentEvent(ev ModuleContentEvent)

	// FreeSpace retorna el espacio libre del volumen de trabajo; false = desconocido
	FreeSpace() (uint64, bool)

	// Setting lee la configuración persistida de un módulo
	Setting(module, key string) (string, bool)

	// SetSetting persiste la configuración de un módulo
	SetSetting(module, key, value string) error

	// ScheduleFile envía un archivo derivado por el pipeline file-tier en curso
	ScheduleFile(pc *PipelineContext, file *domain.File) error

	// DataEventBatch retorna cada cuántos findings se emite un ModuleDataEvent
	DataEventBatch() int
}

// ResultTable guarda el ModuleResult de cada módulo para un archivo.
// Solo el engine escribe; los módulos leen a través de PipelineContext.
type ResultTable struct {
	mu      sync.RWMutex
	results map[string]domain.ModuleResult
}

// NewResultTable crea una tabla vacía.
func NewResultTable() *ResultTable {
	return &ResultTable{results: make(map[string]domain.ModuleResult)}
}

// Record registra el resultado de un módulo.
func (r *ResultTable) Record(module string, result domain.ModuleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[module] = result
}

// Get retorna el resultado de un módulo, si ya corrió.
func (r *ResultTable) Get(module string) (domain.ModuleResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[module]
	return res, ok
}

// PipelineContext une {tarea, pipeline ordenado, token} y se pasa por referencia
// a cada módulo de la corrida. No cambia después de construido.
type PipelineContext struct {
	task     *domain.ScheduledTask
	modules  []string
	token    *domain.CancellationToken
	services Services
	results  *ResultTable
}

// NewPipelineContext crea el contexto de una tarea data-source-tier.
func NewPipelineContext(task *domain.ScheduledTask, modules []string, token *domain.CancellationToken, services Services) *PipelineContext {
	return &PipelineContext{
		task:     task,
		modules:  append([]string(nil), modules...),
		token:    token,
		services: services,
	}
}

// NewFilePipelineContext crea el contexto para un archivo; results se llena
// a medida que cada módulo del pipeline retorna.
func NewFilePipelineContext(task *domain.ScheduledTask, modules []string, token *domain.CancellationToken, services Services, results *ResultTable) *PipelineContext {
	pc := NewPipelineContext(task, modules, token, services)
	pc.results = results
	return pc
}

// Task retorna la tarea programada.
func (pc *PipelineContext) Task() *domain.ScheduledTask { return pc.task }

// DataSource retorna el data source de la tarea.
func (pc *PipelineContext) DataSource() *domain.DataSource { return pc.task.DataSource }

// Modules retorna una copia del pipeline ordenado.
func (pc *PipelineContext) Modules() []string {
	return append([]string(nil), pc.modules...)
}

// Token retorna el token de cancelación.
func (pc *PipelineContext) Token() *domain.CancellationToken { return pc.token }

// Services retorna los colaboradores inyectados.
func (pc *PipelineContext) Services() Services { return pc.services }

// ModuleResult consulta el resultado de un módulo anterior para el mismo archivo.
func (pc *PipelineContext) ModuleResult(module string) (domain.ModuleResult, bool) {
	if pc.results == nil {
		return "", false
	}
	return pc.results.Get(module)
}

// IsCancelled atajo para pc.Token().IsCancelled().
func (pc *PipelineContext) IsCancelled() bool {
	return pc.token != nil && pc.token.IsCancelled()
}

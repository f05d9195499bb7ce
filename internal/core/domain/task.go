// internal/core/domain/task.go
package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScheduledTask es la unidad de trabajo creada al momento del submit:
// un data source (o un archivo dentro de él) más el módulo que lo procesará.
// Nunca se reutiliza: al llegar a estado terminal se descarta.
type ScheduledTask struct {
	ID         string
	DataSource *DataSource
	File       *File // nil para tareas data-source-tier
	Module     string
	Tier       Tier
	CreatedAt  time.Time
}

// NewDataSourceTask crea una tarea para un módulo data-source-tier.
func NewDataSourceTask(ds *DataSource, module string) *ScheduledTask {
	return &ScheduledTask{
		ID:         uuid.NewString(),
		DataSource: ds,
		Module:     module,
		Tier:       TierDataSource,
		CreatedAt:  time.Now(),
	}
}

// NewFileTask crea una tarea para el pipeline file-tier de un archivo.
// Module queda vacío: la tarea cubre el pipeline completo.
func NewFileTask(ds *DataSource, file *File) *ScheduledTask {
	return &ScheduledTask{
		ID:         uuid.NewString(),
		DataSource: ds,
		File:       file,
		Tier:       TierFile,
		CreatedAt:  time.Now(),
	}
}

// Target retorna el contenido que procesa la tarea.
func (t *ScheduledTask) Target() Content {
	if t.File != nil {
		return t.File
	}
	return t.DataSource
}

// CancellationToken es el único canal por el que una cancelación externa
// llega a un módulo en ejecución. La cancelación es cooperativa: el módulo
// debe consultar IsCancelled durante operaciones largas.
type CancellationToken struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	reason string
}

// NewCancellationToken crea un token hijo de parent. Cancelar parent cancela el token.
func NewCancellationToken(parent context.Context) *CancellationToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Cancel solicita la cancelación. Llamadas repetidas son no-op.
func (t *CancellationToken) Cancel(reason string) {
	t.mu.Lock()
	if t.reason == "" {
		t.reason = reason
	}
	t.mu.Unlock()
	t.cancel()
}

// IsCancelled reporta si se solicitó la cancelación.
func (t *CancellationToken) IsCancelled() bool {
	return t.ctx.Err() != nil
}

// Done retorna un canal que se cierra al cancelar.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Context expone el token como context.Context para operaciones bloqueantes.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// Reason retorna el motivo de la primera cancelación explícita.
func (t *CancellationToken) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Release libera los recursos del context sin marcarlo como cancelación explícita.
func (t *CancellationToken) Release() {
	t.cancel()
}

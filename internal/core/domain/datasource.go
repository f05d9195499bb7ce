// internal/core/domain/datasource.go
package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Content es cualquier objeto de evidencia al que se le pueden asociar findings.
type Content interface {
	ContentID() string
	ContentName() string
}

// DataSource representa una unidad de evidencia (imagen de disco) sometida a ingest.
// Root apunta al directorio donde la imagen está expuesta como árbol de archivos.
type DataSource struct {
	ID   string
	Name string
	Root string

	mu        sync.Mutex
	scheduled map[string]struct{}
}

// NewDataSource crea un nuevo data source.
func NewDataSource(id, name, root string) *DataSource {
	return &DataSource{
		ID:        strings.TrimSpace(id),
		Name:      strings.TrimSpace(name),
		Root:      root,
		scheduled: make(map[string]struct{}),
	}
}

// Validate verifica que el data source tenga identidad.
func (d *DataSource) Validate() error {
	if d == nil {
		return ErrNilDataSource
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDataSource)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name is required for %s", ErrInvalidDataSource, d.ID)
	}
	return nil
}

// ContentID implementa Content.
func (d *DataSource) ContentID() string { return d.ID }

// ContentName implementa Content.
func (d *DataSource) ContentName() string { return d.Name }

// TryMarkScheduled marca el módulo como programado para este data source.
// Retorna false si ya había una tarea en vuelo para ese módulo.
func (d *DataSource) TryMarkScheduled(module string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.scheduled == nil {
		d.scheduled = make(map[string]struct{})
	}
	if _, exists := d.scheduled[module]; exists {
		return false
	}
	d.scheduled[module] = struct{}{}
	return true
}

// ClearScheduled libera la marca cuando la tarea del módulo llega a estado terminal.
func (d *DataSource) ClearScheduled(module string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.scheduled, module)
}

// IsScheduled indica si hay una tarea en vuelo del módulo para este data source.
func (d *DataSource) IsScheduled(module string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.scheduled[module]
	return exists
}

// ScheduledModules retorna los módulos en vuelo, ordenados por nombre.
func (d *DataSource) ScheduledModules() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.scheduled))
	for name := range d.scheduled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String retorna una representación legible.
func (d *DataSource) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}

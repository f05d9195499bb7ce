// internal/platform/registry/module_registry.go
package registry

import (
	"fmt"
	"sync"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// ModuleRegistry gestiona el registro y construcción de módulos de análisis.
// Implementa el patrón Registry + Factory: cada módulo se registra con su
// factory y descriptor, y se instancia una única vez (singleton por nombre).
// No existe instancia global: el registry se construye en main y se inyecta.
type ModuleRegistry struct {
	mu          sync.RWMutex
	order       []string
	factories   map[string]ports.ModuleFactory
	descriptors map[string]ports.ModuleDescriptor
	instances   map[string]ports.TieredModule
	logger      logx.Logger
}

// NewModuleRegistry crea un registry vacío.
func NewModuleRegistry(logger logx.Logger) *ModuleRegistry {
	if logger == nil {
		logger = logx.New()
	}
	return &ModuleRegistry{
		factories:   make(map[string]ports.ModuleFactory),
		descriptors: make(map[string]ports.ModuleDescriptor),
		instances:   make(map[string]ports.TieredModule),
		logger:      logger.With("component", "module-registry"),
	}
}

// Register registra un módulo con su factory y descriptor.
func (r *ModuleRegistry) Register(factory ports.ModuleFactory, desc ports.ModuleDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for module %s", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[desc.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateModule, desc.Name)
	}

	r.order = append(r.order, desc.Name)
	r.factories[desc.Name] = factory
	r.descriptors[desc.Name] = desc
	r.logger.Debug("module registered", "name", desc.Name, "tier", desc.Tier, "version", desc.Version)

	return nil
}

// Enumerate retorna los descriptores en orden de registro.
func (r *ModuleRegistry) Enumerate() []ports.ModuleDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.ModuleDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Names retorna los nombres registrados en orden de registro.
func (r *ModuleRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Descriptor retorna el descriptor de un módulo.
func (r *ModuleRegistry) Descriptor(name string) (ports.ModuleDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[name]
	return desc, ok
}

// IsRegistered verifica si un módulo está registrado.
func (r *ModuleRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Instance retorna la instancia del módulo, creándola la primera vez.
func (r *ModuleRegistry) Instance(name string) (ports.TieredModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instanceLocked(name)
}

func (r *ModuleRegistry) instanceLocked(name string) (ports.TieredModule, error) {
	if tm, ok := r.instances[name]; ok {
		return tm, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return ports.TieredModule{}, fmt.Errorf("%w: %s", domain.ErrUnknownModule, name)
	}

	m, err := factory()
	if err != nil {
		return ports.TieredModule{}, fmt.Errorf("failed to build module %s: %w", name, err)
	}
	tm, err := ports.NewTieredModule(r.descriptors[name], m)
	if err != nil {
		return ports.TieredModule{}, err
	}

	r.instances[name] = tm
	r.logger.Debug("module instantiated", "name", name)
	return tm, nil
}

// Snapshot congela los módulos registrados en este momento. Registros
// posteriores no afectan al snapshot. Módulos cuya factory falla quedan
// fuera y se reportan en Snapshot.Failed.
func (r *ModuleRegistry) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Snapshot{
		modules: make(map[string]ports.TieredModule, len(r.order)),
		failed:  make(map[string]error),
	}
	for _, name := range r.order {
		tm, err := r.instanceLocked(name)
		if err != nil {
			r.logger.Warn("module unavailable in snapshot", "name", name, "error", err.Error())
			s.failed[name] = err
			continue
		}
		s.order = append(s.order, name)
		s.modules[name] = tm
	}
	return s
}

// Clear elimina todos los módulos registrados (útil para testing).
func (r *ModuleRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = nil
	r.factories = make(map[string]ports.ModuleFactory)
	r.descriptors = make(map[string]ports.ModuleDescriptor)
	r.instances = make(map[string]ports.TieredModule)
}

// Snapshot es una vista inmutable del registry usada para resolver la
// selección de módulos al momento del submit.
type Snapshot struct {
	order   []string
	modules map[string]ports.TieredModule
	failed  map[string]error
}

// Resolve retorna los módulos pedidos en el orden dado y los nombres que no
// existen en el snapshot. Nombres repetidos se resuelven una sola vez.
func (s *Snapshot) Resolve(names []string) ([]ports.TieredModule, []string) {
	resolved := make([]ports.TieredModule, 0, len(names))
	var unknown []string
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tm, ok := s.modules[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		resolved = append(resolved, tm)
	}
	return resolved, unknown
}

// Names retorna los módulos disponibles en orden de registro.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.order...)
}

// Failed retorna los módulos cuya construcción falló.
func (s *Snapshot) Failed() map[string]error {
	out := make(map[string]error, len(s.failed))
	for k, v := range s.failed {
		out[k] = v
	}
	return out
}

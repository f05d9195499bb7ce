// internal/core/ports/module.go
package ports

import (
	"fmt"

	"autoingest/internal/core/domain"
)

// ModuleDescriptor describe un módulo registrado.
type ModuleDescriptor struct {
	Name             string
	Version          string
	Description      string
	Tier             domain.Tier
	HasConfiguration bool
}

// Validate verifica que el descriptor esté bien formado.
func (d ModuleDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if !d.Tier.IsValid() {
		return fmt.Errorf("%w: %q for module %s", domain.ErrInvalidTier, d.Tier, d.Name)
	}
	return nil
}

// InitContext se entrega a cada módulo en Init.
type InitContext struct {
	// Services colaboradores inyectados (sink, bus, inbox, settings, ...)
	Services Services

	// Args argumentos opcionales específicos del módulo
	Args string
}

// Module es el contrato común de todo módulo de análisis.
// Los módulos son escritos de forma independiente; el engine asume que
// cualquiera de estos hooks puede fallar o hacer panic.
type Module interface {
	// Name retorna el nombre estable del módulo
	Name() string

	// Init prepara el módulo. Un error deja la tarea en FailedInit.
	Init(ic InitContext) error

	// Complete se invoca tras un process exitoso o fallido (no cancelado)
	Complete() error

	// Stop se invoca cuando la tarea fue cancelada (limpieza best-effort)
	Stop() error
}

// DataSourceModule procesa la imagen completa. El engine garantiza que una
// instancia nunca corre para dos data sources a la vez.
type DataSourceModule interface {
	Module

	// Process analiza el data source. Debe consultar token durante trabajo largo.
	Process(pc *PipelineContext, ds *domain.DataSource, token *domain.CancellationToken) error
}

// FileModule se invoca una vez por archivo. Puede ser llamado concurrentemente
// para archivos distintos, por lo que no debe asumir exclusividad.
type FileModule interface {
	Module

	// Process analiza un archivo y retorna su ModuleResult.
	Process(pc *PipelineContext, file *domain.File, token *domain.CancellationToken) (domain.ModuleResult, error)
}

// TieredModule es la unión cerrada {DataSourceLevel(module), FileLevel(module)}
// que despacha el scheduler. Exactamente uno de DataSource/File es no-nil.
type TieredModule struct {
	Descriptor ModuleDescriptor
	DataSource DataSourceModule
	File       FileModule
}

// NewTieredModule clasifica m según el tier declarado en desc.
func NewTieredModule(desc ModuleDescriptor, m Module) (TieredModule, error) {
	if err := desc.Validate(); err != nil {
		return TieredModule{}, err
	}
	switch desc.Tier {
	case domain.TierDataSource:
		dsm, ok := m.(DataSourceModule)
		if !ok {
			return TieredModule{}, fmt.Errorf("%w: %s declared %s", domain.ErrTierMismatch, desc.Name, desc.Tier)
		}
		return TieredModule{Descriptor: desc, DataSource: dsm}, nil
	case domain.TierFile:
		fm, ok := m.(FileModule)
		if !ok {
			return TieredModule{}, fmt.Errorf("%w: %s declared %s", domain.ErrTierMismatch, desc.Name, desc.Tier)
		}
		return TieredModule{Descriptor: desc, File: fm}, nil
	default:
		return TieredModule{}, fmt.Errorf("%w: %q", domain.ErrInvalidTier, desc.Tier)
	}
}

// Name retorna el nombre del módulo.
func (t TieredModule) Name() string {
	return t.Descriptor.Name
}

// Tier retorna el tier del módulo.
func (t TieredModule) Tier() domain.Tier {
	return t.Descriptor.Tier
}

// Base retorna el módulo subyacente como Module.
func (t TieredModule) Base() Module {
	if t.DataSource != nil {
		return t.DataSource
	}
	return t.File
}

// ModuleFactory crea la instancia de un módulo.
type ModuleFactory func() (Module, error)

// internal/core/domain/enums.go
package domain

// Tier define el nivel de capacidad de un módulo de análisis.
type Tier string

const (
	// TierDataSource módulos que procesan la imagen completa de una sola vez
	TierDataSource Tier = "datasource"

	// TierFile módulos que se invocan una vez por cada archivo descubierto
	TierFile Tier = "file"
)

// IsValid verifica si el tier es válido.
func (t Tier) IsValid() bool {
	switch t {
	case TierDataSource, TierFile:
		return true
	default:
		return false
	}
}

// String retorna la representación string del tier.
func (t Tier) String() string {
	return string(t)
}

// ModuleResult es el resultado de procesar un archivo con un módulo file-tier.
// Los módulos posteriores del pipeline lo consultan para decidir si saltan el archivo.
type ModuleResult string

const (
	ModuleResultOK    ModuleResult = "ok"
	ModuleResultError ModuleResult = "error"
)

// String retorna la representación string del resultado.
func (r ModuleResult) String() string {
	return string(r)
}

// TaskState es el estado del ciclo de vida de una tarea programada.
type TaskState string

const (
	TaskStatePending      TaskState = "pending"
	TaskStateInitializing TaskState = "initializing"
	TaskStateRunning      TaskState = "running"
	TaskStateCompleting   TaskState = "completing"
	TaskStateStopping     TaskState = "stopping"

	// Estados terminales
	TaskStateCompleted  TaskState = "completed"
	TaskStateStopped    TaskState = "stopped"
	TaskStateFailedInit TaskState = "failed_init"
)

// transitions lista los estados alcanzables desde cada estado no terminal.
var transitions = map[TaskState][]TaskState{
	TaskStatePending:      {TaskStateInitializing, TaskStateStopped},
	TaskStateInitializing: {TaskStateRunning, TaskStateStopping, TaskStateFailedInit},
	TaskStateRunning:      {TaskStateCompleting, TaskStateStopping},
	TaskStateCompleting:   {TaskStateCompleted},
	TaskStateStopping:     {TaskStateStopped},
}

// IsTerminal retorna true si el estado no admite más transiciones.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateStopped, TaskStateFailedInit:
		return true
	default:
		return false
	}
}

// CanTransitionTo verifica si la transición s -> next es válida.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// String retorna la representación string del estado.
func (s TaskState) String() string {
	return string(s)
}

// FileKind clasifica el contenido descubierto dentro de una imagen.
type FileKind string

const (
	// FileKindRegular archivo asignado del sistema de archivos
	FileKindRegular FileKind = "regular"

	// FileKindUnallocated bloques de espacio no asignado expuestos como archivo
	FileKindUnallocated FileKind = "unallocated"

	// FileKindDerived archivo producido por un módulo (ej: extraído de un zip)
	FileKindDerived FileKind = "derived"
)

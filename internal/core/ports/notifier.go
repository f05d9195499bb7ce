// internal/core/ports/notifier.go
package ports

import (
	"fmt"

	"autoingest/internal/core/domain"
)

// Event es un registro inmutable publicado una sola vez a los observers.
type Event interface {
	EventKind() EventKind
}

// EventKind identifica la familia de un evento.
type EventKind string

const (
	EventKindModule  EventKind = "module"
	EventKindData    EventKind = "data"
	EventKindContent EventKind = "content"
	EventKindIngest  EventKind = "ingest"
)

// ModuleEventType son las transiciones de lifecycle publicadas.
type ModuleEventType string

const (
	ModuleEventPending    ModuleEventType = "pending"
	ModuleEventStarted    ModuleEventType = "started"
	ModuleEventCompleted  ModuleEventType = "completed"
	ModuleEventStopped    ModuleEventType = "stopped"
	ModuleEventFailedInit ModuleEventType = "failed_init"
)

// ModuleEvent describe una transición de lifecycle de un módulo.
type ModuleEvent struct {
	Type       ModuleEventType
	Module     string
	DataSource string
}

// EventKind implementa Event.
func (ModuleEvent) EventKind() EventKind { return EventKindModule }

func (e ModuleEvent) String() string {
	return fmt.Sprintf("module %s %s on %s", e.Module, e.Type, e.DataSource)
}

// ModuleDataEvent anuncia nuevos findings de un kind.
type ModuleDataEvent struct {
	Module       string
	ArtifactKind domain.FindingKind
	Count        int
}

// EventKind implementa Event.
func (ModuleDataEvent) EventKind() EventKind { return EventKindData }

// ModuleContentEvent anuncia que el contenido o metadata de un objeto cambió.
type ModuleContentEvent struct {
	Module string
	Object domain.Content
}

// EventKind implementa Event.
func (ModuleContentEvent) EventKind() EventKind { return EventKindContent }

// IngestEventType marca el inicio o fin del ingest de un data source.
type IngestEventType string

const (
	IngestStarted   IngestEventType = "started"
	IngestCompleted IngestEventType = "completed"
)

// IngestEvent se emite al admitir la primera tarea de un data source y cuando
// la última llega a estado terminal.
type IngestEvent struct {
	Type       IngestEventType
	DataSource string
}

// EventKind implementa Event.
func (IngestEvent) EventKind() EventKind { return EventKindIngest }

// Observer recibe eventos del bus. Un error o panic queda aislado en el bus.
type Observer interface {
	OnEvent(ev Event) error
}

// ObserverFunc adapta una función a Observer.
type ObserverFunc func(ev Event) error

// OnEvent implementa Observer.
func (f ObserverFunc) OnEvent(ev Event) error { return f(ev) }

// Publisher publica eventos de forma síncrona.
type Publisher interface {
	Publish(ev Event)
}

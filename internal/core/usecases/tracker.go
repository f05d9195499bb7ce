// internal/core/usecases/tracker.go
package usecases

import (
	"sync"

	"autoingest/internal/core/ports"
)

// ingestTracker cuenta las tareas pendientes de cada data source y publica
// IngestStarted al admitir la primera e IngestCompleted cuando la última
// llega a estado terminal.
type ingestTracker struct {
	publisher ports.Publisher

	mu          sync.Mutex
	outstanding map[string]int
}

func newIngestTracker(publisher ports.Publisher) *ingestTracker {
	return &ingestTracker{
		publisher:   publisher,
		outstanding: make(map[string]int),
	}
}

// acquire suma una tarea pendiente para dsID.
func (t *ingestTracker) acquire(dsID string) {
	t.mu.Lock()
	t.outstanding[dsID]++
	first := t.outstanding[dsID] == 1
	t.mu.Unlock()

	if first {
		t.publish(ports.IngestStarted, dsID)
	}
}

// release descuenta una tarea terminada.
func (t *ingestTracker) release(dsID string) {
	t.mu.Lock()
	n, ok := t.outstanding[dsID]
	if !ok {
		t.mu.Unlock()
		return
	}
	last := n <= 1
	if last {
		delete(t.outstanding, dsID)
	} else {
		t.outstanding[dsID] = n - 1
	}
	t.mu.Unlock()

	if last {
		t.publish(ports.IngestCompleted, dsID)
	}
}

// count retorna las tareas pendientes de dsID.
func (t *ingestTracker) count(dsID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outstanding[dsID]
}

func (t *ingestTracker) publish(typ ports.IngestEventType, dsID string) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(ports.IngestEvent{Type: typ, DataSource: dsID})
}

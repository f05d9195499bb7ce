// internal/platform/eventbus/notifier.go
package eventbus

import (
	"sync"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
)

// DefaultBatchSize es cada cuántos findings se emite un ModuleDataEvent.
const DefaultBatchSize = 100

// DataEventNotifier acumula findings de un kind y publica un ModuleDataEvent
// cada batch findings, más un flush final con el remanente.
type DataEventNotifier struct {
	publisher ports.Publisher
	module    string
	kind      domain.FindingKind
	batch     int

	mu      sync.Mutex
	pending int
	total   int
}

// NewDataEventNotifier crea un notifier. batch <= 0 usa DefaultBatchSize.
func NewDataEventNotifier(publisher ports.Publisher, module string, kind domain.FindingKind, batch int) *DataEventNotifier {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &DataEventNotifier{
		publisher: publisher,
		module:    module,
		kind:      kind,
		batch:     batch,
	}
}

// Record suma n findings y publica cada vez que se completa un batch.
func (n *DataEventNotifier) Record(count int) {
	var fire []int

	n.mu.Lock()
	for i := 0; i < count; i++ {
		n.pending++
		n.total++
		if n.pending == n.batch {
			fire = append(fire, n.pending)
			n.pending = 0
		}
	}
	n.mu.Unlock()

	for _, c := range fire {
		n.publish(c)
	}
}

// Flush publica el remanente, si lo hay.
func (n *DataEventNotifier) Flush() {
	n.mu.Lock()
	c := n.pending
	n.pending = 0
	n.mu.Unlock()

	if c > 0 {
		n.publish(c)
	}
}

// Total retorna todos los findings registrados.
func (n *DataEventNotifier) Total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.total
}

func (n *DataEventNotifier) publish(count int) {
	if n.publisher == nil {
		return
	}
	n.publisher.Publish(ports.ModuleDataEvent{
		Module:       n.module,
		ArtifactKind: n.kind,
		Count:        count,
	})
}

// DataEventSource es la parte de ports.Services que necesita un notifier.
type DataEventSource interface {
	FireDataEvent(ev ports.ModuleDataEvent)
	DataEventBatch() int
}

// NotifierFor crea un notifier que publica a través de los servicios de un
// módulo, con el batch configurado en el engine.
func NotifierFor(src DataEventSource, module string, kind domain.FindingKind) *DataEventNotifier {
	return NewDataEventNotifier(firePublisher{src}, module, kind, src.DataEventBatch())
}

type firePublisher struct{ src DataEventSource }

func (p firePublisher) Publish(ev ports.Event) {
	if de, ok := ev.(ports.ModuleDataEvent); ok {
		p.src.FireDataEvent(de)
	}
}

// internal/platform/eventbus/bus.go
package eventbus

import (
	"context"
	"fmt"
	"sync"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/metrics"
)

// Bus entrega eventos de forma síncrona, en orden de suscripción, en la
// goroutine de quien publica. No hay cola ni redelivery.
type Bus struct {
	mu       sync.RWMutex
	subs     []subscription
	nextID   uint64
	reported map[uint64]bool

	logger  logx.Logger
	inbox   ports.MessagePoster
	metrics metrics.IngestMetrics
}

type subscription struct {
	id       uint64
	name     string
	observer ports.Observer
}

// Subscription identifica una suscripción para Unsubscribe.
type Subscription uint64

// Options configura el bus.
type Options struct {
	Logger  logx.Logger
	Inbox   ports.MessagePoster
	Metrics metrics.IngestMetrics
}

// New crea un bus vacío.
func New(opts Options) *Bus {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	return &Bus{
		reported: make(map[uint64]bool),
		logger:   opts.Logger.With("component", "eventbus"),
		inbox:    opts.Inbox,
		metrics:  opts.Metrics,
	}
}

// Subscribe registra un observer. name se usa en logs y mensajes de error.
func (b *Bus) Subscribe(name string, obs ports.Observer) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, name: name, observer: obs})
	return Subscription(b.nextID)
}

// Unsubscribe elimina una suscripción. Ids desconocidos se ignoran.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == uint64(s) {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			delete(b.reported, sub.id)
			return
		}
	}
}

// Len retorna el número de observers suscritos.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish entrega ev a cada observer. Un observer que falla no interrumpe la
// secuencia ni se desuscribe.
func (b *Bus) Publish(ev ports.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.metrics.IncEventsPublished(context.Background(), string(ev.EventKind()))

	for _, sub := range subs {
		if err := deliver(sub.observer, ev); err != nil {
			b.fault(sub, ev, err)
		}
	}
}

// deliver invoca al observer convirtiendo un panic en error.
func deliver(obs ports.Observer, ev ports.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.PanicError(r)
		}
	}()
	return obs.OnEvent(ev)
}

// fault registra un fallo de observer: un log por fallo, un mensaje de inbox
// por observer.
func (b *Bus) fault(sub subscription, ev ports.Event, err error) {
	oerr := domain.NewObserverError(sub.name, err)
	b.logger.Err(oerr, "observer", sub.name, "event", ev.EventKind())
	b.metrics.IncObserverFaults(context.Background())

	b.mu.Lock()
	first := !b.reported[sub.id]
	b.reported[sub.id] = true
	b.mu.Unlock()

	if first && b.inbox != nil {
		b.inbox.PostMessage(ports.SeverityError, sub.name,
			"Observer error",
			fmt.Sprintf("observer %s failed while handling a %s event: %v", sub.name, ev.EventKind(), err))
	}
}

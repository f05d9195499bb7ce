// internal/platform/workerpool/fair_lock.go
package workerpool

import (
	"container/list"
	"context"
	"sync"
)

// FairLock es un mutex con admisión FIFO: quien llega mientras el lock está
// tomado espera detrás de todos los que llegaron antes. Se construye una vez
// y se inyecta en cada worker data-source-tier.
type FairLock struct {
	mu      sync.Mutex
	held    bool
	holder  string
	waiters *list.List // de *waiter
}

type waiter struct {
	owner string
	ready chan struct{}
}

// NewFairLock crea un lock libre.
func NewFairLock() *FairLock {
	return &FairLock{waiters: list.New()}
}

// Guard representa la posesión del lock. Release es idempotente.
type Guard struct {
	lock  *FairLock
	owner string
	once  sync.Once
}

// Ticket es un lugar en la cola del lock. Se obtiene con Reserve y se
// consume una sola vez con Wait.
type Ticket struct {
	lock *FairLock
	w    *waiter
	elem *list.Element
}

// Reserve toma un lugar en la cola sin bloquear. El orden de los Reserve
// define el orden de adquisición.
func (l *FairLock) Reserve(owner string) *Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := &waiter{owner: owner, ready: make(chan struct{})}
	if !l.held && l.waiters.Len() == 0 {
		l.held = true
		l.holder = owner
		close(w.ready)
		return &Ticket{lock: l, w: w}
	}
	return &Ticket{lock: l, w: w, elem: l.waiters.PushBack(w)}
}

// Wait bloquea hasta que el ticket llegue al frente de la cola o ctx termine.
// Un ticket ya concedido retorna el guard aunque ctx haya terminado. Un
// waiter cancelado sale de la cola sin alterar el orden del resto.
func (t *Ticket) Wait(ctx context.Context) (*Guard, error) {
	select {
	case <-t.w.ready:
		return &Guard{lock: t.lock, owner: t.w.owner}, nil
	default:
	}

	select {
	case <-t.w.ready:
		return &Guard{lock: t.lock, owner: t.w.owner}, nil
	case <-ctx.Done():
		l := t.lock
		l.mu.Lock()
		select {
		case <-t.w.ready:
			// el lock fue entregado mientras se cancelaba: pasarlo al siguiente
			l.mu.Unlock()
			l.release()
		default:
			l.waiters.Remove(t.elem)
			l.mu.Unlock()
		}
		return nil, ctx.Err()
	}
}

// Acquire bloquea hasta obtener el lock en orden de llegada o hasta que ctx
// termine.
func (l *FairLock) Acquire(ctx context.Context, owner string) (*Guard, error) {
	return l.Reserve(owner).Wait(ctx)
}

// TryAcquire toma el lock solo si está libre y nadie espera.
func (l *FairLock) TryAcquire(owner string) (*Guard, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held || l.waiters.Len() > 0 {
		return nil, false
	}
	l.held = true
	l.holder = owner
	return &Guard{lock: l, owner: owner}, true
}

// release entrega el lock al primer waiter o lo deja libre.
func (l *FairLock) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	front := l.waiters.Front()
	if front == nil {
		l.held = false
		l.holder = ""
		return
	}
	w := l.waiters.Remove(front).(*waiter)
	l.holder = w.owner
	close(w.ready)
}

// Release libera el lock y lo entrega al siguiente waiter.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(g.lock.release)
}

// Owner retorna la etiqueta con la que se adquirió el guard.
func (g *Guard) Owner() string {
	return g.owner
}

// Waiting retorna cuántos llamadores están en cola.
func (l *FairLock) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}

// Holder retorna la etiqueta del poseedor actual ("" si está libre).
func (l *FairLock) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}

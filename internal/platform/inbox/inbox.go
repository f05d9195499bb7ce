// internal/platform/inbox/inbox.go
package inbox

import (
	"sync"
	"time"

	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// Listener recibe cada mensaje publicado.
type Listener func(msg ports.Message)

// Inbox es el canal de notificaciones al operador. Los ids son monotónicos.
type Inbox struct {
	mu        sync.Mutex
	nextID    uint64
	messages  []ports.Message
	listeners []Listener
	logger    logx.Logger
}

// New crea un inbox vacío.
func New(logger logx.Logger) *Inbox {
	if logger == nil {
		logger = logx.New()
	}
	return &Inbox{logger: logger.With("component", "inbox")}
}

// PostMessage publica un mensaje y notifica a los listeners.
func (i *Inbox) PostMessage(severity ports.Severity, module, title, details string) ports.Message {
	i.mu.Lock()
	i.nextID++
	msg := ports.Message{
		ID:        i.nextID,
		Severity:  severity,
		Module:    module,
		Title:     title,
		Details:   details,
		Timestamp: time.Now(),
	}
	i.messages = append(i.messages, msg)
	listeners := append([]Listener(nil), i.listeners...)
	i.mu.Unlock()

	i.logger.Debug("message posted", "id", msg.ID, "severity", severity, "module", module, "title", title)

	for _, l := range listeners {
		i.notify(l, msg)
	}
	return msg
}

// notify aísla el panic de un listener.
func (i *Inbox) notify(l Listener, msg ports.Message) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Warn("inbox listener panicked", "id", msg.ID, "panic", r)
		}
	}()
	l(msg)
}

// Subscribe registra un listener.
func (i *Inbox) Subscribe(l Listener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = append(i.listeners, l)
}

// Messages retorna una copia de los mensajes publicados.
func (i *Inbox) Messages() []ports.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]ports.Message(nil), i.messages...)
}

// CountBySeverity cuenta los mensajes de una severidad.
func (i *Inbox) CountBySeverity(sev ports.Severity) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, m := range i.messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

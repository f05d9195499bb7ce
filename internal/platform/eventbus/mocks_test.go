// internal/platform/eventbus/mocks_test.go
package eventbus

import (
	"sync"
	"time"

	"autoingest/internal/core/ports"
)

// recordingObserver guarda cada evento recibido y opcionalmente falla.
type recordingObserver struct {
	mu     sync.Mutex
	events []ports.Event
	fail   error
	panics bool
}

func (o *recordingObserver) OnEvent(ev ports.Event) error {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()

	if o.panics {
		panic("observer exploded")
	}
	return o.fail
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

// fakeInbox registra los mensajes publicados.
type fakeInbox struct {
	mu       sync.Mutex
	messages []ports.Message
}

func (f *fakeInbox) PostMessage(sev ports.Severity, module, title, details string) ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := ports.Message{
		ID:        uint64(len(f.messages) + 1),
		Severity:  sev,
		Module:    module,
		Title:     title,
		Details:   details,
		Timestamp: time.Now(),
	}
	f.messages = append(f.messages, msg)
	return msg
}

func (f *fakeInbox) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// capturePublisher guarda los eventos publicados.
type capturePublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (c *capturePublisher) Publish(ev ports.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

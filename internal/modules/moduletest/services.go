// internal/modules/moduletest/services.go
package moduletest

import (
	"context"
	"sync"
	"time"

	"autoingest/internal/adapters/blackboard"
	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// Services es un ports.Services en memoria para tests de módulos.
// Registra mensajes y eventos de datos para poder inspeccionarlos.
type Services struct {
	Memory *blackboard.MemorySink
	Enum   ports.FileEnumerator
	Batch  int

	mu       sync.Mutex
	messages []ports.Message
	data     []ports.ModuleDataEvent
	content  []ports.ModuleContentEvent
	settings map[string]string
	derived  []*domain.File
}

var _ ports.Services = (*Services)(nil)

// New crea servicios con un MemorySink y el enumerador dado.
func New(enum ports.FileEnumerator) *Services {
	return &Services{
		Memory:   blackboard.NewMemorySink(),
		Enum:     enum,
		Batch:    100,
		settings: make(map[string]string),
	}
}

func (s *Services) Logger(string) logx.Logger { return logx.NewNop() }

func (s *Services) Sink() ports.ResultSink { return s.Memory }

func (s *Services) Files() ports.FileEnumerator { return s.Enum }

func (s *Services) PostMessage(severity ports.Severity, module, title, details string) ports.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ports.Message{
		ID:        uint64(len(s.messages) + 1),
		Severity:  severity,
		Module:    module,
		Title:     title,
		Details:   details,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Services) FireDataEvent(ev ports.ModuleDataEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, ev)
}

func (s *Services) FireContentEvent(ev ports.ModuleContentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = append(s.content, ev)
}

func (s *Services) FreeSpace() (uint64, bool) { return 0, false }

func (s *Services) Setting(module, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[module+"."+key]
	return v, ok
}

func (s *Services) SetSetting(module, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[module+"."+key] = value
	return nil
}

func (s *Services) ScheduleFile(_ *ports.PipelineContext, f *domain.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derived = append(s.derived, f)
	return nil
}

func (s *Services) DataEventBatch() int { return s.Batch }

// Messages retorna los mensajes publicados.
func (s *Services) Messages() []ports.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Message(nil), s.messages...)
}

// MessagesWith cuenta los mensajes de una severidad.
func (s *Services) MessagesWith(sev ports.Severity) int {
	n := 0
	for _, m := range s.Messages() {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// DataEvents retorna los eventos de datos publicados.
func (s *Services) DataEvents() []ports.ModuleDataEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ModuleDataEvent(nil), s.data...)
}

// Attr busca el valor de un atributo en un finding.
func Attr(f blackboard.Finding, typ domain.AttributeType) (any, bool) {
	for _, a := range f.Attributes {
		if a.Type == typ {
			return a.Value, true
		}
	}
	return nil, false
}

// PipelineContext arma un contexto mínimo para invocar Process directamente.
func PipelineContext(ds *domain.DataSource, module string, svc ports.Services) (*ports.PipelineContext, *domain.CancellationToken) {
	token := domain.NewCancellationToken(context.Background())
	task := domain.NewDataSourceTask(ds, module)
	return ports.NewPipelineContext(task, []string{module}, token, svc), token
}

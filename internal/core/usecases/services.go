// internal/core/usecases/services.go
package usecases

import (
	"context"
	"fmt"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/eventbus"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/metrics"
)

// IngestServices es el handle de colaboradores que reciben los módulos en
// Init y en cada PipelineContext. Se construye una vez por Scheduler.
type IngestServices struct {
	logger   logx.Logger
	sink     ports.ResultSink
	files    ports.FileEnumerator
	inbox    ports.MessagePoster
	bus      ports.Publisher
	monitor  ports.ResourceMonitor
	settings ports.SettingsStore
	batch    int

	scheduler interface {
		ScheduleFile(pc *ports.PipelineContext, f *domain.File) error
	}
}

var _ ports.Services = (*IngestServices)(nil)

// Logger retorna un logger con scope del módulo.
func (s *IngestServices) Logger(module string) logx.Logger {
	return s.logger.With("module", module)
}

// Sink retorna el result sink compartido.
func (s *IngestServices) Sink() ports.ResultSink { return s.sink }

// Files retorna el enumerador de archivos.
func (s *IngestServices) Files() ports.FileEnumerator { return s.files }

// PostMessage publica en el inbox; sin inbox el mensaje solo se registra en el log.
func (s *IngestServices) PostMessage(severity ports.Severity, module, title, details string) ports.Message {
	if s.inbox == nil {
		s.logger.Info("inbox message", "severity", severity, "module", module, "title", title)
		return ports.Message{Severity: severity, Module: module, Title: title, Details: details}
	}
	return s.inbox.PostMessage(severity, module, title, details)
}

// FireDataEvent publica un ModuleDataEvent.
func (s *IngestServices) FireDataEvent(ev ports.ModuleDataEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// FireContentEvent publica un ModuleContentEvent.
func (s *IngestServices) FireContentEvent(ev ports.ModuleContentEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// FreeSpace consulta el monitor de recursos.
func (s *IngestServices) FreeSpace() (uint64, bool) {
	if s.monitor == nil {
		return 0, false
	}
	return s.monitor.FreeSpace()
}

// Setting lee la configuración persistida de un módulo.
func (s *IngestServices) Setting(module, key string) (string, bool) {
	if s.settings == nil {
		return "", false
	}
	return s.settings.Get(module, key)
}

// SetSetting persiste la configuración de un módulo.
func (s *IngestServices) SetSetting(module, key, value string) error {
	if s.settings == nil {
		return fmt.Errorf("no settings store configured")
	}
	return s.settings.Set(module, key, value)
}

// ScheduleFile envía un archivo derivado al pipeline file-tier en curso.
func (s *IngestServices) ScheduleFile(pc *ports.PipelineContext, f *domain.File) error {
	if s.scheduler == nil {
		return domain.ErrSchedulerClosed
	}
	return s.scheduler.ScheduleFile(pc, f)
}

// DataEventBatch retorna el tamaño de batch de los data events.
func (s *IngestServices) DataEventBatch() int {
	if s.batch <= 0 {
		return eventbus.DefaultBatchSize
	}
	return s.batch
}

// meteredSink cuenta findings y registra cada error de escritura una vez.
// El error se devuelve envuelto como SinkError; el módulo decide si sigue.
type meteredSink struct {
	inner   ports.ResultSink
	logger  logx.Logger
	metrics metrics.IngestMetrics
}

func newMeteredSink(inner ports.ResultSink, logger logx.Logger, m metrics.IngestMetrics) ports.ResultSink {
	if inner == nil {
		return nil
	}
	return &meteredSink{inner: inner, logger: logger.With("component", "sink"), metrics: m}
}

func (s *meteredSink) NewFinding(obj domain.Content, kind domain.FindingKind) (ports.FindingHandle, error) {
	h, err := s.inner.NewFinding(obj, kind)
	if err != nil {
		serr := domain.NewSinkError("", obj.ContentName(), err)
		s.logger.Err(serr, "kind", kind, "object", obj.ContentID())
		return nil, serr
	}
	s.metrics.IncFindings(context.Background(), string(kind))
	return &meteredHandle{inner: h, sink: s, kind: kind, obj: obj}, nil
}

func (s *meteredSink) Close() error { return s.inner.Close() }

// CountByKind delega si el sink subyacente expone estadísticas.
func (s *meteredSink) CountByKind() (map[domain.FindingKind]int, error) {
	if stats, ok := s.inner.(ports.SinkStats); ok {
		return stats.CountByKind()
	}
	return nil, fmt.Errorf("sink does not expose statistics")
}

type meteredHandle struct {
	inner ports.FindingHandle
	sink  *meteredSink
	kind  domain.FindingKind
	obj   domain.Content
}

func (h *meteredHandle) ID() int64 { return h.inner.ID() }

func (h *meteredHandle) AddAttributes(attrs []domain.Attribute) error {
	if err := h.inner.AddAttributes(attrs); err != nil {
		serr := domain.NewSinkError("", h.obj.ContentName(), err)
		h.sink.logger.Err(serr, "finding", h.inner.ID())
		return serr
	}
	return nil
}

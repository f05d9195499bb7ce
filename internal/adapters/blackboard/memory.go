// internal/adapters/blackboard/memory.go
package blackboard

import (
	"sync"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/errors"
)

// Finding es un finding leído del sink.
type Finding struct {
	ID         int64
	ObjectID   string
	ObjectName string
	Kind       domain.FindingKind
	Attributes []domain.Attribute
}

// MemorySink guarda findings en memoria. Se usa con --db ":memory:" y en tests.
type MemorySink struct {
	mu       sync.Mutex
	findings []*Finding
	closed   bool
}

var (
	_ ports.ResultSink = (*MemorySink)(nil)
	_ ports.SinkStats  = (*MemorySink)(nil)
)

// NewMemorySink crea un sink vacío.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// NewFinding implementa ports.ResultSink.
func (s *MemorySink) NewFinding(obj domain.Content, kind domain.FindingKind) (ports.FindingHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrClosed
	}
	f := &Finding{
		ID:         int64(len(s.findings) + 1),
		ObjectID:   obj.ContentID(),
		ObjectName: obj.ContentName(),
		Kind:       kind,
	}
	s.findings = append(s.findings, f)
	return &memoryHandle{sink: s, finding: f}, nil
}

// Count retorna el total de findings.
func (s *MemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.findings)
}

// CountByKind implementa ports.SinkStats.
func (s *MemorySink) CountByKind() (map[domain.FindingKind]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.FindingKind]int)
	for _, f := range s.findings {
		out[f.Kind]++
	}
	return out, nil
}

// Findings retorna copias de los findings de kind.
func (s *MemorySink) Findings(kind domain.FindingKind) []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Finding
	for _, f := range s.findings {
		if f.Kind != kind {
			continue
		}
		cp := *f
		cp.Attributes = append([]domain.Attribute(nil), f.Attributes...)
		out = append(out, cp)
	}
	return out
}

// Close implementa ports.ResultSink.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memoryHandle struct {
	sink    *MemorySink
	finding *Finding
}

func (h *memoryHandle) ID() int64 { return h.finding.ID }

func (h *memoryHandle) AddAttributes(attrs []domain.Attribute) error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if h.sink.closed {
		return errors.ErrClosed
	}
	h.finding.Attributes = append(h.finding.Attributes, attrs...)
	return nil
}

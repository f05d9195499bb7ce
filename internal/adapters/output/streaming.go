// internal/adapters/output/streaming.go
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// EventJournal escribe cada evento del bus como una línea JSON, a medida
// que ocurren. Sirve de bitácora auditable del ingest.
type EventJournal struct {
	path   string
	logger logx.Logger

	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	lines  int
	closed bool
}

var _ ports.Observer = (*EventJournal)(nil)

// journalLine es el formato de cada línea.
type journalLine struct {
	At    time.Time   `json:"at"`
	Kind  string      `json:"kind"`
	Event ports.Event `json:"event"`
}

// NewEventJournal crea dir/<id>/autoingest_<timestamp>_events.jsonl.
func NewEventJournal(dir, id string, started time.Time, logger logx.Logger) (*EventJournal, error) {
	if dir == "" {
		dir = "."
	}
	fullDir := filepath.Join(dir, sanitizeName(id))
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(fullDir, JournalFilename(started))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event journal: %w", err)
	}

	return &EventJournal{
		path:   path,
		logger: logger.With("component", "event-journal"),
		file:   f,
		enc:    json.NewEncoder(f),
	}, nil
}

// JournalFilename nombre del journal para un ingest iniciado en started.
func JournalFilename(started time.Time) string {
	return fmt.Sprintf("autoingest_%s_events.jsonl", started.Format("20060102_150405"))
}

// OnEvent implementa ports.Observer.
func (j *EventJournal) OnEvent(ev ports.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	if err := j.enc.Encode(journalLine{At: time.Now(), Kind: string(ev.EventKind()), Event: ev}); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	j.lines++
	return nil
}

// Path ruta del journal.
func (j *EventJournal) Path() string { return j.path }

// Lines eventos escritos.
func (j *EventJournal) Lines() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lines
}

// Close cierra el archivo. Eventos posteriores se descartan.
func (j *EventJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	j.logger.Debug("event journal closed", "file", j.path, "events", j.lines)
	return j.file.Close()
}

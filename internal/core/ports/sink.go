// internal/core/ports/sink.go
package ports

import "autoingest/internal/core/domain"

// ResultSink es el store compartido donde los módulos escriben findings.
// El engine no valida la semántica de los atributos.
type ResultSink interface {
	// NewFinding crea un finding de kind asociado a obj
	NewFinding(obj domain.Content, kind domain.FindingKind) (FindingHandle, error)

	// Close libera recursos del sink
	Close() error
}

// FindingHandle es un finding recién creado.
type FindingHandle interface {
	// ID identificador del finding en el sink
	ID() int64

	// AddAttributes adjunta atributos al finding
	AddAttributes(attrs []domain.Attribute) error
}

// SinkStats expone conteos por kind (usado por el resumen final).
type SinkStats interface {
	CountByKind() (map[domain.FindingKind]int, error)
}

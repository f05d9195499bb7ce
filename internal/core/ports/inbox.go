// internal/core/ports/inbox.go
package ports

import "time"

// Severity clasifica un mensaje del inbox.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityData    Severity = "data"
)

// Message es una notificación al operador, independiente del event bus.
type Message struct {
	ID        uint64
	Severity  Severity
	Module    string
	Title     string
	Details   string
	Timestamp time.Time
}

// MessagePoster es el canal best-effort hacia el operador.
type MessagePoster interface {
	PostMessage(severity Severity, module, title, details string) Message
}

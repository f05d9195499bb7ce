// internal/core/ports/settings.go
package ports

// SettingsStore persiste configuración por módulo como pares string.
type SettingsStore interface {
	// Get retorna el valor o false si no existe
	Get(module, key string) (string, bool)

	// Set guarda un valor
	Set(module, key, value string) error

	// GetAll retorna una copia de todas las claves del módulo
	GetAll(module string) map[string]string

	// SetAll guarda varias claves preservando las no especificadas
	SetAll(module string, values map[string]string) error
}

// internal/core/ports/monitor.go
package ports

// ResourceMonitor expone la señal de backpressure de almacenamiento.
type ResourceMonitor interface {
	// FreeSpace retorna bytes libres; false si el volumen no pudo consultarse
	FreeSpace() (uint64, bool)

	// BelowThreshold es true solo si el espacio libre es conocido y menor al umbral
	BelowThreshold() bool
}

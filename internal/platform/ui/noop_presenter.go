// internal/platform/ui/noop_presenter.go
package ui

import "autoingest/internal/core/ports"

// NoopPresenter es una implementación vacía del Presenter
// que no produce ninguna salida. Útil para modo quiet o headless.
type NoopPresenter struct{}

// NewNoopPresenter crea una instancia del presenter sin salida
func NewNoopPresenter() *NoopPresenter {
	return &NoopPresenter{}
}

// Start no hace nada
func (n *NoopPresenter) Start(info RunInfo) {}

// Report no hace nada
func (n *NoopPresenter) Report(u ports.ProgressUpdate) {}

// Message no hace nada
func (n *NoopPresenter) Message(msg ports.Message) {}

// Finish no hace nada
func (n *NoopPresenter) Finish(stats RunStats) {}

// Close no hace nada
func (n *NoopPresenter) Close() error {
	return nil
}

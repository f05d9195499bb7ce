// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio comunes.
var (
	// Module lifecycle errors
	ErrInitialization    = errors.New("module initialization failed")
	ErrProcessing        = errors.New("module processing failed")
	ErrObserver          = errors.New("event observer failed")
	ErrSink              = errors.New("result sink write failed")
	ErrResourceExhausted = errors.New("free space below threshold")

	// Registry errors
	ErrUnknownModule   = errors.New("unknown module")
	ErrTierMismatch    = errors.New("module does not implement its declared tier")
	ErrInvalidTier     = errors.New("invalid module tier")
	ErrDuplicateModule = errors.New("module already registered")

	// Scheduler errors
	ErrNilDataSource     = errors.New("data source cannot be nil")
	ErrInvalidDataSource = errors.New("invalid data source")
	ErrSchedulerClosed   = errors.New("scheduler is closed")
	ErrCancelled         = errors.New("task was cancelled")
)

// ModuleError envuelve un fallo originado dentro de un módulo de análisis.
// Kind es uno de los sentinels de lifecycle (ErrInitialization, ErrProcessing, ...).
type ModuleError struct {
	Kind   error
	Module string
	Target string
	Err    error
}

// Error implementa la interfaz error.
func (e *ModuleError) Error() string {
	msg := e.Kind.Error()
	if e.Module != "" {
		msg += fmt.Sprintf(": module %q", e.Module)
	}
	if e.Target != "" {
		msg += fmt.Sprintf(" target %q", e.Target)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap expone tanto el kind como la causa para errors.Is / errors.As.
func (e *ModuleError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewInitializationError crea un error de init para el módulo.
func NewInitializationError(module string, err error) error {
	return &ModuleError{Kind: ErrInitialization, Module: module, Err: err}
}

// NewProcessingError crea un error de process para el módulo y target.
func NewProcessingError(module, target string, err error) error {
	return &ModuleError{Kind: ErrProcessing, Module: module, Target: target, Err: err}
}

// NewSinkError crea un error de escritura en el result sink.
func NewSinkError(module, target string, err error) error {
	return &ModuleError{Kind: ErrSink, Module: module, Target: target, Err: err}
}

// NewObserverError crea un error de observer; Module es el nombre del observer.
func NewObserverError(observer string, err error) error {
	return &ModuleError{Kind: ErrObserver, Module: observer, Err: err}
}

// PanicError convierte el valor recuperado de un panic en error.
func PanicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", recovered)
}

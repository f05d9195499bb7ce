// internal/platform/errors/errors.go

// Package errors agrega contexto a los errores de adapters y paquetes de
// plataforma sin perder la cadena para errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels compartidos por adapters y configuración.
var (
	// ErrInvalidInput configuración o argumento inválido
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed operación sobre un recurso ya cerrado (sink, store)
	ErrClosed = errors.New("resource closed")
)

// contextError antepone un mensaje a la causa.
type contextError struct {
	msg   string
	cause error
}

func (e *contextError) Error() string {
	return e.msg + ": " + e.cause.Error()
}

func (e *contextError) Unwrap() error { return e.cause }

// Wrap antepone msg a err. Con err nil retorna nil.
//
//	if err := sink.Close(); err != nil {
//	    return errors.Wrap(err, "close blackboard")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &contextError{msg: msg, cause: err}
}

// Wrapf es Wrap con mensaje formateado.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &contextError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is delega en errors.Is; evita importar ambos paquetes errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con detalle legible: fmt.Errorf("%w: ...", ErrConflict).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	// ErrDeadlock lo produce la capa de persistencia cuando el motor aborta la transacción por deadlock.
	ErrDeadlock = errors.New("deadlock detectado")
)

// Invalid envuelve ErrInvalidInput con un mensaje.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound envuelve ErrNotFound con el recurso buscado.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden envuelve ErrForbidden. No debe incluir estado interno del recurso.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflict envuelve ErrConflict, normalmente con el estado actual y el requerido.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Message devuelve el detalle legible de un error de dominio envuelto
// (lo que sigue al prefijo del sentinel), o el texto completo si no lo es.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range []error{ErrInvalidInput, ErrNotFound, ErrForbidden, ErrConflict, ErrDeadlock, ErrDuplicate, ErrUnauthorized} {
		if errors.Is(err, s) {
			msg := err.Error()
			prefix := s.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so that errors.Is(err, ErrTimeout) holds for clones.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrTimeout            = New("TIMEOUT", http.StatusGatewayTimeout, "La petición excedió el tiempo de espera")
	ErrNetwork            = New("NETWORK_ERROR", http.StatusBadGateway, "No se pudo conectar con el servidor")
	ErrHTTP               = New("HTTP_ERROR", http.StatusBadGateway, "Error desconocido")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "Conflicto. El recurso ya existe.")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "Recurso no encontrado.")
	ErrDecode             = New("DECODE_ERROR", http.StatusBadGateway, "unexpected response shape")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Usuario o contraseña incorrectos")
	ErrInactiveUser       = New("INACTIVE_USER", http.StatusForbidden, "Usuario inactivo. Contacta al administrador.")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "No autorizado. Inicia sesión nuevamente.")
	ErrPartiallyCompleted = New("PARTIALLY_COMPLETED", http.StatusConflict, "operation partially completed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStorageUnavailable means the store could not be opened. It is fatal
	// for the session: nothing that needs the store should keep initializing.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConstraint is a uniqueness violation, either from the store index or
	// from an application level duplicate check.
	ErrConstraint = errors.New("constraint violation")
	// ErrNotFound means the edit or delete target no longer exists.
	ErrNotFound = errors.New("not found")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	if errors.As(err, &validationError) {
		return true
	}
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

// Unwrap lets errors.As reach the individual field errors.
func (ve *ValidationErrors) Unwrap() []error {
	return ve.Errors
}

// OrNil returns nil when nothing was collected.
func (ve *ValidationErrors) OrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

// UserMessage converts an error from any layer into the text shown to the
// user. Unknown errors get a generic retry message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorageUnavailable):
		return "No se pudo abrir la base de datos. La aplicación no puede continuar."
	case errors.Is(err, ErrConstraint):
		return "Ya existe un registro con ese valor. Por favor, elija un valor diferente."
	case errors.Is(err, ErrNotFound):
		return "El registro ya no existe."
	case IsValidationError(err):
		return "Datos inválidos: " + err.Error()
	default:
		return "Ocurrió un error. Por favor, intente de nuevo."
	}
}

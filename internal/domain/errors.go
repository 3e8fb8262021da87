package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrAuthorization     = errors.New("autorización de comprobante fallida")
	ErrQuery             = errors.New("consulta de comprobante fallida")
	ErrAlreadyAuthorized = errors.New("el comprobante ya tiene CAE asignado")
	ErrComprobanteSealed = errors.New("el comprobante ya fue enviado a AFIP")
)

// ValidationError datos de entrada incompletos o inválidos, detectados antes de hablar con AFIP.
// Fields lista todos los campos con problemas (no solo el primero).
type ValidationError struct {
	Fields []string
	Reason string
}

// NewValidationError construye el error con la razón y los campos afectados.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// AuthorizationErrorKind clasifica el fallo de una solicitud de CAE.
type AuthorizationErrorKind string

const (
	// AuthorityRejected AFIP devolvió un mensaje de error (rechazo, número duplicado, etc.).
	AuthorityRejected AuthorizationErrorKind = "AUTHORITY_REJECTED"
	// UnexpectedAuthorityState AFIP no informó error pero la aprobación vino incompleta.
	UnexpectedAuthorityState AuthorizationErrorKind = "UNEXPECTED_AUTHORITY_STATE"
	// AuthorityUnreachable falla de transporte o de ticket de acceso.
	AuthorityUnreachable AuthorizationErrorKind = "AUTHORITY_UNREACHABLE"
)

// AuthorizationError fallo fatal para el número de comprobante en curso. No se reintenta.
type AuthorizationError struct {
	Kind          AuthorizationErrorKind
	Message       string
	Observaciones []string // observaciones de AFIP que acompañaron al rechazo
	Err           error
}

func (e *AuthorizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("autorización [%s]: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("autorización [%s]: %s", e.Kind, e.Message)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrAuthorization).
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrAuthorization
}

// QueryErrorKind clasifica el fallo de una consulta.
type QueryErrorKind string

// AuthorityCommunicationFailed cualquier error de AFIP distinto de "no encontrado".
const AuthorityCommunicationFailed QueryErrorKind = "AUTHORITY_COMMUNICATION_FAILED"

// QueryError fallo de comunicación durante una consulta. "No encontrado" nunca es un QueryError.
type QueryError struct {
	Kind    QueryErrorKind
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consulta [%s]: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("consulta [%s]: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrQuery).
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

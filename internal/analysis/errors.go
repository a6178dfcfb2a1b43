package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing messages. The service and its users speak Portuguese.
const (
	MsgNoFileSelected   = "Por favor, selecione um arquivo primeiro."
	MsgProcessingFailed = "Erro ao processar arquivo"
	MsgTransportFailed  = "Não foi possível conectar ao serviço de análise."
	MsgCancelled        = "Análise cancelada."
)

// ValidationError is raised locally before any request is issued
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// SchemaError means the service answered with a body that does not match
// the expected result shape. Path locates the first violated invariant.
type SchemaError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Reason)
}

// ServiceError is a structured error reported by the analysis service
type ServiceError struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	parts := []string{fmt.Sprintf("status=%d", e.StatusCode)}
	if e.RequestID != "" {
		parts = append(parts, "request_id="+e.RequestID)
	}
	parts = append(parts, e.Detail)
	return "service error: " + strings.Join(parts, ": ")
}

// TransportError means the request could not complete
type TransportError struct {
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: cause=%s", e.Message, e.Cause.Error())
	}
	return "transport error: " + e.Message
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NewSchemaError creates a schema error
func NewSchemaError(path, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// NewServiceError creates a service error, falling back to the generic
// processing message when the service gave no usable detail.
func NewServiceError(status int, detail string) *ServiceError {
	if strings.TrimSpace(detail) == "" {
		detail = MsgProcessingFailed
	}
	return &ServiceError{StatusCode: status, Detail: detail}
}

// NewTransportError creates a transport error with the generic message
func NewTransportError(cause error) *TransportError {
	return &TransportError{Message: MsgTransportFailed, Cause: cause}
}

// NewCancelledError creates a transport error for an aborted request
func NewCancelledError(cause error) *TransportError {
	return &TransportError{Message: MsgCancelled, Cause: cause}
}

// ErrNoFileSelected is returned when submitting without a selection
func ErrNoFileSelected() *ValidationError {
	return NewValidationError("file", "", MsgNoFileSelected)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsServiceError checks if an error is a service error
func IsServiceError(err error) bool {
	var target *ServiceError
	return errors.As(err, &target)
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// UserMessage maps any error to the text shown to the user. Service details
// are shown verbatim; schema problems are hidden behind a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var service *ServiceError
	if errors.As(err, &service) {
		return service.Detail
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Message
	}
	return MsgProcessingFailed
}

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput                = "SERVICE_BAD_INPUT"
	ServiceErrorInstanceNotFound        = "SERVICE_INSTANCE_NOT_FOUND"
	ServiceErrorResolutionFailed        = "SERVICE_RESOLUTION_FAILED"
	ServiceErrorConfigDecryptionFailed  = "SERVICE_CONFIG_DECRYPTION_FAILED"
	ServiceErrorConfigInvalid           = "SERVICE_CONFIG_INVALID"
	ServiceErrorProviderOperationFailed = "SERVICE_PROVIDER_OPERATION_FAILED"
	ServiceErrorRateLimited             = "SERVICE_RATE_LIMITED"
	ServiceErrorInternal                = "SERVICE_INTERNAL_ERROR"
)

var (
	ErrInstanceNotFound  = errors.New("core: service instance not found")
	ErrServiceResolution = errors.New("core: service resolution failed")
	ErrConfigDecryption  = errors.New("core: config decryption failed")
	ErrConfigValidation  = errors.New("core: config validation failed")
)

// ServiceErrorConverter is implemented by typed errors that carry their own
// caller-facing envelope.
type ServiceErrorConverter interface {
	ToServiceError() *goerrors.Error
}

type InstanceNotFoundError struct {
	TenantID    string
	ServiceType ServiceType
	InstanceID  string
}

func (e *InstanceNotFoundError) Error() string {
	if e == nil {
		return ErrInstanceNotFound.Error()
	}
	return fmt.Sprintf("%s: %s instance %q for tenant %q",
		ErrInstanceNotFound.Error(), e.ServiceType, e.InstanceID, e.TenantID)
}

func (e *InstanceNotFoundError) Unwrap() error { return ErrInstanceNotFound }

func (e *InstanceNotFoundError) ToServiceError() *goerrors.Error {
	err := goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(ServiceErrorInstanceNotFound)
	if e != nil {
		err = err.WithMetadata(map[string]any{
			"tenant_id":    e.TenantID,
			"service_type": string(e.ServiceType),
			"instance_id":  e.InstanceID,
		})
	}
	return err
}

// ServiceResolutionError reports that no adapter could be produced for a
// request. Upstream marks failures raised by a provider factory.
type ServiceResolutionError struct {
	TenantID    string
	ServiceType ServiceType
	AdapterType AdapterType
	InstanceID  string
	Reason      string
	Upstream    bool
	Cause       error
}

func (e *ServiceResolutionError) Error() string {
	if e == nil {
		return ErrServiceResolution.Error()
	}
	msg := ErrServiceResolution.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ServiceResolutionError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrServiceResolution
	}
	return errors.Join(ErrServiceResolution, e.Cause)
}

func (e *ServiceResolutionError) ToServiceError() *goerrors.Error {
	status := http.StatusInternalServerError
	category := goerrors.CategoryInternal
	if e != nil && e.Upstream {
		status = http.StatusBadGateway
		category = goerrors.CategoryExternal
	}
	err := goerrors.New(e.Error(), category).
		WithCode(status).
		WithTextCode(ServiceErrorResolutionFailed)
	if e != nil {
		err = err.WithMetadata(map[string]any{
			"tenant_id":    e.TenantID,
			"service_type": string(e.ServiceType),
			"adapter_type": string(e.AdapterType),
		})
	}
	return err
}

// ConfigDecryptionError never carries ciphertext, plaintext or key material.
type ConfigDecryptionError struct {
	InstanceID string
	Cause      error
}

func (e *ConfigDecryptionError) Error() string {
	if e == nil {
		return ErrConfigDecryption.Error()
	}
	return fmt.Sprintf("%s for instance %q", ErrConfigDecryption.Error(), e.InstanceID)
}

func (e *ConfigDecryptionError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrConfigDecryption
	}
	return errors.Join(ErrConfigDecryption, e.Cause)
}

func (e *ConfigDecryptionError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorConfigDecryptionFailed).
		WithSeverity(goerrors.SeverityError)
}

type ConfigValidationError struct {
	InstanceID  string
	AdapterType AdapterType
	Reason      string
	Violations  []FieldViolation
}

func (e *ConfigValidationError) Error() string {
	if e == nil {
		return ErrConfigValidation.Error()
	}
	msg := ErrConfigValidation.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Violations) > 0 {
		parts := make([]string, 0, len(e.Violations))
		for _, violation := range e.Violations {
			parts = append(parts, violation.String())
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

func (e *ConfigValidationError) Unwrap() error { return ErrConfigValidation }

func (e *ConfigValidationError) ToServiceError() *goerrors.Error {
	if e == nil || len(e.Violations) == 0 {
		return goerrors.New(e.Error(), goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ServiceErrorConfigInvalid)
	}
	fields := make([]goerrors.FieldError, 0, len(e.Violations))
	for _, violation := range e.Violations {
		fields = append(fields, goerrors.FieldError{Field: violation.Field, Message: violation.Message})
	}
	return goerrors.NewValidation(e.Error(), fields...).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorConfigInvalid)
}

// ResolutionStageError tags a resolution failure with the pipeline stage that
// produced it.
type ResolutionStageError struct {
	Stage string
	Err   error
}

func (e *ResolutionStageError) Error() string {
	if e == nil || e.Err == nil {
		return ErrServiceResolution.Error()
	}
	return e.Err.Error()
}

func (e *ResolutionStageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ResolutionStageError) ToServiceError() *goerrors.Error {
	if e == nil {
		return ToServiceError(ErrServiceResolution)
	}
	mapped := ToServiceError(e.Err)
	if mapped == nil {
		return nil
	}
	return mapped.WithMetadata(map[string]any{"stage": e.Stage})
}

// StageOf returns the resolution stage recorded on err, if any.
func StageOf(err error) string {
	var stageErr *ResolutionStageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// ToServiceError maps any error to a go-errors envelope with a stable text
// code and HTTP status.
func ToServiceError(err error) *goerrors.Error {
	return serviceErrorMapper(err)
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var stageErr *ResolutionStageError
	if errors.As(err, &stageErr) && stageErr.Err != nil {
		return ensureServiceErrorEnvelope(stageErr.ToServiceError())
	}
	var converter ServiceErrorConverter
	if errors.As(err, &converter) {
		return ensureServiceErrorEnvelope(converter.ToServiceError())
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

// MissingDependencyError reports a handler wired without the collaborator it
// delegates to.
func MissingDependencyError(component string) error {
	return goerrors.New(strings.TrimSpace(component)+" is required", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorInternal).
		WithMetadata(map[string]any{"dependency": strings.TrimSpace(component)})
}

// FieldError builds a 400 validation error carrying a single field failure.
func FieldError(scope string, field string, message string) error {
	return goerrors.NewValidation(scope+": validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

func BadInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorBadInput)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorInstanceNotFound
	case goerrors.CategoryExternal:
		return ServiceErrorProviderOperationFailed
	case goerrors.CategoryRateLimit:
		return ServiceErrorRateLimited
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

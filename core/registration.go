package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterInstance validates req.Config against the adapter schema, encrypts
// it and persists the record. The stored config is the caller's input, not
// the schema-resolved map, so later default changes still apply.
func (s *Service) RegisterInstance(ctx context.Context, req RegisterInstanceRequest) (instance ServiceInstance, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id":    strings.TrimSpace(req.TenantID),
		"service_type": string(req.ServiceType),
		"adapter_type": string(req.AdapterType),
	}
	defer func() {
		if instance.ID != "" {
			fields["instance_id"] = instance.ID
		}
		s.observeOperation(ctx, startedAt, "register_instance", err, fields)
	}()

	if s == nil || s.instanceWriter == nil {
		return ServiceInstance{}, MissingDependencyError("core: instance writer")
	}
	if strings.TrimSpace(req.TenantID) == "" {
		return ServiceInstance{}, BadInputError("core: tenant id is required")
	}
	key := AdapterKey{ServiceType: req.ServiceType, AdapterType: req.AdapterType}
	if err := key.Validate(); err != nil {
		return ServiceInstance{}, err
	}
	registration, ok := s.registry.Lookup(req.ServiceType, req.AdapterType)
	if !ok {
		return ServiceInstance{}, goerrors.New("adapter is not registered: "+key.String(), goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(ServiceErrorBadInput).
			WithMetadata(map[string]any{"adapter_key": key.String()})
	}
	if req.Config == nil {
		req.Config = map[string]any{}
	}
	if registration.ConfigSchema != nil {
		if _, violations := registration.ConfigSchema.Validate(req.Config); len(violations) > 0 {
			return ServiceInstance{}, registrationValidationError(violations)
		}
	}

	plaintext, err := json.Marshal(req.Config)
	if err != nil {
		return ServiceInstance{}, fmt.Errorf("core: encode instance config: %w", err)
	}
	envelope, err := s.secretProvider.Encrypt(ctx, plaintext)
	clear(plaintext)
	if err != nil {
		return ServiceInstance{}, goerrors.Wrap(err, goerrors.CategoryInternal, "service config encryption failed").
			WithCode(http.StatusInternalServerError).
			WithTextCode(ServiceErrorInternal)
	}

	return s.instanceWriter.Create(ctx, CreateInstanceInput{
		TenantID:    strings.TrimSpace(req.TenantID),
		ServiceType: req.ServiceType,
		AdapterType: req.AdapterType,
		Name:        req.Name,
		Config:      string(envelope),
		APIVersion:  req.APIVersion,
		IsPrimary:   req.IsPrimary,
	})
}

func registrationValidationError(violations []FieldViolation) error {
	fieldErrors := make([]goerrors.FieldError, 0, len(violations))
	for _, violation := range violations {
		fieldErrors = append(fieldErrors, goerrors.FieldError{
			Field:   violation.Field,
			Message: violation.Message,
		})
	}
	return goerrors.NewValidation("service config is invalid", fieldErrors...).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorConfigInvalid).
		WithSeverity(goerrors.SeverityError)
}

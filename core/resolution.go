package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	StageLookup      = "lookup"
	StageDecrypt     = "decrypt"
	StageParse       = "parse"
	StageRegistry    = "registry"
	StageValidate    = "validate"
	StageInstantiate = "instantiate"
)

type resolutionState struct {
	request      ResolveRequest
	instance     ServiceInstance
	plaintext    []byte
	config       map[string]any
	registration AdapterRegistration
	adapter      Adapter
}

type resolutionStage struct {
	name string
	run  func(ctx context.Context, state *resolutionState) error
}

// Resolve runs lookup, decrypt, parse, registry, validate and instantiate in
// order. The first failing stage ends the run with a ResolutionStageError.
// Nothing is cached between calls.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (resolution Resolution, err error) {
	if s == nil {
		return Resolution{}, fmt.Errorf("core: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now().UTC()
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.InstanceID = strings.TrimSpace(req.InstanceID)
	fields := map[string]any{
		"tenant_id":    req.TenantID,
		"service_type": string(req.ServiceType),
	}
	if req.InstanceID != "" {
		fields["instance_id"] = req.InstanceID
	}
	defer func() {
		if resolution.InstanceID != "" {
			fields["instance_id"] = resolution.InstanceID
			fields["adapter_type"] = string(resolution.AdapterType)
		}
		s.observeOperation(ctx, startedAt, "resolve", err, fields)
	}()

	if err := req.Validate(); err != nil {
		return Resolution{}, err
	}

	state := &resolutionState{request: req}
	defer func() {
		clear(state.plaintext)
	}()

	for _, stage := range s.resolutionStages() {
		if err := stage.run(ctx, state); err != nil {
			return Resolution{}, &ResolutionStageError{Stage: stage.name, Err: err}
		}
	}

	return Resolution{
		Adapter:     state.adapter,
		InstanceID:  state.instance.ID,
		TenantID:    state.instance.TenantID,
		AdapterType: state.instance.AdapterType,
	}, nil
}

func (s *Service) resolutionStages() []resolutionStage {
	return []resolutionStage{
		{name: StageLookup, run: s.lookupStage},
		{name: StageDecrypt, run: s.decryptStage},
		{name: StageParse, run: parseStage},
		{name: StageRegistry, run: s.registryStage},
		{name: StageValidate, run: validateStage},
		{name: StageInstantiate, run: s.instantiateStage},
	}
}

func (s *Service) lookupStage(ctx context.Context, state *resolutionState) error {
	req := state.request
	instance, ok, err := s.instances.GetInstanceByResolution(ctx, req.TenantID, req.ServiceType, req.InstanceID)
	if err != nil {
		var notFound *InstanceNotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return &ServiceResolutionError{
			TenantID:    req.TenantID,
			ServiceType: req.ServiceType,
			InstanceID:  req.InstanceID,
			Reason:      "instance lookup failed",
			Cause:       err,
		}
	}
	if !ok {
		return &ServiceResolutionError{
			TenantID:    req.TenantID,
			ServiceType: req.ServiceType,
			Reason: fmt.Sprintf("no %s instance configured for tenant %q or system tenant %q",
				req.ServiceType, req.TenantID, s.instances.SystemTenantID()),
		}
	}
	state.instance = instance
	return nil
}

func (s *Service) decryptStage(ctx context.Context, state *resolutionState) error {
	plaintext, err := s.secretProvider.Decrypt(ctx, []byte(state.instance.Config))
	if err != nil {
		// Cause is logged by type only.
		s.logError(ctx, "service config decryption failed", map[string]any{
			"tenant_id":    state.instance.TenantID,
			"instance_id":  state.instance.ID,
			"service_type": string(state.instance.ServiceType),
			"adapter_type": string(state.instance.AdapterType),
			"cause_type":   fmt.Sprintf("%T", err),
		})
		return &ConfigDecryptionError{InstanceID: state.instance.ID, Cause: err}
	}
	state.plaintext = plaintext
	return nil
}

func parseStage(_ context.Context, state *resolutionState) error {
	var config map[string]any
	if err := json.Unmarshal(state.plaintext, &config); err != nil || config == nil {
		return &ConfigValidationError{
			InstanceID:  state.instance.ID,
			AdapterType: state.instance.AdapterType,
			Reason:      "invalid JSON",
		}
	}
	state.config = config
	return nil
}

func (s *Service) registryStage(_ context.Context, state *resolutionState) error {
	registration, ok := s.registry.Lookup(state.instance.ServiceType, state.instance.AdapterType)
	if !ok {
		return &ServiceResolutionError{
			TenantID:    state.request.TenantID,
			ServiceType: state.instance.ServiceType,
			AdapterType: state.instance.AdapterType,
			InstanceID:  state.instance.ID,
			Reason:      fmt.Sprintf("no adapter registered for %s", state.instance.Key()),
		}
	}
	state.registration = registration
	return nil
}

func validateStage(_ context.Context, state *resolutionState) error {
	validated, violations := state.registration.ConfigSchema.Validate(state.config)
	if len(violations) > 0 {
		return &ConfigValidationError{
			InstanceID:  state.instance.ID,
			AdapterType: state.instance.AdapterType,
			Violations:  violations,
		}
	}
	state.config = validated
	return nil
}

func (s *Service) instantiateStage(ctx context.Context, state *resolutionState) error {
	instance := state.instance
	s.logDebug(ctx, "instantiating adapter", map[string]any{
		"tenant_id":    instance.TenantID,
		"instance_id":  instance.ID,
		"adapter_type": string(instance.AdapterType),
		"config_keys":  configKeys(state.config),
	})
	adapter, err := state.registration.Factory(state.config, FactoryContext{
		InstanceID: instance.ID,
		Name:       instance.Name,
		Version:    instance.APIVersion,
		Logger:     s.logger,
		HTTPClient: s.httpClient,
		RateLimit:  s.rateLimit,
	})
	if err == nil && adapter == nil {
		err = fmt.Errorf("factory returned no adapter")
	}
	if err != nil {
		return &ServiceResolutionError{
			TenantID:    state.request.TenantID,
			ServiceType: instance.ServiceType,
			AdapterType: instance.AdapterType,
			InstanceID:  instance.ID,
			Reason:      "adapter factory failed",
			Upstream:    true,
			Cause:       err,
		}
	}
	if adapter.ServiceType() != instance.ServiceType {
		return &ServiceResolutionError{
			TenantID:    state.request.TenantID,
			ServiceType: instance.ServiceType,
			AdapterType: instance.AdapterType,
			InstanceID:  instance.ID,
			Reason:      fmt.Sprintf("adapter reports service type %s", adapter.ServiceType()),
		}
	}
	state.adapter = adapter
	return nil
}

// configKeys lists setting names only; decrypted values never reach the log.
func configKeys(config map[string]any) []string {
	keys := lo.Keys(config)
	slices.Sort(keys)
	return keys
}

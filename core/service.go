package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-service-adapters/did"
)

// Service resolves stored service instances into live adapters and verifies
// DIDs issued through them. It holds no per-request state.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	registry        AdapterLookup
	instanceStore   InstanceStore
	instanceWriter  InstanceWriter
	instances       *InstanceResolver
	secretProvider  SecretProvider
	didVerifier     DIDVerifier
	httpClient      *http.Client
	rateLimit       RateLimitPolicy
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("services", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("services"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.instanceStore == nil {
		return nil, mapBuildError(builder.errorMapper, MissingDependencyError("core: instance store"))
	}
	if builder.secretProvider == nil {
		return nil, mapBuildError(builder.errorMapper, MissingDependencyError("core: secret provider"))
	}
	if builder.registry == nil {
		empty, _ := NewAdapterRegistry()
		builder.registry = empty
	}
	if builder.instanceWriter == nil {
		if writer, ok := builder.instanceStore.(InstanceWriter); ok {
			builder.instanceWriter = writer
		}
	}
	if builder.httpClient == nil {
		builder.httpClient = &http.Client{Timeout: finalConfig.Adapters.RequestTimeout}
	}
	if builder.didVerifier == nil {
		builder.didVerifier = did.DefaultVerifier(did.Config{
			RequestTimeout:   finalConfig.DID.RequestTimeout,
			MaxDocumentBytes: finalConfig.DID.MaxDocumentBytes,
		})
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		registry:        builder.registry,
		instanceStore:   builder.instanceStore,
		instanceWriter:  builder.instanceWriter,
		instances:       NewInstanceResolver(builder.instanceStore, finalConfig.Resolution.SystemTenantID),
		secretProvider:  builder.secretProvider,
		didVerifier:     builder.didVerifier,
		httpClient:      builder.httpClient,
		rateLimit:       builder.rateLimit,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Logger() Logger {
	if s == nil {
		return glog.Nop()
	}
	return s.logger
}

func (s *Service) Instances() *InstanceResolver {
	if s == nil {
		return nil
	}
	return s.instances
}

// MapError converts err with the configured mapper.
func (s *Service) MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return defaultErrorMapper(err)
	}
	return s.errorMapper(err)
}

func (s *Service) ResolveDID(ctx context.Context, tenantID string, instanceID string) (DIDAdapter, error) {
	resolution, err := s.Resolve(ctx, ResolveRequest{
		TenantID:    tenantID,
		ServiceType: ServiceTypeDID,
		InstanceID:  instanceID,
	})
	if err != nil {
		return nil, err
	}
	adapter, ok := resolution.Adapter.(DIDAdapter)
	if !ok {
		return nil, adapterContractError(resolution, ServiceTypeDID)
	}
	return adapter, nil
}

func (s *Service) ResolveIdentityResolver(ctx context.Context, tenantID string, instanceID string) (IdentityResolverAdapter, error) {
	resolution, err := s.Resolve(ctx, ResolveRequest{
		TenantID:    tenantID,
		ServiceType: ServiceTypeIDR,
		InstanceID:  instanceID,
	})
	if err != nil {
		return nil, err
	}
	adapter, ok := resolution.Adapter.(IdentityResolverAdapter)
	if !ok {
		return nil, adapterContractError(resolution, ServiceTypeIDR)
	}
	return adapter, nil
}

func (s *Service) ResolveStorage(ctx context.Context, tenantID string, instanceID string) (StorageAdapter, error) {
	resolution, err := s.Resolve(ctx, ResolveRequest{
		TenantID:    tenantID,
		ServiceType: ServiceTypeStorage,
		InstanceID:  instanceID,
	})
	if err != nil {
		return nil, err
	}
	adapter, ok := resolution.Adapter.(StorageAdapter)
	if !ok {
		return nil, adapterContractError(resolution, ServiceTypeStorage)
	}
	return adapter, nil
}

func adapterContractError(resolution Resolution, serviceType ServiceType) error {
	return &ResolutionStageError{
		Stage: StageInstantiate,
		Err: &ServiceResolutionError{
			TenantID:    resolution.TenantID,
			ServiceType: serviceType,
			AdapterType: resolution.AdapterType,
			InstanceID:  resolution.InstanceID,
			Reason:      fmt.Sprintf("adapter %s does not implement the %s contract", resolution.AdapterType, strings.ToLower(string(serviceType))),
		},
	}
}

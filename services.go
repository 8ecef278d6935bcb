package services

import (
	"github.com/goliatone/go-service-adapters/core"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceType = core.ServiceType
type AdapterType = core.AdapterType
type ServiceInstance = core.ServiceInstance
type AdapterRegistration = core.AdapterRegistration
type InstanceStore = core.InstanceStore
type InstanceWriter = core.InstanceWriter
type SecretProvider = core.SecretProvider

type ResolveRequest = core.ResolveRequest
type Resolution = core.Resolution
type VerifyDIDRequest = core.VerifyDIDRequest
type RegisterInstanceRequest = core.RegisterInstanceRequest
type ProvisionDIDRequest = core.ProvisionDIDRequest
type StoreObjectRequest = core.StoreObjectRequest

const (
	ServiceTypeDID     = core.ServiceTypeDID
	ServiceTypeIDR     = core.ServiceTypeIDR
	ServiceTypeStorage = core.ServiceTypeStorage
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRegistry        = core.WithRegistry
	WithInstanceStore   = core.WithInstanceStore
	WithInstanceWriter  = core.WithInstanceWriter
	WithSecretProvider  = core.WithSecretProvider
	WithDIDVerifier     = core.WithDIDVerifier
	WithHTTPClient      = core.WithHTTPClient
	WithRateLimitPolicy = core.WithRateLimitPolicy
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a core service backed by the built-in adapter registry.
// WithRegistry replaces the registry. Outbound throttling is off unless
// WithRateLimitPolicy supplies a policy.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	registry, err := DefaultAdapterRegistry()
	if err != nil {
		return nil, err
	}
	return core.NewService(cfg, append([]Option{core.WithRegistry(registry)}, opts...)...)
}

package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-service-adapters/did"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// InstanceStore is the read side of service instance persistence.
type InstanceStore interface {
	// GetOwnedByID returns the instance with id when its tenant is one of
	// owners.
	GetOwnedByID(ctx context.Context, id string, owners []string) (ServiceInstance, bool, error)
	FindPrimary(ctx context.Context, tenantID string, serviceType ServiceType) (ServiceInstance, bool, error)
	// ListByTenant returns instances ordered primary first, then oldest, then
	// by id.
	ListByTenant(ctx context.Context, tenantID string, serviceType ServiceType) ([]ServiceInstance, error)
}

type InstanceWriter interface {
	Create(ctx context.Context, in CreateInstanceInput) (ServiceInstance, error)
}

type AdapterLookup interface {
	Lookup(serviceType ServiceType, adapterType AdapterType) (AdapterRegistration, bool)
}

type DIDVerifier interface {
	Verify(ctx context.Context, req did.VerifyRequest) (did.Result, error)
	Methods() []string
}

type Adapter interface {
	ServiceType() ServiceType
}

type DIDAdapter interface {
	Adapter
	CreateDID(ctx context.Context, req CreateDIDRequest) (CreatedDID, error)
	GetDocument(ctx context.Context, id string) (map[string]any, error)
	// KeyIDs returns the key identifiers the provider manages for id.
	KeyIDs(ctx context.Context, id string) ([]string, error)
}

type IdentityResolverAdapter interface {
	Adapter
	Resolve(ctx context.Context, req LinkRequest) (LinkSet, error)
}

type StorageAdapter interface {
	Adapter
	Store(ctx context.Context, req StoreRequest) (StoredObject, error)
	Retrieve(ctx context.Context, key string) ([]byte, error)
}

// RateLimitKey identifies one provider endpoint for throttling.
type RateLimitKey struct {
	ProviderID string
	Endpoint   string
}

// ProviderResponseMeta is what a provider reply says about its limits.
type ProviderResponseMeta struct {
	StatusCode int
	Headers    http.Header
}

// RateLimitPolicy gates outbound provider calls on the throttle state the
// provider last reported.
type RateLimitPolicy interface {
	BeforeCall(ctx context.Context, key RateLimitKey) error
	AfterCall(ctx context.Context, key RateLimitKey, res ProviderResponseMeta) error
}

// FactoryContext carries instance metadata and shared plumbing into adapter
// factories.
type FactoryContext struct {
	InstanceID string
	Name       string
	Version    string
	Logger     Logger
	HTTPClient *http.Client
	RateLimit  RateLimitPolicy
}

type AdapterFactory func(config map[string]any, fc FactoryContext) (Adapter, error)

type AdapterRegistration struct {
	ServiceType  ServiceType
	AdapterType  AdapterType
	ConfigSchema *ConfigSchema
	Factory      AdapterFactory
}

func (r AdapterRegistration) Key() AdapterKey {
	return AdapterKey{ServiceType: r.ServiceType, AdapterType: r.AdapterType}
}

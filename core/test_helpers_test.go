package core

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-service-adapters/did"
)

type testSecretProvider struct{}

func (testSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(plaintext)
	return []byte("enc:" + encoded), nil
}

func (testSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	value := string(ciphertext)
	if !strings.HasPrefix(value, "enc:") {
		return nil, fmt.Errorf("test secret provider: invalid ciphertext")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "enc:"))
}

func encryptedConfig(t *testing.T, config map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	ciphertext, err := testSecretProvider{}.Encrypt(context.Background(), payload)
	if err != nil {
		t.Fatalf("encrypt config: %v", err)
	}
	return string(ciphertext)
}

type memoryInstanceStore struct {
	mu        sync.Mutex
	instances []ServiceInstance
	calls     atomic.Int32
}

func newMemoryInstanceStore(instances ...ServiceInstance) *memoryInstanceStore {
	return &memoryInstanceStore{instances: instances}
}

func (s *memoryInstanceStore) GetOwnedByID(_ context.Context, id string, owners []string) (ServiceInstance, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, instance := range s.instances {
		if instance.ID != id {
			continue
		}
		for _, owner := range owners {
			if instance.TenantID == owner {
				return instance, true, nil
			}
		}
	}
	return ServiceInstance{}, false, nil
}

func (s *memoryInstanceStore) FindPrimary(_ context.Context, tenantID string, serviceType ServiceType) (ServiceInstance, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, instance := range s.instances {
		if instance.TenantID == tenantID && instance.ServiceType == serviceType && instance.IsPrimary {
			return instance, true, nil
		}
	}
	return ServiceInstance{}, false, nil
}

func (s *memoryInstanceStore) ListByTenant(_ context.Context, tenantID string, serviceType ServiceType) ([]ServiceInstance, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ServiceInstance{}
	for _, instance := range s.instances {
		if instance.TenantID == tenantID && instance.ServiceType == serviceType {
			out = append(out, instance)
		}
	}
	return out, nil
}

func (s *memoryInstanceStore) Create(_ context.Context, in CreateInstanceInput) (ServiceInstance, error) {
	if err := in.Validate(); err != nil {
		return ServiceInstance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	instance := ServiceInstance{
		ID:          fmt.Sprintf("inst-%d", len(s.instances)+1),
		TenantID:    in.TenantID,
		ServiceType: in.ServiceType,
		AdapterType: in.AdapterType,
		Name:        in.Name,
		Config:      in.Config,
		APIVersion:  in.APIVersion,
		IsPrimary:   in.IsPrimary,
		CreatedAt:   baseTime.Add(time.Duration(len(s.instances)) * time.Minute),
	}
	instance.UpdatedAt = instance.CreatedAt
	s.instances = append(s.instances, instance)
	return instance, nil
}

type failingInstanceStore struct{}

func (failingInstanceStore) GetOwnedByID(context.Context, string, []string) (ServiceInstance, bool, error) {
	return ServiceInstance{}, false, fmt.Errorf("database unavailable")
}

func (failingInstanceStore) FindPrimary(context.Context, string, ServiceType) (ServiceInstance, bool, error) {
	return ServiceInstance{}, false, fmt.Errorf("database unavailable")
}

func (failingInstanceStore) ListByTenant(context.Context, string, ServiceType) ([]ServiceInstance, error) {
	return nil, fmt.Errorf("database unavailable")
}

type stubDIDAdapter struct {
	config  map[string]any
	fc      FactoryContext
	keys    []string
	keysErr error
}

func (a *stubDIDAdapter) ServiceType() ServiceType { return ServiceTypeDID }

func (a *stubDIDAdapter) CreateDID(context.Context, CreateDIDRequest) (CreatedDID, error) {
	return CreatedDID{DID: "did:web:example.com:stub", KeyIDs: a.keys}, nil
}

func (a *stubDIDAdapter) GetDocument(context.Context, string) (map[string]any, error) {
	return map[string]any{"id": "did:web:example.com:stub"}, nil
}

func (a *stubDIDAdapter) KeyIDs(context.Context, string) ([]string, error) {
	return a.keys, a.keysErr
}

type stubStorageAdapter struct {
	config map[string]any
}

func (a *stubStorageAdapter) ServiceType() ServiceType { return ServiceTypeStorage }

func (a *stubStorageAdapter) Store(_ context.Context, req StoreRequest) (StoredObject, error) {
	return StoredObject{Key: req.Key, URI: "s3://" + fmt.Sprint(a.config["bucket"]) + "/" + req.Key}, nil
}

func (a *stubStorageAdapter) Retrieve(context.Context, string) ([]byte, error) {
	return nil, nil
}

var testDIDSchema = map[string]any{
	"type":     "object",
	"required": []any{"endpoint", "authToken"},
	"properties": map[string]any{
		"endpoint":  map[string]any{"type": "string", "format": "uri"},
		"authToken": map[string]any{"type": "string", "minLength": 1},
		"keyType":   map[string]any{"type": "string", "enum": []any{"Ed25519"}, "default": "Ed25519"},
	},
}

var testStorageSchema = map[string]any{
	"type":     "object",
	"required": []any{"bucket", "region"},
	"properties": map[string]any{
		"bucket": map[string]any{"type": "string", "minLength": 1},
		"region": map[string]any{"type": "string", "minLength": 1},
	},
}

type factoryCounter struct {
	calls atomic.Int32
}

func testRegistrations(counter *factoryCounter) []AdapterRegistration {
	return []AdapterRegistration{
		{
			ServiceType:  ServiceTypeDID,
			AdapterType:  "VCKIT",
			ConfigSchema: MustConfigSchema(testDIDSchema),
			Factory: func(config map[string]any, fc FactoryContext) (Adapter, error) {
				if counter != nil {
					counter.calls.Add(1)
				}
				return &stubDIDAdapter{config: config, fc: fc, keys: []string{"key-1"}}, nil
			},
		},
		{
			ServiceType:  ServiceTypeStorage,
			AdapterType:  "S3",
			ConfigSchema: MustConfigSchema(testStorageSchema),
			Factory: func(config map[string]any, fc FactoryContext) (Adapter, error) {
				if counter != nil {
					counter.calls.Add(1)
				}
				return &stubStorageAdapter{config: config}, nil
			},
		},
		{
			ServiceType:  ServiceTypeIDR,
			AdapterType:  "BROKEN",
			ConfigSchema: MustConfigSchema(map[string]any{"type": "object"}),
			Factory: func(map[string]any, FactoryContext) (Adapter, error) {
				return nil, fmt.Errorf("provider handshake refused")
			},
		},
		{
			ServiceType:  ServiceTypeIDR,
			AdapterType:  "MISLABELED",
			ConfigSchema: MustConfigSchema(map[string]any{"type": "object"}),
			Factory: func(config map[string]any, _ FactoryContext) (Adapter, error) {
				return &stubStorageAdapter{config: config}, nil
			},
		},
	}
}

func testRegistry(t *testing.T, counter *factoryCounter) *AdapterRegistry {
	t.Helper()
	registry, err := NewAdapterRegistry(testRegistrations(counter)...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubVerifier struct {
	methods []string
	result  did.Result
	calls   atomic.Int32
	lastReq did.VerifyRequest
}

func (v *stubVerifier) Verify(_ context.Context, req did.VerifyRequest) (did.Result, error) {
	v.calls.Add(1)
	v.lastReq = req
	return v.result, nil
}

func (v *stubVerifier) Methods() []string { return v.methods }

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	tags     []map[string]string
}

func (m *recordingMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	m.counters[name] += value
	m.tags = append(m.tags, tags)
}

func (m *recordingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func newTestService(t *testing.T, store InstanceStore, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithInstanceStore(store),
		WithSecretProvider(testSecretProvider{}),
		WithRegistry(testRegistry(t, nil)),
		WithDIDVerifier(&stubVerifier{methods: []string{"web", "webvh"}}),
	}
	svc, err := NewService(Config{}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

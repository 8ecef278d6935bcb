package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func resolverFixtures() []ServiceInstance {
	return []ServiceInstance{
		{ID: "sys-storage-b", TenantID: "system", ServiceType: ServiceTypeStorage, AdapterType: "S3", CreatedAt: baseTime},
		{ID: "sys-storage-a", TenantID: "system", ServiceType: ServiceTypeStorage, AdapterType: "S3", CreatedAt: baseTime},
		{ID: "sys-storage-old", TenantID: "system", ServiceType: ServiceTypeStorage, AdapterType: "S3", CreatedAt: baseTime.Add(-time.Hour)},
		{ID: "sys-did", TenantID: "system", ServiceType: ServiceTypeDID, AdapterType: "VCKIT", IsPrimary: true, CreatedAt: baseTime.Add(time.Hour)},
		{ID: "sys-did-old", TenantID: "system", ServiceType: ServiceTypeDID, AdapterType: "VCKIT", CreatedAt: baseTime.Add(-time.Hour)},
		{ID: "acme-did", TenantID: "acme", ServiceType: ServiceTypeDID, AdapterType: "VCKIT", IsPrimary: true, CreatedAt: baseTime},
		{ID: "acme-did-2", TenantID: "acme", ServiceType: ServiceTypeDID, AdapterType: "VCKIT", CreatedAt: baseTime},
		{ID: "globex-storage", TenantID: "globex", ServiceType: ServiceTypeStorage, AdapterType: "S3", IsPrimary: true, CreatedAt: baseTime},
	}
}

func TestInstanceResolver_TenantPrimaryWins(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(resolverFixtures()...), "")

	instance, ok, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeDID, "")
	if err != nil || !ok {
		t.Fatalf("expected instance, ok=%v err=%v", ok, err)
	}
	if instance.ID != "acme-did" {
		t.Fatalf("expected tenant primary, got %q", instance.ID)
	}
}

func TestInstanceResolver_FallsBackToSystemDeterministically(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(resolverFixtures()...), "system")

	for i := 0; i < 10; i++ {
		instance, ok, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeStorage, "")
		if err != nil || !ok {
			t.Fatalf("expected system fallback, ok=%v err=%v", ok, err)
		}
		if instance.ID != "sys-storage-old" {
			t.Fatalf("expected oldest system instance, got %q", instance.ID)
		}
	}
}

func TestInstanceResolver_SystemPrimaryBeatsOlderRecords(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(resolverFixtures()...), "system")

	instance, ok, err := resolver.GetInstanceByResolution(context.Background(), "initech", ServiceTypeDID, "")
	if err != nil || !ok {
		t.Fatalf("expected system fallback, ok=%v err=%v", ok, err)
	}
	if instance.ID != "sys-did" {
		t.Fatalf("expected system primary, got %q", instance.ID)
	}
}

func TestInstanceResolver_ExplicitIDTakesPriority(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(resolverFixtures()...), "system")

	instance, ok, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeDID, "acme-did-2")
	if err != nil || !ok {
		t.Fatalf("expected explicit instance, ok=%v err=%v", ok, err)
	}
	if instance.ID != "acme-did-2" {
		t.Fatalf("expected explicit instance over primary, got %q", instance.ID)
	}

	instance, ok, err = resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeDID, "sys-did-old")
	if err != nil || !ok {
		t.Fatalf("expected system-owned explicit instance, ok=%v err=%v", ok, err)
	}
	if instance.ID != "sys-did-old" {
		t.Fatalf("expected system-owned explicit instance, got %q", instance.ID)
	}
}

func TestInstanceResolver_ExplicitIDNeverFallsThrough(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(resolverFixtures()...), "system")

	cases := map[string]struct {
		tenant      string
		serviceType ServiceType
		instanceID  string
	}{
		"unknown id":           {tenant: "acme", serviceType: ServiceTypeDID, instanceID: "missing"},
		"other tenant":         {tenant: "acme", serviceType: ServiceTypeStorage, instanceID: "globex-storage"},
		"service type differs": {tenant: "acme", serviceType: ServiceTypeStorage, instanceID: "acme-did"},
	}
	for name, tc := range cases {
		_, ok, err := resolver.GetInstanceByResolution(context.Background(), tc.tenant, tc.serviceType, tc.instanceID)
		if ok {
			t.Fatalf("%s: expected no instance", name)
		}
		var notFound *InstanceNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("%s: expected InstanceNotFoundError, got %v", name, err)
		}
		if notFound.InstanceID != tc.instanceID {
			t.Fatalf("%s: unexpected instance id %q", name, notFound.InstanceID)
		}
	}
}

func TestInstanceResolver_NothingConfigured(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(), "system")

	_, ok, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeIDR, "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ok {
		t.Fatalf("expected no instance")
	}
}

func TestInstanceResolver_CustomSystemTenant(t *testing.T) {
	store := newMemoryInstanceStore(ServiceInstance{
		ID: "root-idr", TenantID: "platform", ServiceType: ServiceTypeIDR, AdapterType: "PYX_IDR", CreatedAt: baseTime,
	})
	resolver := NewInstanceResolver(store, "platform")

	instance, ok, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeIDR, "")
	if err != nil || !ok || instance.ID != "root-idr" {
		t.Fatalf("expected custom system tenant fallback, got %q ok=%v err=%v", instance.ID, ok, err)
	}
}

func TestInstanceResolver_RejectsBadInput(t *testing.T) {
	resolver := NewInstanceResolver(newMemoryInstanceStore(), "system")

	if _, _, err := resolver.GetInstanceByResolution(context.Background(), "", ServiceTypeDID, ""); err == nil {
		t.Fatalf("expected tenant validation error")
	}
	if _, _, err := resolver.GetInstanceByResolution(context.Background(), "acme", "EMAIL", ""); err == nil {
		t.Fatalf("expected service type validation error")
	}
}

func TestInstanceResolver_MissingStoreIsInternal(t *testing.T) {
	resolver := NewInstanceResolver(nil, "system")

	_, _, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeDID, "")
	if err == nil {
		t.Fatalf("expected missing store error")
	}
	mapped := ToServiceError(err)
	if mapped.Code != 500 || mapped.TextCode != ServiceErrorInternal {
		t.Fatalf("expected internal envelope, got %d %s", mapped.Code, mapped.TextCode)
	}

	_, _, err = NewInstanceResolver(newMemoryInstanceStore(), "system").GetInstanceByResolution(context.Background(), " ", ServiceTypeDID, "")
	if mapped := ToServiceError(err); mapped.Code != 400 || mapped.TextCode != ServiceErrorBadInput {
		t.Fatalf("expected bad input envelope for blank tenant, got %d %s", mapped.Code, mapped.TextCode)
	}
}

func TestInstanceResolver_PropagatesStoreErrors(t *testing.T) {
	resolver := NewInstanceResolver(failingInstanceStore{}, "system")

	if _, _, err := resolver.GetInstanceByResolution(context.Background(), "acme", ServiceTypeDID, ""); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestSortInstances(t *testing.T) {
	instances := []ServiceInstance{
		{ID: "c", CreatedAt: baseTime},
		{ID: "b", CreatedAt: baseTime},
		{ID: "z", CreatedAt: baseTime.Add(time.Minute), IsPrimary: true},
		{ID: "a", CreatedAt: baseTime.Add(time.Minute)},
	}
	SortInstances(instances)

	want := []string{"z", "b", "c", "a"}
	for i, id := range want {
		if instances[i].ID != id {
			t.Fatalf("unexpected order at %d: got %q want %q", i, instances[i].ID, id)
		}
	}
}

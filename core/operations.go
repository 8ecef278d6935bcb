package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProvisionDID creates a DID through the tenant's resolved DID adapter.
func (s *Service) ProvisionDID(ctx context.Context, req ProvisionDIDRequest) (created CreatedDID, err error) {
	if s == nil {
		return CreatedDID{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id":    strings.TrimSpace(req.TenantID),
		"service_type": string(ServiceTypeDID),
		"alias":        strings.TrimSpace(req.Alias),
	}
	defer func() {
		if err == nil {
			fields["did"] = created.DID
		}
		s.observeOperation(ctx, startedAt, "provision_did", err, fields)
	}()

	adapter, err := s.ResolveDID(ctx, req.TenantID, req.InstanceID)
	if err != nil {
		return CreatedDID{}, err
	}
	return adapter.CreateDID(ctx, CreateDIDRequest{Alias: req.Alias, KeyType: req.KeyType})
}

// StoreObject writes req.Data through the tenant's resolved storage adapter.
func (s *Service) StoreObject(ctx context.Context, req StoreObjectRequest) (stored StoredObject, err error) {
	if s == nil {
		return StoredObject{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"tenant_id":    strings.TrimSpace(req.TenantID),
		"service_type": string(ServiceTypeStorage),
		"size":         len(req.Data),
	}
	defer func() {
		if err == nil {
			fields["uri"] = stored.URI
		}
		s.observeOperation(ctx, startedAt, "store_object", err, fields)
	}()

	adapter, err := s.ResolveStorage(ctx, req.TenantID, req.InstanceID)
	if err != nil {
		return StoredObject{}, err
	}
	return adapter.Store(ctx, StoreRequest{Key: req.Key, Data: req.Data, ContentType: req.ContentType})
}

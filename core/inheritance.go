package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// InstanceResolver picks the service instance for a tenant:
// an explicit id owned by the tenant or the system tenant, then the tenant's
// primary instance, then the system tenant's instances in deterministic order.
type InstanceResolver struct {
	store          InstanceStore
	systemTenantID string
}

func NewInstanceResolver(store InstanceStore, systemTenantID string) *InstanceResolver {
	systemTenantID = strings.TrimSpace(systemTenantID)
	if systemTenantID == "" {
		systemTenantID = DefaultSystemTenantID
	}
	return &InstanceResolver{store: store, systemTenantID: systemTenantID}
}

func (r *InstanceResolver) SystemTenantID() string {
	if r == nil {
		return DefaultSystemTenantID
	}
	return r.systemTenantID
}

// GetInstanceByResolution returns ok=false with a nil error when the chain
// finds nothing. An explicit instanceID that does not resolve is an
// InstanceNotFoundError and never falls through.
func (r *InstanceResolver) GetInstanceByResolution(
	ctx context.Context,
	tenantID string,
	serviceType ServiceType,
	instanceID string,
) (ServiceInstance, bool, error) {
	if r == nil || r.store == nil {
		return ServiceInstance{}, false, MissingDependencyError("core: instance store")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ServiceInstance{}, false, BadInputError("core: tenant id is required")
	}
	if err := serviceType.Validate(); err != nil {
		return ServiceInstance{}, false, err
	}

	if instanceID = strings.TrimSpace(instanceID); instanceID != "" {
		return r.explicit(ctx, tenantID, serviceType, instanceID)
	}

	primary, ok, err := r.store.FindPrimary(ctx, tenantID, serviceType)
	if err != nil {
		return ServiceInstance{}, false, fmt.Errorf("core: find primary instance: %w", err)
	}
	if ok {
		return primary, true, nil
	}

	fallbacks, err := r.store.ListByTenant(ctx, r.systemTenantID, serviceType)
	if err != nil {
		return ServiceInstance{}, false, fmt.Errorf("core: list system instances: %w", err)
	}
	if len(fallbacks) == 0 {
		return ServiceInstance{}, false, nil
	}
	SortInstances(fallbacks)
	return fallbacks[0], true, nil
}

func (r *InstanceResolver) explicit(
	ctx context.Context,
	tenantID string,
	serviceType ServiceType,
	instanceID string,
) (ServiceInstance, bool, error) {
	owners := []string{tenantID}
	if tenantID != r.systemTenantID {
		owners = append(owners, r.systemTenantID)
	}
	instance, ok, err := r.store.GetOwnedByID(ctx, instanceID, owners)
	if err != nil {
		return ServiceInstance{}, false, fmt.Errorf("core: get instance: %w", err)
	}
	if !ok || instance.ServiceType != serviceType {
		return ServiceInstance{}, false, &InstanceNotFoundError{
			TenantID:    tenantID,
			ServiceType: serviceType,
			InstanceID:  instanceID,
		}
	}
	return instance, true, nil
}

// SortInstances orders instances primary first, then by creation time, then
// by id.
func SortInstances(instances []ServiceInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		left, right := instances[i], instances[j]
		if left.IsPrimary != right.IsPrimary {
			return left.IsPrimary
		}
		if !left.CreatedAt.Equal(right.CreatedAt) {
			return left.CreatedAt.Before(right.CreatedAt)
		}
		return left.ID < right.ID
	})
}

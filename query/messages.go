package query

import (
	"strings"

	"github.com/goliatone/go-service-adapters/core"
)

const (
	TypeResolveAdapter = "services.query.adapter.resolve"
	TypeVerifyDID      = "services.query.did.verify"
)

// ResolveAdapterMessage resolves the adapter serving a tenant for one
// service type. InstanceID pins a specific instance.
type ResolveAdapterMessage struct {
	TenantID    string
	ServiceType core.ServiceType
	InstanceID  string
}

func (ResolveAdapterMessage) Type() string { return TypeResolveAdapter }

func (m ResolveAdapterMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return core.FieldError("query", "tenant_id", "tenant id is required")
	}
	if err := m.ServiceType.Validate(); err != nil {
		return core.FieldError("query", "service_type", err.Error())
	}
	return nil
}

func (m ResolveAdapterMessage) Request() core.ResolveRequest {
	return core.ResolveRequest{
		TenantID:    strings.TrimSpace(m.TenantID),
		ServiceType: m.ServiceType,
		InstanceID:  strings.TrimSpace(m.InstanceID),
	}
}

type VerifyDIDMessage struct {
	TenantID   string
	DID        string
	InstanceID string
}

func (VerifyDIDMessage) Type() string { return TypeVerifyDID }

func (m VerifyDIDMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return core.FieldError("query", "tenant_id", "tenant id is required")
	}
	if strings.TrimSpace(m.DID) == "" {
		return core.FieldError("query", "did", "did is required")
	}
	if !strings.HasPrefix(strings.TrimSpace(m.DID), "did:") {
		return core.BadInputError("query: did must use the did: scheme")
	}
	return nil
}

func (m VerifyDIDMessage) Request() core.VerifyDIDRequest {
	return core.VerifyDIDRequest{
		TenantID:   strings.TrimSpace(m.TenantID),
		DID:        strings.TrimSpace(m.DID),
		InstanceID: strings.TrimSpace(m.InstanceID),
	}
}

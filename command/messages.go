package command

import (
	"strings"

	"github.com/goliatone/go-service-adapters/core"
)

const (
	TypeRegisterInstance = "services.command.instance.register"
	TypeProvisionDID     = "services.command.did.provision"
	TypeStoreObject      = "services.command.storage.store"
)

type RegisterInstanceMessage struct {
	Request core.RegisterInstanceRequest
}

func (RegisterInstanceMessage) Type() string { return TypeRegisterInstance }

func (m RegisterInstanceMessage) Validate() error {
	if strings.TrimSpace(m.Request.TenantID) == "" {
		return core.FieldError("command", "tenant_id", "tenant id is required")
	}
	if err := m.Request.ServiceType.Validate(); err != nil {
		return core.FieldError("command", "service_type", err.Error())
	}
	if strings.TrimSpace(string(m.Request.AdapterType)) == "" {
		return core.FieldError("command", "adapter_type", "adapter type is required")
	}
	if strings.TrimSpace(m.Request.Name) == "" {
		return core.FieldError("command", "name", "name is required")
	}
	return nil
}

type ProvisionDIDMessage struct {
	Request core.ProvisionDIDRequest
}

func (ProvisionDIDMessage) Type() string { return TypeProvisionDID }

func (m ProvisionDIDMessage) Validate() error {
	if strings.TrimSpace(m.Request.TenantID) == "" {
		return core.FieldError("command", "tenant_id", "tenant id is required")
	}
	if strings.TrimSpace(m.Request.Alias) == "" {
		return core.FieldError("command", "alias", "alias is required")
	}
	return nil
}

type StoreObjectMessage struct {
	Request core.StoreObjectRequest
}

func (StoreObjectMessage) Type() string { return TypeStoreObject }

func (m StoreObjectMessage) Validate() error {
	if strings.TrimSpace(m.Request.TenantID) == "" {
		return core.FieldError("command", "tenant_id", "tenant id is required")
	}
	if m.Request.Data == nil {
		return core.BadInputError("command: object data is required")
	}
	return nil
}

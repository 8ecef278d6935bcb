package core

import (
	"fmt"
	"strings"
	"time"
)

const DefaultSystemTenantID = "system"

type ServiceType string

const (
	ServiceTypeDID     ServiceType = "DID"
	ServiceTypeIDR     ServiceType = "IDR"
	ServiceTypeStorage ServiceType = "STORAGE"
)

func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceTypeDID, ServiceTypeIDR, ServiceTypeStorage}
}

func ParseServiceType(value string) (ServiceType, error) {
	candidate := ServiceType(strings.ToUpper(strings.TrimSpace(value)))
	if err := candidate.Validate(); err != nil {
		return "", err
	}
	return candidate, nil
}

func (t ServiceType) Validate() error {
	switch t {
	case ServiceTypeDID, ServiceTypeIDR, ServiceTypeStorage:
		return nil
	case "":
		return fmt.Errorf("core: service type is required")
	default:
		return fmt.Errorf("core: invalid service type %q", string(t))
	}
}

func (t ServiceType) String() string { return string(t) }

// AdapterType names a provider variant within a service type, e.g. VCKIT.
type AdapterType string

func (t AdapterType) String() string { return string(t) }

type AdapterKey struct {
	ServiceType ServiceType
	AdapterType AdapterType
}

func (k AdapterKey) String() string {
	return string(k.ServiceType) + "/" + string(k.AdapterType)
}

func (k AdapterKey) Validate() error {
	if err := k.ServiceType.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(k.AdapterType)) == "" {
		return fmt.Errorf("core: adapter type is required")
	}
	return nil
}

// ServiceInstance is a configured provider record. Config holds the
// serialized encrypted envelope and is never decrypted at rest.
type ServiceInstance struct {
	ID          string
	TenantID    string
	ServiceType ServiceType
	AdapterType AdapterType
	Name        string
	Config      string
	APIVersion  string
	IsPrimary   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i ServiceInstance) Key() AdapterKey {
	return AdapterKey{ServiceType: i.ServiceType, AdapterType: i.AdapterType}
}

type ResolveRequest struct {
	TenantID    string
	ServiceType ServiceType
	InstanceID  string
}

func (r ResolveRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return fmt.Errorf("core: tenant id is required")
	}
	return r.ServiceType.Validate()
}

type Resolution struct {
	Adapter     Adapter
	InstanceID  string
	TenantID    string
	AdapterType AdapterType
}

type VerifyDIDRequest struct {
	TenantID   string
	DID        string
	InstanceID string
}

func (r VerifyDIDRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return fmt.Errorf("core: tenant id is required")
	}
	if strings.TrimSpace(r.DID) == "" {
		return fmt.Errorf("core: did is required")
	}
	return nil
}

type CreateDIDRequest struct {
	Alias   string
	KeyType string
}

type CreatedDID struct {
	DID    string
	KeyIDs []string
}

// LinkRequest addresses an identity resolver link set, e.g. a GTIN.
type LinkRequest struct {
	IdentifierScheme string
	Identifier       string
	Qualifier        string
	LinkType         string
}

type Link struct {
	Href     string
	Rel      string
	Type     string
	Title    string
	Language string
}

type LinkSet struct {
	Anchor string
	Links  []Link
}

type StoreRequest struct {
	Key         string
	Data        []byte
	ContentType string
}

type StoredObject struct {
	Key string
	URI string
}

// CreateInstanceInput registers a service instance. Config must already be a
// serialized encrypted envelope.
type CreateInstanceInput struct {
	TenantID    string
	ServiceType ServiceType
	AdapterType AdapterType
	Name        string
	Config      string
	APIVersion  string
	IsPrimary   bool
}

func (in CreateInstanceInput) Validate() error {
	if strings.TrimSpace(in.TenantID) == "" {
		return fmt.Errorf("core: tenant id is required")
	}
	key := AdapterKey{ServiceType: in.ServiceType, AdapterType: in.AdapterType}
	if err := key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("core: instance name is required")
	}
	if strings.TrimSpace(in.Config) == "" {
		return fmt.Errorf("core: encrypted config is required")
	}
	return nil
}

// RegisterInstanceRequest carries a plaintext adapter config that is
// validated and encrypted before it is stored.
type RegisterInstanceRequest struct {
	TenantID    string
	ServiceType ServiceType
	AdapterType AdapterType
	Name        string
	Config      map[string]any
	APIVersion  string
	IsPrimary   bool
}

type ProvisionDIDRequest struct {
	TenantID   string
	InstanceID string
	Alias      string
	KeyType    string
}

type StoreObjectRequest struct {
	TenantID    string
	InstanceID  string
	Key         string
	Data        []byte
	ContentType string
}

package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-service-adapters/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type serviceInstanceRecord struct {
	bun.BaseModel `bun:"table:service_instances,alias:si"`

	ID          string     `bun:"id,pk"`
	TenantID    string     `bun:"tenant_id,notnull"`
	ServiceType string     `bun:"service_type,notnull"`
	AdapterType string     `bun:"adapter_type,notnull"`
	Name        string     `bun:"name,notnull"`
	Config      string     `bun:"config,notnull"`
	APIVersion  string     `bun:"api_version,notnull"`
	IsPrimary   bool       `bun:"is_primary,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete"`
}

func newServiceInstanceRecord(in core.CreateInstanceInput, now time.Time) *serviceInstanceRecord {
	return &serviceInstanceRecord{
		ID:          uuid.NewString(),
		TenantID:    strings.TrimSpace(in.TenantID),
		ServiceType: strings.TrimSpace(string(in.ServiceType)),
		AdapterType: strings.TrimSpace(string(in.AdapterType)),
		Name:        strings.TrimSpace(in.Name),
		Config:      in.Config,
		APIVersion:  strings.TrimSpace(in.APIVersion),
		IsPrimary:   in.IsPrimary,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *serviceInstanceRecord) toDomain() core.ServiceInstance {
	if r == nil {
		return core.ServiceInstance{}
	}
	return core.ServiceInstance{
		ID:          r.ID,
		TenantID:    r.TenantID,
		ServiceType: core.ServiceType(r.ServiceType),
		AdapterType: core.AdapterType(r.AdapterType),
		Name:        r.Name,
		Config:      r.Config,
		APIVersion:  r.APIVersion,
		IsPrimary:   r.IsPrimary,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

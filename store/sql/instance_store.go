package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-service-adapters/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InstanceStore persists service instances in the service_instances table.
type InstanceStore struct {
	db   *bun.DB
	repo repository.Repository[*serviceInstanceRecord]
}

func NewInstanceStore(db *bun.DB) (*InstanceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*serviceInstanceRecord](db, serviceInstanceHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid service instance repository wiring: %w", err)
		}
	}
	return &InstanceStore{db: db, repo: repo}, nil
}

func (s *InstanceStore) Create(ctx context.Context, in core.CreateInstanceInput) (core.ServiceInstance, error) {
	if s == nil || s.repo == nil {
		return core.ServiceInstance{}, fmt.Errorf("sqlstore: instance store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.ServiceInstance{}, err
	}
	created, err := s.repo.Create(ctx, newServiceInstanceRecord(in, time.Now().UTC()))
	if err != nil {
		return core.ServiceInstance{}, err
	}
	return created.toDomain(), nil
}

func (s *InstanceStore) Get(ctx context.Context, id string) (core.ServiceInstance, bool, error) {
	return s.GetOwnedByID(ctx, id, nil)
}

// GetOwnedByID returns the live instance with id. A non-empty owners list
// restricts the match to those tenants.
func (s *InstanceStore) GetOwnedByID(ctx context.Context, id string, owners []string) (core.ServiceInstance, bool, error) {
	if s == nil || s.db == nil {
		return core.ServiceInstance{}, false, fmt.Errorf("sqlstore: instance store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	if parseUUID(trimmed) == uuid.Nil {
		return core.ServiceInstance{}, false, nil
	}
	tenants := make([]string, 0, len(owners))
	for _, owner := range owners {
		if owner = strings.TrimSpace(owner); owner != "" {
			tenants = append(tenants, owner)
		}
	}

	record := &serviceInstanceRecord{}
	query := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", trimmed).
		Where("?TableAlias.deleted_at IS NULL")
	if len(tenants) > 0 {
		query = query.Where("?TableAlias.tenant_id IN (?)", bun.In(tenants))
	}
	if err := query.Limit(1).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return core.ServiceInstance{}, false, nil
		}
		return core.ServiceInstance{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *InstanceStore) FindPrimary(ctx context.Context, tenantID string, serviceType core.ServiceType) (core.ServiceInstance, bool, error) {
	if s == nil || s.db == nil {
		return core.ServiceInstance{}, false, fmt.Errorf("sqlstore: instance store is not configured")
	}
	record := &serviceInstanceRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("?TableAlias.service_type = ?", strings.TrimSpace(string(serviceType))).
		Where("?TableAlias.is_primary = ?", true).
		Where("?TableAlias.deleted_at IS NULL").
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.ServiceInstance{}, false, nil
		}
		return core.ServiceInstance{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *InstanceStore) ListByTenant(ctx context.Context, tenantID string, serviceType core.ServiceType) ([]core.ServiceInstance, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: instance store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("tenant_id", "=", strings.TrimSpace(tenantID)),
		repository.SelectBy("service_type", "=", strings.TrimSpace(string(serviceType))),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("is_primary DESC"),
		repository.OrderBy("created_at ASC"),
		repository.OrderBy("id ASC"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]core.ServiceInstance, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// SetPrimary marks id as the primary instance of its tenant and service type
// and clears the flag on its siblings in the same transaction.
func (s *InstanceStore) SetPrimary(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: instance store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("sqlstore: instance id is required")
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &serviceInstanceRecord{}
		if err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", trimmed).
			Where("?TableAlias.deleted_at IS NULL").
			Limit(1).
			Scan(ctx); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: id %q", core.ErrInstanceNotFound, trimmed)
			}
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.NewUpdate().
			Model((*serviceInstanceRecord)(nil)).
			Set("is_primary = ?", false).
			Set("updated_at = ?", now).
			Where("tenant_id = ?", record.TenantID).
			Where("service_type = ?", record.ServiceType).
			Where("is_primary = ?", true).
			Where("deleted_at IS NULL").
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*serviceInstanceRecord)(nil)).
			Set("is_primary = ?", true).
			Set("updated_at = ?", now).
			Where("id = ?", trimmed).
			Exec(ctx)
		return err
	})
}

// Delete soft deletes the instance.
func (s *InstanceStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: instance store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("sqlstore: instance id is required")
	}
	_, err := s.db.NewDelete().
		Model((*serviceInstanceRecord)(nil)).
		Where("id = ?", trimmed).
		Exec(ctx)
	return err
}

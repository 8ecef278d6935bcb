package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory owns the bun handle and the stores built on it.
type RepositoryFactory struct {
	db        *bun.DB
	instances *InstanceStore
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	}
	return NewRepositoryFactoryFromDB(client.DB())
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	instances, err := NewInstanceStore(db)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, instances: instances}, nil
}

// OpenRepositoryFactory opens dsn through OpenDB and builds the stores on it.
// The caller closes the handle returned by DB.
func OpenRepositoryFactory(driver string, dsn string) (*RepositoryFactory, error) {
	db, err := OpenDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	factory, err := NewRepositoryFactoryFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) InstanceStore() *InstanceStore {
	if f == nil {
		return nil
	}
	return f.instances
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

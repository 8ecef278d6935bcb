package sqlstore

import "github.com/goliatone/go-service-adapters/core"

var _ core.InstanceStore = (*InstanceStore)(nil)

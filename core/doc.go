// Package core contains the service resolution domain: instance records, the
// adapter registry, the tenant/system resolution chain and the orchestration
// that turns a stored, encrypted instance into a live provider adapter.
// Provider-specific adapters and storage backends depend on this package; core
// must not depend on them.
package core

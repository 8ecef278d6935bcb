package services

import (
	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/providers/pyx"
	"github.com/goliatone/go-service-adapters/providers/s3"
	"github.com/goliatone/go-service-adapters/providers/vckit"
)

// DefaultAdapterRegistrations returns the built-in adapters in key order.
func DefaultAdapterRegistrations() []core.AdapterRegistration {
	return []core.AdapterRegistration{
		vckit.Registration(),
		pyx.Registration(),
		s3.Registration(),
	}
}

// DefaultAdapterRegistry builds an immutable registry of the built-in
// adapters plus any extra registrations. Duplicate keys are rejected.
func DefaultAdapterRegistry(extra ...core.AdapterRegistration) (*core.AdapterRegistry, error) {
	regs := append(DefaultAdapterRegistrations(), extra...)
	return core.NewAdapterRegistry(regs...)
}

func VCKitAdapter(cfg vckit.Config, fc core.FactoryContext) (*vckit.Adapter, error) {
	return vckit.New(cfg, fc)
}

func PyxAdapter(cfg pyx.Config, fc core.FactoryContext) (*pyx.Adapter, error) {
	return pyx.New(cfg, fc)
}

func S3Adapter(cfg s3.Config, fc core.FactoryContext) (*s3.Adapter, error) {
	return s3.New(cfg, fc)
}

package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultAdapterRequestTimeout = 15 * time.Second
	defaultDIDRequestTimeout     = 10 * time.Second
	defaultDIDMaxDocumentBytes   = 1 << 20 // 1 MiB
)

type ResolutionConfig struct {
	SystemTenantID string `koanf:"system_tenant_id" mapstructure:"system_tenant_id"`
}

type AdaptersConfig struct {
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type DIDConfig struct {
	RequestTimeout   time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	MaxDocumentBytes int64         `koanf:"max_document_bytes" mapstructure:"max_document_bytes"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Resolution  ResolutionConfig `koanf:"resolution" mapstructure:"resolution"`
	Adapters    AdaptersConfig   `koanf:"adapters" mapstructure:"adapters"`
	DID         DIDConfig        `koanf:"did" mapstructure:"did"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "services",
		Resolution: ResolutionConfig{
			SystemTenantID: DefaultSystemTenantID,
		},
		Adapters: AdaptersConfig{
			RequestTimeout: defaultAdapterRequestTimeout,
		},
		DID: DIDConfig{
			RequestTimeout:   defaultDIDRequestTimeout,
			MaxDocumentBytes: defaultDIDMaxDocumentBytes,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Resolution.SystemTenantID) == "" {
		return fmt.Errorf("core: resolution.system_tenant_id is required")
	}
	if c.Adapters.RequestTimeout <= 0 {
		return fmt.Errorf("core: adapters.request_timeout must be positive")
	}
	if c.DID.RequestTimeout <= 0 {
		return fmt.Errorf("core: did.request_timeout must be positive")
	}
	if c.DID.MaxDocumentBytes <= 0 {
		return fmt.Errorf("core: did.max_document_bytes must be positive")
	}
	return nil
}

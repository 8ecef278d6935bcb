package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	vaultapi "github.com/hashicorp/vault/api"
)

const DefaultKeyEnvVar = "SERVICES_ENCRYPTION_KEY"

// EnvKeyConfig is the process-start environment contract for the master key.
type EnvKeyConfig struct {
	EncryptionKey string `env:"SERVICES_ENCRYPTION_KEY,required,notEmpty,unset"`
	KeyID         string `env:"SERVICES_ENCRYPTION_KEY_ID" envDefault:"app-key"`
}

// LoadAppKeyFromEnv builds the provider from SERVICES_ENCRYPTION_KEY. The
// variable is unset after it is read.
func LoadAppKeyFromEnv(opts ...Option) (*AppKeySecretProvider, error) {
	var cfg EnvKeyConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("security: parse key env: %w", err)
	}
	return NewAppKeySecretProviderFromString(cfg.EncryptionKey, append([]Option{WithKeyID(cfg.KeyID)}, opts...)...)
}

// VaultReader is the slice of the Vault logical API used to read the key.
type VaultReader interface {
	ReadWithContext(ctx context.Context, path string) (*vaultapi.Secret, error)
}

// VaultKeySource reads the master key from a KV v2 secret.
type VaultKeySource struct {
	Reader    VaultReader
	MountPath string
	DataPath  string
	Field     string
}

func NewVaultKeySource(client *vaultapi.Client, mountPath, dataPath, field string) (*VaultKeySource, error) {
	if client == nil {
		return nil, fmt.Errorf("security: vault client is required")
	}
	return &VaultKeySource{
		Reader:    client.Logical(),
		MountPath: mountPath,
		DataPath:  dataPath,
		Field:     field,
	}, nil
}

func (s *VaultKeySource) Load(ctx context.Context, opts ...Option) (*AppKeySecretProvider, error) {
	if s == nil || s.Reader == nil {
		return nil, fmt.Errorf("security: vault reader is required")
	}
	field := strings.TrimSpace(s.Field)
	if field == "" {
		field = "key"
	}
	path := fmt.Sprintf("%s/data/%s",
		strings.Trim(strings.TrimSpace(s.MountPath), "/"),
		strings.Trim(strings.TrimSpace(s.DataPath), "/"),
	)

	secret, err := s.Reader.ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("security: read vault key %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("security: vault key %s not found", path)
	}
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("security: vault key %s has unexpected format", path)
	}
	value, ok := data[field].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("security: vault key %s is missing field %q", path, field)
	}
	return NewAppKeySecretProviderFromString(value, opts...)
}

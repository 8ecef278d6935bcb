package security

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
)

// VaultWriter is the slice of the Vault logical API used by the transit engine.
type VaultWriter interface {
	WriteWithContext(ctx context.Context, path string, data map[string]any) (*vaultapi.Secret, error)
}

// VaultTransitDataKeys issues data keys from a Vault transit key.
type VaultTransitDataKeys struct {
	Writer    VaultWriter
	MountPath string
	KeyName   string
}

func NewVaultTransitDataKeys(client *vaultapi.Client, mountPath, keyName string) (*VaultTransitDataKeys, error) {
	if client == nil {
		return nil, fmt.Errorf("security: vault client is required")
	}
	if strings.TrimSpace(keyName) == "" {
		return nil, fmt.Errorf("security: vault transit key name is required")
	}
	return &VaultTransitDataKeys{Writer: client.Logical(), MountPath: mountPath, KeyName: keyName}, nil
}

func (v *VaultTransitDataKeys) GenerateDataKey(ctx context.Context) ([]byte, string, error) {
	secret, err := v.write(ctx, "datakey/plaintext", map[string]any{"bits": appKeySize * 8})
	if err != nil {
		return nil, "", err
	}
	wrapped, _ := secret.Data["ciphertext"].(string)
	if strings.TrimSpace(wrapped) == "" {
		return nil, "", fmt.Errorf("security: vault transit returned no wrapped key")
	}
	plaintext, err := decodeTransitPlaintext(secret)
	if err != nil {
		return nil, "", err
	}
	return plaintext, wrapped, nil
}

func (v *VaultTransitDataKeys) UnwrapDataKey(ctx context.Context, wrapped string) ([]byte, error) {
	secret, err := v.write(ctx, "decrypt", map[string]any{"ciphertext": strings.TrimSpace(wrapped)})
	if err != nil {
		return nil, err
	}
	return decodeTransitPlaintext(secret)
}

func (v *VaultTransitDataKeys) write(ctx context.Context, operation string, data map[string]any) (*vaultapi.Secret, error) {
	if v == nil || v.Writer == nil {
		return nil, fmt.Errorf("security: vault writer is required")
	}
	mount := strings.Trim(strings.TrimSpace(v.MountPath), "/")
	if mount == "" {
		mount = "transit"
	}
	path := fmt.Sprintf("%s/%s/%s", mount, operation, strings.Trim(strings.TrimSpace(v.KeyName), "/"))
	secret, err := v.Writer.WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("security: vault transit %s: %w", operation, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("security: vault transit %s returned no data", operation)
	}
	return secret, nil
}

func decodeTransitPlaintext(secret *vaultapi.Secret) ([]byte, error) {
	encoded, _ := secret.Data["plaintext"].(string)
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("security: decode vault data key: %w", err)
	}
	if len(key) != appKeySize {
		clear(key)
		return nil, fmt.Errorf("security: vault data key must be %d bytes", appKeySize)
	}
	return key, nil
}

// NewVaultTransitSecretProvider seals configs under data keys from a Vault
// transit key.
func NewVaultTransitSecretProvider(client *vaultapi.Client, mountPath, keyName string, opts ...Option) (*DataKeySecretProvider, error) {
	source, err := NewVaultTransitDataKeys(client, mountPath, keyName)
	if err != nil {
		return nil, err
	}
	return NewDataKeySecretProvider(source, "vault:"+strings.TrimSpace(keyName), opts...)
}

package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-service-adapters/core"
)

// DataKeySource issues AES-256 data keys wrapped by an external key service.
type DataKeySource interface {
	GenerateDataKey(ctx context.Context) (plaintext []byte, wrapped string, err error)
	UnwrapDataKey(ctx context.Context, wrapped string) ([]byte, error)
}

// DataKeySecretProvider seals every config with a fresh data key and stores
// the wrapped key next to the payload in the envelope.
type DataKeySecretProvider struct {
	source DataKeySource
	keyID  string
	opts   []Option
}

func NewDataKeySecretProvider(source DataKeySource, keyID string, opts ...Option) (*DataKeySecretProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("security: data key source is required")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, fmt.Errorf("security: key id is required")
	}
	return &DataKeySecretProvider{
		source: source,
		keyID:  keyID,
		opts:   append([]Option(nil), opts...),
	}, nil
}

func (p *DataKeySecretProvider) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if p == nil || p.source == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	dataKey, wrapped, err := p.source.GenerateDataKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("security: generate data key: %w", err)
	}
	defer clear(dataKey)
	if strings.TrimSpace(wrapped) == "" {
		return nil, fmt.Errorf("security: data key source returned an empty wrapped key")
	}

	sealer, err := NewAppKeySecretProvider(dataKey, p.opts...)
	if err != nil {
		return nil, err
	}
	env, err := sealer.EncryptEnvelope(plaintext, AlgorithmAES256GCM)
	if err != nil {
		return nil, err
	}
	env.EncryptedKey = wrapped
	stored, err := MarshalEnvelope(env)
	if err != nil {
		return nil, err
	}
	return []byte(stored), nil
}

func (p *DataKeySecretProvider) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil || p.source == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	env, err := ParseEnvelope(string(ciphertext))
	if err != nil {
		return nil, err
	}
	if env.EncryptedKey == "" {
		return nil, fmt.Errorf("security: envelope has no wrapped data key")
	}
	dataKey, err := p.source.UnwrapDataKey(ctx, env.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("security: unwrap data key: %w", err)
	}
	defer clear(dataKey)

	opener, err := NewAppKeySecretProvider(dataKey, p.opts...)
	if err != nil {
		return nil, err
	}
	return opener.DecryptEnvelope(env)
}

func (p *DataKeySecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.keyID
}

var _ core.SecretProvider = (*DataKeySecretProvider)(nil)

package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-service-adapters/core"
)

const appKeySize = 32

type Option func(*AppKeySecretProvider)

// AppKeySecretProvider encrypts adapter configuration with a single
// process-wide AES-256 key.
type AppKeySecretProvider struct {
	key   []byte
	keyID string
	rand  io.Reader
}

func WithKeyID(id string) Option {
	return func(provider *AppKeySecretProvider) {
		trimmed := strings.TrimSpace(id)
		if trimmed != "" {
			provider.keyID = trimmed
		}
	}
}

// WithRandom overrides the nonce source. Only tests should need this.
func WithRandom(reader io.Reader) Option {
	return func(provider *AppKeySecretProvider) {
		if reader != nil {
			provider.rand = reader
		}
	}
}

func NewAppKeySecretProvider(keyMaterial []byte, opts ...Option) (*AppKeySecretProvider, error) {
	if len(keyMaterial) != appKeySize {
		return nil, fmt.Errorf("security: key must be %d bytes, got %d", appKeySize, len(keyMaterial))
	}
	key := make([]byte, appKeySize)
	copy(key, keyMaterial)
	provider := &AppKeySecretProvider{
		key:   key,
		keyID: "app-key",
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	return provider, nil
}

// NewAppKeySecretProviderFromString accepts the key as 64 hex characters,
// base64 of 32 bytes, or a raw 32 byte string.
func NewAppKeySecretProviderFromString(key string, opts ...Option) (*AppKeySecretProvider, error) {
	material, err := decodeKeyMaterial(key)
	if err != nil {
		return nil, err
	}
	return NewAppKeySecretProvider(material, opts...)
}

func (p *AppKeySecretProvider) EncryptEnvelope(plaintext []byte, algorithm string) (EncryptedEnvelope, error) {
	if p == nil {
		return EncryptedEnvelope{}, fmt.Errorf("security: secret provider is nil")
	}
	alg, err := resolveAlgorithm(algorithm)
	if err != nil {
		return EncryptedEnvelope{}, err
	}
	gcm, err := p.newGCM()
	if err != nil {
		return EncryptedEnvelope{}, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(p.rand, nonce); err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("security: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - tagSize
	return EncryptedEnvelope{
		CipherText: base64.StdEncoding.EncodeToString(sealed[:split]),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(sealed[split:]),
		Algorithm:  alg,
	}, nil
}

func (p *AppKeySecretProvider) DecryptEnvelope(env EncryptedEnvelope) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	env = normalizeEnvelope(env)
	if _, err := resolveAlgorithm(env.Algorithm); err != nil {
		return nil, err
	}
	decoded, err := decodeEnvelopeFields(env)
	if err != nil {
		return nil, err
	}
	gcm, err := p.newGCM()
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(decoded.cipherText)+len(decoded.tag))
	sealed = append(sealed, decoded.cipherText...)
	sealed = append(sealed, decoded.tag...)
	plaintext, err := gcm.Open(nil, decoded.iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// Encrypt returns the stored JSON form of a fresh envelope.
func (p *AppKeySecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	env, err := p.EncryptEnvelope(plaintext, AlgorithmAES256GCM)
	if err != nil {
		return nil, err
	}
	stored, err := MarshalEnvelope(env)
	if err != nil {
		return nil, err
	}
	return []byte(stored), nil
}

func (p *AppKeySecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	env, err := ParseEnvelope(string(ciphertext))
	if err != nil {
		return nil, err
	}
	return p.DecryptEnvelope(env)
}

func (p *AppKeySecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.keyID
}

func (p *AppKeySecretProvider) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

func resolveAlgorithm(algorithm string) (string, error) {
	alg := strings.ToLower(strings.TrimSpace(algorithm))
	if alg == "" {
		return AlgorithmAES256GCM, nil
	}
	if alg != AlgorithmAES256GCM {
		return "", fmt.Errorf("security: unsupported envelope algorithm %q", alg)
	}
	return alg, nil
}

func decodeKeyMaterial(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("security: key material is required")
	}
	if len(trimmed) == hex.EncodedLen(appKeySize) {
		if decoded, err := hex.DecodeString(trimmed); err == nil {
			return decoded, nil
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) == appKeySize {
		return decoded, nil
	}
	raw := []byte(trimmed)
	if len(raw) == appKeySize {
		return bytes.Clone(raw), nil
	}
	return nil, fmt.Errorf("security: key must decode to %d bytes", appKeySize)
}

var _ core.SecretProvider = (*AppKeySecretProvider)(nil)

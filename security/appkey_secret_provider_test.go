package security

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, appKeySize)
}

func newTestProvider(t *testing.T, fill byte) *AppKeySecretProvider {
	t.Helper()
	provider, err := NewAppKeySecretProvider(testKey(fill))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestAppKeySecretProvider_EnvelopeRoundTrip(t *testing.T) {
	provider := newTestProvider(t, 0x11)

	cases := map[string][]byte{
		"empty":   {},
		"ascii":   []byte(`{"endpoint":"https://vckit.example.com","authToken":"secret"}`),
		"unicode": []byte("clé secrète ✓ 認証トークン"),
		"large":   bytes.Repeat([]byte("0123456789abcdef"), 1024),
	}
	for name, plaintext := range cases {
		t.Run(name, func(t *testing.T) {
			env, err := provider.EncryptEnvelope(plaintext, AlgorithmAES256GCM)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if env.Algorithm != AlgorithmAES256GCM {
				t.Fatalf("expected algorithm %q, got %q", AlgorithmAES256GCM, env.Algorithm)
			}
			decrypted, err := provider.DecryptEnvelope(env)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Fatalf("expected roundtrip plaintext; got %q", string(decrypted))
			}
		})
	}
}

func TestAppKeySecretProvider_EnvelopeFieldSizes(t *testing.T) {
	provider := newTestProvider(t, 0x12)
	env, err := provider.EncryptEnvelope([]byte("payload"), "")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	iv, _ := base64.StdEncoding.DecodeString(env.IV)
	tag, _ := base64.StdEncoding.DecodeString(env.Tag)
	if len(iv) != 12 {
		t.Fatalf("expected 12 byte iv, got %d", len(iv))
	}
	if len(tag) != 16 {
		t.Fatalf("expected 16 byte tag, got %d", len(tag))
	}
}

func TestAppKeySecretProvider_FreshNonceEveryCall(t *testing.T) {
	provider := newTestProvider(t, 0x13)
	seen := map[string]struct{}{}
	for i := 0; i < 64; i++ {
		env, err := provider.EncryptEnvelope([]byte("same plaintext"), AlgorithmAES256GCM)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		pair := env.IV + "|" + env.CipherText
		if _, exists := seen[pair]; exists {
			t.Fatalf("iv/ciphertext pair repeated on call %d", i)
		}
		if _, exists := seen[env.IV]; exists {
			t.Fatalf("iv repeated on call %d", i)
		}
		seen[pair] = struct{}{}
		seen[env.IV] = struct{}{}
	}
}

func TestAppKeySecretProvider_DetectsTampering(t *testing.T) {
	provider := newTestProvider(t, 0x14)
	env, err := provider.EncryptEnvelope([]byte("tamper-evident payload"), AlgorithmAES256GCM)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	cipherText, _ := base64.StdEncoding.DecodeString(env.CipherText)
	for i := range cipherText {
		mutated := bytes.Clone(cipherText)
		mutated[i] ^= 0x01
		tampered := env
		tampered.CipherText = base64.StdEncoding.EncodeToString(mutated)
		if out, err := provider.DecryptEnvelope(tampered); err == nil {
			t.Fatalf("expected failure for ciphertext byte %d, got %q", i, string(out))
		}
	}

	tag, _ := base64.StdEncoding.DecodeString(env.Tag)
	for i := range tag {
		mutated := bytes.Clone(tag)
		mutated[i] ^= 0x80
		tampered := env
		tampered.Tag = base64.StdEncoding.EncodeToString(mutated)
		if out, err := provider.DecryptEnvelope(tampered); err == nil {
			t.Fatalf("expected failure for tag byte %d, got %q", i, string(out))
		}
	}
}

func TestAppKeySecretProvider_RejectsForeignKey(t *testing.T) {
	issuer := newTestProvider(t, 0x15)
	receiver := newTestProvider(t, 0x16)

	encrypted, err := issuer.Encrypt(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := receiver.Decrypt(context.Background(), encrypted); err == nil {
		t.Fatalf("expected cross-key decryption failure")
	}
}

func TestAppKeySecretProvider_RejectsUnsupportedAlgorithm(t *testing.T) {
	provider := newTestProvider(t, 0x17)
	if _, err := provider.EncryptEnvelope([]byte("x"), "aes-128-cbc"); err == nil {
		t.Fatalf("expected unsupported algorithm on encrypt")
	}

	env, err := provider.EncryptEnvelope([]byte("x"), AlgorithmAES256GCM)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	env.Algorithm = "chacha20-poly1305"
	if _, err := provider.DecryptEnvelope(env); err == nil {
		t.Fatalf("expected unsupported algorithm on decrypt")
	}
}

func TestAppKeySecretProvider_StoredFormRoundTrip(t *testing.T) {
	provider := newTestProvider(t, 0x18)
	stored, err := provider.Encrypt(context.Background(), []byte(`{"bucket":"docs"}`))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	for _, field := range []string{`"cipherText"`, `"iv"`, `"tag"`, `"type":"aes-256-gcm"`} {
		if !strings.Contains(string(stored), field) {
			t.Fatalf("expected stored envelope to contain %s, got %s", field, stored)
		}
	}
	plaintext, err := provider.Decrypt(context.Background(), stored)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plaintext) != `{"bucket":"docs"}` {
		t.Fatalf("unexpected plaintext %q", plaintext)
	}

	if _, err := provider.Decrypt(context.Background(), []byte("not-json")); err == nil {
		t.Fatalf("expected malformed envelope error")
	}
}

func TestAppKeySecretProvider_ErrorsNeverCarryKeyMaterial(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	provider, err := NewAppKeySecretProviderFromString(key)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	other := newTestProvider(t, 0x19)
	stored, err := other.Encrypt(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	_, err = provider.Decrypt(context.Background(), stored)
	if err == nil {
		t.Fatalf("expected decryption failure")
	}
	if strings.Contains(err.Error(), key) {
		t.Fatalf("error leaked key material: %v", err)
	}
}

func TestNewAppKeySecretProviderFromString_KeyFormats(t *testing.T) {
	raw := testKey(0x2a)
	formats := map[string]string{
		"hex":    "2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a",
		"base64": base64.StdEncoding.EncodeToString(raw),
		"raw":    string(raw),
	}
	reference := newTestProvider(t, 0x2a)
	env, err := reference.EncryptEnvelope([]byte("shared"), AlgorithmAES256GCM)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	for name, value := range formats {
		provider, err := NewAppKeySecretProviderFromString(value)
		if err != nil {
			t.Fatalf("%s: new provider: %v", name, err)
		}
		if _, err := provider.DecryptEnvelope(env); err != nil {
			t.Fatalf("%s: expected same key, got %v", name, err)
		}
	}

	if _, err := NewAppKeySecretProviderFromString("too-short"); err == nil {
		t.Fatalf("expected short key rejection")
	}
	if _, err := NewAppKeySecretProvider([]byte("sixteen-byte-key")); err == nil {
		t.Fatalf("expected non AES-256 key rejection")
	}
}

package security

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	AlgorithmAES256GCM = "aes-256-gcm"

	nonceSize = 12
	tagSize   = 16
)

// EncryptedEnvelope is the at-rest form of an adapter configuration blob.
// All byte fields are standard base64. EncryptedKey is only set when the
// payload key is a data key wrapped by an external key service.
type EncryptedEnvelope struct {
	CipherText   string `json:"cipherText"`
	IV           string `json:"iv"`
	Tag          string `json:"tag"`
	Algorithm    string `json:"type"`
	EncryptedKey string `json:"encryptedKey,omitempty"`
}

// MarshalEnvelope renders the stored string form of an envelope.
func MarshalEnvelope(env EncryptedEnvelope) (string, error) {
	data, err := json.Marshal(normalizeEnvelope(env))
	if err != nil {
		return "", fmt.Errorf("security: encode envelope: %w", err)
	}
	return string(data), nil
}

// ParseEnvelope decodes the stored string form of an envelope. It checks
// shape only; authenticity is established by decryption.
func ParseEnvelope(stored string) (EncryptedEnvelope, error) {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return EncryptedEnvelope{}, fmt.Errorf("security: envelope is required")
	}
	var env EncryptedEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return EncryptedEnvelope{}, fmt.Errorf("security: decode envelope: %w", err)
	}
	env = normalizeEnvelope(env)
	if env.IV == "" {
		return EncryptedEnvelope{}, fmt.Errorf("security: envelope iv is required")
	}
	if env.Tag == "" {
		return EncryptedEnvelope{}, fmt.Errorf("security: envelope tag is required")
	}
	return env, nil
}

func normalizeEnvelope(in EncryptedEnvelope) EncryptedEnvelope {
	in.CipherText = strings.TrimSpace(in.CipherText)
	in.IV = strings.TrimSpace(in.IV)
	in.Tag = strings.TrimSpace(in.Tag)
	in.Algorithm = strings.ToLower(strings.TrimSpace(in.Algorithm))
	in.EncryptedKey = strings.TrimSpace(in.EncryptedKey)
	return in
}

type decodedEnvelope struct {
	cipherText []byte
	iv         []byte
	tag        []byte
}

func decodeEnvelopeFields(env EncryptedEnvelope) (decodedEnvelope, error) {
	cipherText, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return decodedEnvelope{}, fmt.Errorf("security: decode ciphertext payload: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return decodedEnvelope{}, fmt.Errorf("security: decode iv: %w", err)
	}
	if len(iv) != nonceSize {
		return decodedEnvelope{}, fmt.Errorf("security: iv must be %d bytes", nonceSize)
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return decodedEnvelope{}, fmt.Errorf("security: decode tag: %w", err)
	}
	if len(tag) != tagSize {
		return decodedEnvelope{}, fmt.Errorf("security: tag must be %d bytes", tagSize)
	}
	return decodedEnvelope{cipherText: cipherText, iv: iv, tag: tag}, nil
}

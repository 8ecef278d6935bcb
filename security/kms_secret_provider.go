package security

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
)

// KMSDataKeys issues data keys from an AWS KMS customer managed key. The
// encryption context is bound into every wrapped key.
type KMSDataKeys struct {
	client            kmsiface.KMSAPI
	keyID             string
	encryptionContext map[string]*string
}

func NewKMSDataKeys(client kmsiface.KMSAPI, keyID string, encryptionContext map[string]string) (*KMSDataKeys, error) {
	if client == nil {
		return nil, fmt.Errorf("security: kms client is required")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, fmt.Errorf("security: kms key id is required")
	}
	var bound map[string]*string
	if len(encryptionContext) > 0 {
		bound = aws.StringMap(encryptionContext)
	}
	return &KMSDataKeys{client: client, keyID: keyID, encryptionContext: bound}, nil
}

func (k *KMSDataKeys) GenerateDataKey(ctx context.Context) ([]byte, string, error) {
	out, err := k.client.GenerateDataKeyWithContext(ctx, &kms.GenerateDataKeyInput{
		KeyId:             aws.String(k.keyID),
		KeySpec:           aws.String(kms.DataKeySpecAes256),
		EncryptionContext: k.encryptionContext,
	})
	if err != nil {
		return nil, "", fmt.Errorf("security: kms generate data key: %w", err)
	}
	if len(out.Plaintext) != appKeySize || len(out.CiphertextBlob) == 0 {
		clear(out.Plaintext)
		return nil, "", fmt.Errorf("security: kms returned an invalid data key")
	}
	return out.Plaintext, base64.StdEncoding.EncodeToString(out.CiphertextBlob), nil
}

func (k *KMSDataKeys) UnwrapDataKey(ctx context.Context, wrapped string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(wrapped))
	if err != nil {
		return nil, fmt.Errorf("security: decode wrapped key: %w", err)
	}
	out, err := k.client.DecryptWithContext(ctx, &kms.DecryptInput{
		CiphertextBlob:    blob,
		KeyId:             aws.String(k.keyID),
		EncryptionContext: k.encryptionContext,
	})
	if err != nil {
		return nil, fmt.Errorf("security: kms decrypt data key: %w", err)
	}
	return out.Plaintext, nil
}

// NewKMSSecretProvider seals configs under data keys from the given KMS key.
func NewKMSSecretProvider(client kmsiface.KMSAPI, keyID string, encryptionContext map[string]string, opts ...Option) (*DataKeySecretProvider, error) {
	source, err := NewKMSDataKeys(client, keyID, encryptionContext)
	if err != nil {
		return nil, err
	}
	return NewDataKeySecretProvider(source, keyID, opts...)
}

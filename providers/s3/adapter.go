// Package s3 implements the STORAGE service type on Amazon S3 or any
// S3 compatible endpoint.
package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/providers"
)

const (
	AdapterType core.AdapterType = "S3"
	ProviderID                   = "s3"

	TextCodeObjectNotFound = "STORAGE_OBJECT_NOT_FOUND"

	opStore    = "put_object"
	opRetrieve = "get_object"

	defaultContentType = "application/octet-stream"
)

var ErrObjectNotFound = errors.New("s3: object not found")

var configSchema = core.MustConfigSchema(map[string]any{
	"type":     "object",
	"required": []any{"bucket", "region"},
	"properties": map[string]any{
		"bucket":          map[string]any{"type": "string", "minLength": 1},
		"region":          map[string]any{"type": "string", "minLength": 1},
		"endpoint":        map[string]any{"type": "string", "format": "uri"},
		"accessKeyId":     map[string]any{"type": "string"},
		"secretAccessKey": map[string]any{"type": "string"},
		"prefix":          map[string]any{"type": "string"},
	},
})

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func ConfigFromMap(values map[string]any) (Config, error) {
	cfg := Config{
		Bucket:          providers.ReadString(values, "bucket"),
		Region:          providers.ReadString(values, "region"),
		Endpoint:        providers.ReadString(values, "endpoint"),
		AccessKeyID:     providers.ReadString(values, "accessKeyId"),
		SecretAccessKey: providers.ReadString(values, "secretAccessKey"),
		Prefix:          strings.Trim(providers.ReadString(values, "prefix"), "/"),
	}
	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("s3: bucket is required")
	}
	if cfg.Region == "" {
		return Config{}, fmt.Errorf("s3: region is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return Config{}, fmt.Errorf("s3: accessKeyId and secretAccessKey must be set together")
	}
	return cfg, nil
}

func Registration() core.AdapterRegistration {
	return core.AdapterRegistration{
		ServiceType:  core.ServiceTypeStorage,
		AdapterType:  AdapterType,
		ConfigSchema: configSchema,
		Factory:      Factory,
	}
}

func Factory(values map[string]any, fc core.FactoryContext) (core.Adapter, error) {
	cfg, err := ConfigFromMap(values)
	if err != nil {
		return nil, err
	}
	return New(cfg, fc)
}

// sessionHTTPClient copies the shared client for one session. The SDK edits
// the transport it is given (custom CA bundles), so it must never see the
// shared one.
func sessionHTTPClient(shared *http.Client) *http.Client {
	copied := *shared
	switch transport := shared.Transport.(type) {
	case *http.Transport:
		copied.Transport = transport.Clone()
	case nil:
		copied.Transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &copied
}

type Adapter struct {
	client *awss3.S3
	bucket string
	prefix string
	logger core.Logger
}

func New(cfg Config, fc core.FactoryContext) (*Adapter, error) {
	awsCfg := aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if fc.HTTPClient != nil {
		awsCfg.HTTPClient = sessionHTTPClient(fc.HTTPClient)
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: create session: %w", err)
	}

	logger := fc.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	return &Adapter{
		client: awss3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

func (a *Adapter) ServiceType() core.ServiceType {
	return core.ServiceTypeStorage
}

// Store writes req.Data under req.Key. An empty key stores the object under
// the hex SHA-256 of its content.
func (a *Adapter) Store(ctx context.Context, req core.StoreRequest) (core.StoredObject, error) {
	key := strings.Trim(strings.TrimSpace(req.Key), "/")
	if key == "" {
		sum := sha256.Sum256(req.Data)
		key = hex.EncodeToString(sum[:])
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}
	objectKey := a.objectKey(key)

	_, err := a.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(req.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return core.StoredObject{}, &providers.ProviderError{Provider: ProviderID, Operation: opStore, Cause: err}
	}

	a.logger.Debug("stored object", "bucket", a.bucket, "key", objectKey, "size", len(req.Data))
	return core.StoredObject{
		Key: key,
		URI: "s3://" + a.bucket + "/" + objectKey,
	}, nil
}

func (a *Adapter) Retrieve(ctx context.Context, key string) ([]byte, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("s3: object key is required")
	}
	objectKey := a.objectKey(trimmed)

	result, err := a.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &ObjectNotFoundError{Bucket: a.bucket, Key: objectKey}
		}
		return nil, &providers.ProviderError{Provider: ProviderID, Operation: opRetrieve, Cause: err}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &providers.ProviderError{Provider: ProviderID, Operation: opRetrieve, Cause: err}
	}
	return data, nil
}

func (a *Adapter) objectKey(key string) string {
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return awsErr.Code() == awss3.ErrCodeNoSuchKey || awsErr.Code() == "NotFound"
	}
	return false
}

type ObjectNotFoundError struct {
	Bucket string
	Key    string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("s3: object %q not found in bucket %q", e.Key, e.Bucket)
}

func (e *ObjectNotFoundError) Unwrap() error { return ErrObjectNotFound }

func (e *ObjectNotFoundError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeObjectNotFound).
		WithMetadata(map[string]any{"bucket": e.Bucket, "key": e.Key})
}

var (
	_ core.StorageAdapter        = (*Adapter)(nil)
	_ core.ServiceErrorConverter = (*ObjectNotFoundError)(nil)
)

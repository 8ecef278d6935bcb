package did

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/piprate/json-gold/ld"
)

// LDValidator checks that a decoded document is well-formed JSON-LD.
type LDValidator interface {
	ValidateJSONLD(ctx context.Context, document map[string]any) error
}

type JSONLDOption func(*JSONLDValidator)

// WithContextDocuments preloads JSON-LD contexts by URL so they are never
// fetched.
func WithContextDocuments(contexts map[string]any) JSONLDOption {
	return func(v *JSONLDValidator) {
		for url, document := range contexts {
			v.contexts[url] = document
		}
	}
}

func WithContextTimeout(timeout time.Duration) JSONLDOption {
	return func(v *JSONLDValidator) {
		if timeout > 0 {
			v.timeout = timeout
		}
	}
}

func WithContextMaxBytes(limit int64) JSONLDOption {
	return func(v *JSONLDValidator) {
		if limit > 0 {
			v.maxBytes = limit
		}
	}
}

// JSONLDValidator expands a document and converts it to N-Quads in safe mode,
// so undefined terms and malformed contexts fail instead of being dropped.
type JSONLDValidator struct {
	client   HTTPDoer
	contexts map[string]any
	timeout  time.Duration
	maxBytes int64
}

func NewJSONLDValidator(client HTTPDoer, opts ...JSONLDOption) *JSONLDValidator {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	validator := &JSONLDValidator{
		client:   client,
		contexts: map[string]any{},
		timeout:  defaultRequestTimeout,
		maxBytes: defaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(validator)
		}
	}
	return validator
}

func (v *JSONLDValidator) ValidateJSONLD(ctx context.Context, document map[string]any) (err error) {
	if v == nil {
		return fmt.Errorf("did: jsonld validator is nil")
	}
	if document == nil {
		return fmt.Errorf("did: jsonld document is required")
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("did: jsonld processing panicked: %v", recovered)
		}
	}()

	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.SafeMode = true
	options.DocumentLoader = &contextLoader{ctx: ctx, validator: v}

	if _, err := proc.Expand(document, options); err != nil {
		return fmt.Errorf("did: jsonld expansion failed: %w", err)
	}
	options.Format = "application/n-quads"
	if _, err := proc.ToRDF(document, options); err != nil {
		return fmt.Errorf("did: jsonld rdf conversion failed: %w", err)
	}
	return nil
}

// contextLoader resolves remote contexts under the caller's context with a
// timeout and size cap.
type contextLoader struct {
	ctx       context.Context
	validator *JSONLDValidator
}

func (l *contextLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if document, ok := l.validator.contexts[u]; ok {
		return &ld.RemoteDocument{DocumentURL: u, Document: document}, nil
	}

	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, l.validator.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	resp, err := l.validator.client.Do(req)
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed,
			fmt.Sprintf("context %s returned status %d", u, resp.StatusCode))
	}
	document, err := ld.DocumentFromReader(io.LimitReader(resp.Body, l.validator.maxBytes))
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	return &ld.RemoteDocument{DocumentURL: u, Document: document}, nil
}

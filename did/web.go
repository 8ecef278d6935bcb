package did

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebMethod resolves did:web identifiers over HTTPS.
type WebMethod struct {
	httpClient       HTTPDoer
	requestTimeout   time.Duration
	maxDocumentBytes int64
}

func NewWebMethod(cfg Config) *WebMethod {
	cfg = cfg.withDefaults()
	return &WebMethod{
		httpClient:       cfg.HTTPClient,
		requestTimeout:   cfg.RequestTimeout,
		maxDocumentBytes: cfg.MaxDocumentBytes,
	}
}

func (m *WebMethod) Method() string { return MethodWeb }

func (m *WebMethod) Resolve(ctx context.Context, id DID) (Resolution, error) {
	location, err := WebURL(id.String())
	if err != nil {
		return Resolution{}, err
	}
	document, err := m.fetch(ctx, location)
	if err != nil {
		return Resolution{Location: location}, err
	}
	return Resolution{Document: document, Location: location}, nil
}

func (m *WebMethod) fetch(ctx context.Context, location string) (map[string]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if m.requestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, m.requestTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("did: build request for %s: %w", location, err)
	}
	req.Header.Set("Accept", "application/did+ld+json, application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("did: fetch %s: %w", location, err)
	}
	defer res.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(res.Body, m.maxDocumentBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("did: read document: %w", readErr)
	}
	if int64(len(body)) > m.maxDocumentBytes {
		return nil, fmt.Errorf("did: document exceeds %d bytes", m.maxDocumentBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("did: %s returned status %d", location, res.StatusCode)
	}
	var document map[string]any
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("did: decode document: %w", err)
	}
	if document == nil {
		return nil, fmt.Errorf("did: document is empty")
	}
	return document, nil
}

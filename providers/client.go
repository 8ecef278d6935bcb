package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-service-adapters/core"
)

const (
	DefaultRequestTimeout   = 15 * time.Second
	DefaultMaxResponseBytes = 4 << 20 // 4 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JSONClient issues JSON requests against a provider base URL with a per-call
// timeout and a response size cap. It never retries.
type JSONClient struct {
	Provider         string
	BaseURL          string
	HTTPClient       HTTPDoer
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	Header           http.Header
	RateLimit        core.RateLimitPolicy

	host string
}

func NewJSONClient(provider string, baseURL string, fc core.FactoryContext) (*JSONClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("providers: %s endpoint must be an absolute url", provider)
	}
	var doer HTTPDoer = fc.HTTPClient
	if fc.HTTPClient == nil {
		doer = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &JSONClient{
		Provider:         provider,
		BaseURL:          strings.TrimRight(parsed.String(), "/"),
		HTTPClient:       doer,
		RequestTimeout:   DefaultRequestTimeout,
		MaxResponseBytes: DefaultMaxResponseBytes,
		Header:           http.Header{},
		RateLimit:        fc.RateLimit,
		host:             parsed.Host,
	}, nil
}

// Do sends body (JSON encoded when non-nil) to path and returns the raw
// response body of a 2xx reply. Other statuses become a ProviderError.
func (c *JSONClient) Do(
	ctx context.Context,
	operation string,
	method string,
	path string,
	query url.Values,
	body any,
) ([]byte, error) {
	if c == nil || c.HTTPClient == nil {
		return nil, fmt.Errorf("providers: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if c.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
	}
	defer cancel()

	target := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("providers: encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(requestCtx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("providers: build %s request: %w", operation, err)
	}
	for key, values := range c.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	key := c.rateLimitKey()
	if c.RateLimit != nil {
		if err := c.RateLimit.BeforeCall(ctx, key); err != nil {
			return nil, err
		}
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: c.Provider, Operation: operation, Cause: err}
	}
	defer res.Body.Close()

	if c.RateLimit != nil {
		meta := core.ProviderResponseMeta{StatusCode: res.StatusCode, Headers: res.Header.Clone()}
		if err := c.RateLimit.AfterCall(ctx, key, meta); err != nil {
			return nil, fmt.Errorf("providers: record %s rate limit state: %w", operation, err)
		}
	}

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	payload, readErr := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if readErr != nil {
		return nil, &ProviderError{Provider: c.Provider, Operation: operation, Cause: readErr}
	}
	if int64(len(payload)) > limit {
		return nil, &ProviderError{
			Provider:  c.Provider,
			Operation: operation,
			Message:   fmt.Sprintf("response exceeds %d bytes", limit),
		}
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			Provider:   c.Provider,
			Operation:  operation,
			StatusCode: res.StatusCode,
			Message:    summarizeBody(payload),
		}
	}
	return payload, nil
}

func (c *JSONClient) rateLimitKey() core.RateLimitKey {
	host := c.host
	if host == "" {
		if parsed, err := url.Parse(c.BaseURL); err == nil {
			host = parsed.Host
		}
	}
	return core.RateLimitKey{ProviderID: c.Provider, Endpoint: host}
}

func summarizeBody(payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if len(text) > 256 {
		text = text[:256] + "..."
	}
	return text
}

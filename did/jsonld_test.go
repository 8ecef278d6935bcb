package did

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestJSONLDValidatorAcceptsInlineContext(t *testing.T) {
	validator := NewJSONLDValidator(nil)
	err := validator.ValidateJSONLD(context.Background(), testDocument("did:web:example.com", "key-1"))
	if err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
}

func TestJSONLDValidatorRejectsInvalidContext(t *testing.T) {
	validator := NewJSONLDValidator(nil)
	err := validator.ValidateJSONLD(context.Background(), map[string]any{
		"@context": 42,
		"id":       "did:web:example.com",
	})
	if err == nil {
		t.Fatalf("expected invalid context error")
	}
}

func TestJSONLDValidatorUsesPreloadedContexts(t *testing.T) {
	const contextURL = "https://contexts.example.org/did/v1"
	client := &failingDoer{}
	validator := NewJSONLDValidator(client, WithContextDocuments(map[string]any{
		contextURL: map[string]any{"@context": testContext()},
	}))

	doc := testDocument("did:web:example.com", "key-1")
	doc["@context"] = contextURL
	if err := validator.ValidateJSONLD(context.Background(), doc); err != nil {
		t.Fatalf("expected preloaded context to validate, got %v", err)
	}
	if client.calls.Load() != 0 {
		t.Fatalf("expected no remote context fetch")
	}
}

func TestJSONLDValidatorFetchesRemoteContext(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/ld+json")
		_ = json.NewEncoder(w).Encode(map[string]any{"@context": testContext()})
	}))
	t.Cleanup(server.Close)

	validator := NewJSONLDValidator(server.Client())
	doc := testDocument("did:web:example.com", "key-1")
	doc["@context"] = server.URL + "/did/v1"
	if err := validator.ValidateJSONLD(context.Background(), doc); err != nil {
		t.Fatalf("expected remote context to validate, got %v", err)
	}
	if hits.Load() == 0 {
		t.Fatalf("expected remote context fetch")
	}
}

func TestJSONLDValidatorFailsWhenContextUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	validator := NewJSONLDValidator(server.Client())
	doc := testDocument("did:web:example.com")
	doc["@context"] = server.URL + "/missing"
	if err := validator.ValidateJSONLD(context.Background(), doc); err == nil {
		t.Fatalf("expected missing context to fail")
	}
}

type failingDoer struct {
	calls atomic.Int32
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return nil, http.ErrHandlerTimeout
}

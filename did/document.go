package did

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is the subset of a W3C DID Core document this package reads.
// Raw keeps the full decoded JSON for JSON-LD processing.
type Document struct {
	Context            any                  `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	Controller         any                  `json:"controller,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []any                `json:"authentication,omitempty"`
	AssertionMethod    []any                `json:"assertionMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`

	Raw map[string]any `json:"-"`
}

type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type,omitempty"`
	Controller         string `json:"controller,omitempty"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

type JWK struct {
	Kid string `json:"kid,omitempty"`
	Kty string `json:"kty,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type Service struct {
	ID              string `json:"id"`
	Type            any    `json:"type"`
	ServiceEndpoint any    `json:"serviceEndpoint"`
}

// Fragment returns the part of the method id after '#', or "" when absent.
func (m VerificationMethod) Fragment() string {
	_, fragment, found := strings.Cut(m.ID, "#")
	if !found {
		return ""
	}
	return fragment
}

// ParseDocument decodes a DID document from JSON, keeping the raw map.
func ParseDocument(data []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("did: decode document: %w", err)
	}
	return DocumentFromMap(raw)
}

func DocumentFromMap(raw map[string]any) (Document, error) {
	if raw == nil {
		return Document{}, fmt.Errorf("did: document is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("did: encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("did: decode document: %w", err)
	}
	doc.Raw = raw
	return doc, nil
}

// Map returns the raw JSON form of the document, building it from the typed
// fields when the document was constructed in code.
func (d Document) Map() (map[string]any, error) {
	if d.Raw != nil {
		return d.Raw, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("did: encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("did: decode document: %w", err)
	}
	return out, nil
}

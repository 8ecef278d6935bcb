// Package vckit implements the DID service type against a VCKit agent.
package vckit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/did"
	"github.com/goliatone/go-service-adapters/providers"
	"github.com/tidwall/gjson"
)

const (
	AdapterType core.AdapterType = "VCKIT"
	ProviderID                   = "vckit"

	KeyTypeEd25519 = "Ed25519"

	opCreateDID   = "did_manager_create"
	opResolveDID  = "resolve_did"
	opGetDIDKeys  = "did_manager_get"
	pathCreateDID = "/agent/didManagerCreate"
	pathResolve   = "/agent/resolveDid"
	pathGetDID    = "/agent/didManagerGet"
)

var configSchema = core.MustConfigSchema(map[string]any{
	"type":     "object",
	"required": []any{"endpoint", "authToken"},
	"properties": map[string]any{
		"endpoint":  map[string]any{"type": "string", "format": "uri"},
		"authToken": map[string]any{"type": "string", "minLength": 1},
		"keyType": map[string]any{
			"type":    "string",
			"enum":    []any{KeyTypeEd25519},
			"default": KeyTypeEd25519,
		},
	},
})

type Config struct {
	Endpoint  string
	AuthToken string
	KeyType   string
}

func ConfigFromMap(values map[string]any) (Config, error) {
	cfg := Config{
		Endpoint:  providers.ReadString(values, "endpoint"),
		AuthToken: providers.ReadString(values, "authToken"),
		KeyType:   providers.ReadString(values, "keyType"),
	}
	if cfg.KeyType == "" {
		cfg.KeyType = KeyTypeEd25519
	}
	if cfg.Endpoint == "" {
		return Config{}, fmt.Errorf("vckit: endpoint is required")
	}
	if cfg.AuthToken == "" {
		return Config{}, fmt.Errorf("vckit: authToken is required")
	}
	return cfg, nil
}

func Registration() core.AdapterRegistration {
	return core.AdapterRegistration{
		ServiceType:  core.ServiceTypeDID,
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

type Adapter struct {
	client  *providers.JSONClient
	domain  string
	keyType string
}

func New(cfg Config, fc core.FactoryContext) (*Adapter, error) {
	client, err := providers.NewJSONClient(ProviderID, cfg.Endpoint, fc)
	if err != nil {
		return nil, err
	}
	client.Header.Set("Authorization", "Bearer "+cfg.AuthToken)

	endpoint, _ := url.Parse(client.BaseURL)
	return &Adapter{
		client:  client,
		domain:  endpoint.Host,
		keyType: cfg.KeyType,
	}, nil
}

func (a *Adapter) ServiceType() core.ServiceType {
	return core.ServiceTypeDID
}

// CreateDID provisions did:web:<endpoint host>:<alias> on the agent.
func (a *Adapter) CreateDID(ctx context.Context, req core.CreateDIDRequest) (core.CreatedDID, error) {
	if err := did.ValidateAlias(req.Alias); err != nil {
		return core.CreatedDID{}, err
	}
	keyType := strings.TrimSpace(req.KeyType)
	if keyType == "" {
		keyType = a.keyType
	}
	if keyType != KeyTypeEd25519 {
		return core.CreatedDID{}, &did.InputError{Field: "keyType", Reason: "unsupported key type " + keyType}
	}

	identifier, err := did.WebDID(a.domain, strings.TrimSpace(req.Alias))
	if err != nil {
		return core.CreatedDID{}, err
	}

	payload, err := a.client.Do(ctx, opCreateDID, http.MethodPost, pathCreateDID, nil, map[string]any{
		"alias":    strings.TrimPrefix(identifier, "did:web:"),
		"provider": "did:web",
		"kms":      "local",
		"options":  map[string]any{"keyType": keyType},
	})
	if err != nil {
		return core.CreatedDID{}, err
	}

	parsed := gjson.ParseBytes(payload)
	created := strings.TrimSpace(parsed.Get("did").String())
	if created == "" {
		return core.CreatedDID{}, &providers.ProviderError{
			Provider:  ProviderID,
			Operation: opCreateDID,
			Message:   "response is missing did",
		}
	}
	return core.CreatedDID{DID: created, KeyIDs: keyIDs(parsed)}, nil
}

func (a *Adapter) GetDocument(ctx context.Context, id string) (map[string]any, error) {
	if _, err := did.ParseDID(id); err != nil {
		return nil, err
	}
	payload, err := a.client.Do(ctx, opResolveDID, http.MethodPost, pathResolve, nil, map[string]any{
		"didUrl": strings.TrimSpace(id),
	})
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(payload)
	if resolutionErr := parsed.Get("didResolutionMetadata.error").String(); resolutionErr != "" {
		return nil, &providers.ProviderError{
			Provider:  ProviderID,
			Operation: opResolveDID,
			Message:   resolutionErr,
		}
	}
	document, ok := parsed.Get("didDocument").Value().(map[string]any)
	if !ok {
		return nil, &providers.ProviderError{
			Provider:  ProviderID,
			Operation: opResolveDID,
			Message:   "response is missing didDocument",
		}
	}
	return document, nil
}

func (a *Adapter) KeyIDs(ctx context.Context, id string) ([]string, error) {
	if _, err := did.ParseDID(id); err != nil {
		return nil, err
	}
	payload, err := a.client.Do(ctx, opGetDIDKeys, http.MethodPost, pathGetDID, nil, map[string]any{
		"did": strings.TrimSpace(id),
	})
	if err != nil {
		return nil, err
	}
	return keyIDs(gjson.ParseBytes(payload)), nil
}

func keyIDs(parsed gjson.Result) []string {
	out := []string{}
	for _, kid := range parsed.Get("keys.#.kid").Array() {
		if value := strings.TrimSpace(kid.String()); value != "" {
			out = append(out, value)
		}
	}
	return out
}

var _ core.DIDAdapter = (*Adapter)(nil)

// Package pyx implements the IDR service type against a Pyx identity
// resolver, returning RFC 9264 link sets.
package pyx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/did"
	"github.com/goliatone/go-service-adapters/providers"
	"github.com/tidwall/gjson"
)

const (
	AdapterType core.AdapterType = "PYX_IDR"
	ProviderID                   = "pyx"

	opResolve = "resolve_links"
)

var configSchema = core.MustConfigSchema(map[string]any{
	"type":     "object",
	"required": []any{"endpoint", "apiKey", "namespace"},
	"properties": map[string]any{
		"endpoint":  map[string]any{"type": "string", "format": "uri"},
		"apiKey":    map[string]any{"type": "string", "minLength": 1},
		"namespace": map[string]any{"type": "string", "minLength": 1},
	},
})

type Config struct {
	Endpoint  string
	APIKey    string
	Namespace string
}

func ConfigFromMap(values map[string]any) (Config, error) {
	cfg := Config{
		Endpoint:  providers.ReadString(values, "endpoint"),
		APIKey:    providers.ReadString(values, "apiKey"),
		Namespace: strings.Trim(providers.ReadString(values, "namespace"), "/"),
	}
	for field, value := range map[string]string{
		"endpoint":  cfg.Endpoint,
		"apiKey":    cfg.APIKey,
		"namespace": cfg.Namespace,
	} {
		if value == "" {
			return Config{}, fmt.Errorf("pyx: %s is required", field)
		}
	}
	return cfg, nil
}

func Registration() core.AdapterRegistration {
	return core.AdapterRegistration{
		ServiceType:  core.ServiceTypeIDR,
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
	client    *providers.JSONClient
	namespace string
}

func New(cfg Config, fc core.FactoryContext) (*Adapter, error) {
	client, err := providers.NewJSONClient(ProviderID, cfg.Endpoint, fc)
	if err != nil {
		return nil, err
	}
	client.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	client.Header.Set("Accept", "application/linkset+json")
	return &Adapter{client: client, namespace: cfg.Namespace}, nil
}

func (a *Adapter) ServiceType() core.ServiceType {
	return core.ServiceTypeIDR
}

func (a *Adapter) Resolve(ctx context.Context, req core.LinkRequest) (core.LinkSet, error) {
	scheme := strings.TrimSpace(req.IdentifierScheme)
	identifier := strings.TrimSpace(req.Identifier)
	if scheme == "" {
		return core.LinkSet{}, &did.InputError{Field: "identifierScheme", Reason: "identifier scheme is required"}
	}
	if identifier == "" {
		return core.LinkSet{}, &did.InputError{Field: "identifier", Reason: "identifier is required"}
	}

	segments := []string{a.namespace, url.PathEscape(scheme), url.PathEscape(identifier)}
	if qualifier := strings.Trim(strings.TrimSpace(req.Qualifier), "/"); qualifier != "" {
		segments = append(segments, qualifier)
	}
	query := url.Values{}
	if linkType := strings.TrimSpace(req.LinkType); linkType != "" {
		query.Set("linkType", linkType)
	} else {
		query.Set("linkType", "all")
	}

	payload, err := a.client.Do(ctx, opResolve, http.MethodGet, strings.Join(segments, "/"), query, nil)
	if err != nil {
		return core.LinkSet{}, err
	}
	return parseLinkSet(payload)
}

// parseLinkSet reads the first context object of a linkset document. Every
// key other than anchor is a relation type holding an array of targets.
func parseLinkSet(payload []byte) (core.LinkSet, error) {
	parsed := gjson.ParseBytes(payload)
	entry := parsed.Get("linkset.0")
	if !entry.IsObject() {
		return core.LinkSet{}, &providers.ProviderError{
			Provider:  ProviderID,
			Operation: opResolve,
			Message:   "response is missing linkset",
		}
	}

	out := core.LinkSet{Anchor: entry.Get("anchor").String()}
	entry.ForEach(func(key, value gjson.Result) bool {
		rel := key.String()
		if rel == "anchor" || !value.IsArray() {
			return true
		}
		value.ForEach(func(_, target gjson.Result) bool {
			href := strings.TrimSpace(target.Get("href").String())
			if href == "" {
				return true
			}
			out.Links = append(out.Links, core.Link{
				Href:     href,
				Rel:      rel,
				Type:     target.Get("type").String(),
				Title:    target.Get("title").String(),
				Language: target.Get("hreflang.0").String(),
			})
			return true
		})
		return true
	})

	sort.SliceStable(out.Links, func(i, j int) bool {
		if out.Links[i].Rel != out.Links[j].Rel {
			return out.Links[i].Rel < out.Links[j].Rel
		}
		return out.Links[i].Href < out.Links[j].Href
	})
	return out, nil
}

var _ core.IdentityResolverAdapter = (*Adapter)(nil)

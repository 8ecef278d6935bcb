package did

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

func resolutionCheck(resolution Resolution, err error) Check {
	if err != nil {
		return Check{Name: CheckResolution, Passed: false, Message: err.Error()}
	}
	if resolution.Document == nil {
		return Check{Name: CheckResolution, Passed: false, Message: "did: resolver returned no document"}
	}
	message := ""
	if resolution.Location != "" {
		message = "resolved from " + resolution.Location
	}
	return Check{Name: CheckResolution, Passed: true, Message: message}
}

// checkStructure validates the minimal DID document shape: a string id and,
// when present, a verificationMethod array whose entries carry string ids. An
// absent or null verificationMethod counts as empty.
func checkStructure(raw map[string]any) (*Document, Check) {
	fail := func(message string) (*Document, Check) {
		return nil, Check{Name: CheckStructure, Passed: false, Message: message}
	}
	if raw == nil {
		return fail("did: document is unavailable")
	}
	id, ok := raw["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return fail("did: document id must be a non-empty string")
	}
	var methods []any
	if value := raw["verificationMethod"]; value != nil {
		list, ok := value.([]any)
		if !ok {
			return fail("did: document verificationMethod must be an array")
		}
		methods = list
	}
	for index, entry := range methods {
		method, ok := entry.(map[string]any)
		if !ok {
			return fail(fmt.Sprintf("did: verificationMethod[%d] must be an object", index))
		}
		if methodID, ok := method["id"].(string); !ok || strings.TrimSpace(methodID) == "" {
			return fail(fmt.Sprintf("did: verificationMethod[%d].id must be a non-empty string", index))
		}
		if jwk, present := method["publicKeyJwk"]; present {
			if _, ok := jwk.(map[string]any); !ok {
				return fail(fmt.Sprintf("did: verificationMethod[%d].publicKeyJwk must be an object", index))
			}
		}
	}
	doc, err := DocumentFromMap(raw)
	if err != nil {
		return fail(err.Error())
	}
	return &doc, Check{Name: CheckStructure, Passed: true}
}

func checkIdentityMatch(doc *Document, requested string) Check {
	if doc == nil {
		return Check{Name: CheckIdentityMatch, Passed: false, Message: "did: document is unavailable"}
	}
	if doc.ID != requested {
		return Check{
			Name:    CheckIdentityMatch,
			Passed:  false,
			Message: fmt.Sprintf("did: document id %q does not match requested %q", doc.ID, requested),
		}
	}
	return Check{Name: CheckIdentityMatch, Passed: true}
}

// checkKeyMaterial passes when no provider keys are presented and the lookup
// did not fail.
func checkKeyMaterial(doc *Document, providerKeyIDs []string, lookupErr error) Check {
	if lookupErr != nil {
		return Check{
			Name:    CheckKeyMaterial,
			Passed:  false,
			Message: fmt.Sprintf("did: provider key lookup failed: %v", lookupErr),
		}
	}
	keys := lo.Uniq(lo.Compact(lo.Map(providerKeyIDs, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	if len(keys) == 0 {
		return Check{
			Name:    CheckKeyMaterial,
			Passed:  true,
			Message: "no provider keys presented; key material not compared",
		}
	}
	if doc == nil {
		return Check{Name: CheckKeyMaterial, Passed: false, Message: "did: document is unavailable"}
	}

	documentKeys := make([]string, 0, len(doc.VerificationMethod)*2)
	for _, method := range doc.VerificationMethod {
		if method.PublicKeyJwk != nil && method.PublicKeyJwk.Kid != "" {
			documentKeys = append(documentKeys, method.PublicKeyJwk.Kid)
		}
		if fragment := method.Fragment(); fragment != "" {
			documentKeys = append(documentKeys, fragment)
		}
	}
	matched := lo.Intersect(keys, documentKeys)
	if len(matched) == 0 {
		return Check{
			Name:    CheckKeyMaterial,
			Passed:  false,
			Message: fmt.Sprintf("did: none of the provider keys %v appear in verificationMethod", keys),
		}
	}
	return Check{
		Name:    CheckKeyMaterial,
		Passed:  true,
		Message: fmt.Sprintf("matched %d of %d provider keys", len(matched), len(keys)),
	}
}

func checkJSONLD(ctx context.Context, validator LDValidator, raw map[string]any) Check {
	if raw == nil {
		return Check{Name: CheckJSONLDValidity, Passed: false, Message: "did: document is unavailable"}
	}
	if validator == nil {
		return Check{Name: CheckJSONLDValidity, Passed: false, Message: "did: jsonld validator is not configured"}
	}
	if err := validator.ValidateJSONLD(ctx, raw); err != nil {
		return Check{Name: CheckJSONLDValidity, Passed: false, Message: err.Error()}
	}
	return Check{Name: CheckJSONLDValidity, Passed: true}
}

package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-service-adapters/did"
)

// VerifyDID resolves the tenant's DID adapter, collects the key ids it holds
// for the DID and runs the verification checks against the published
// document. Resolution problems are returned as errors. Document problems and
// provider key lookup failures are reported as failed checks.
func (s *Service) VerifyDID(ctx context.Context, req VerifyDIDRequest) (result did.Result, err error) {
	if s == nil {
		return did.Result{}, fmt.Errorf("core: service is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now().UTC()
	req.DID = strings.TrimSpace(req.DID)
	fields := map[string]any{
		"tenant_id":    strings.TrimSpace(req.TenantID),
		"service_type": string(ServiceTypeDID),
		"did":          req.DID,
	}
	defer func() {
		if err == nil {
			fields["verified"] = result.Verified
			fields["failed_checks"] = len(result.Errors)
		}
		s.observeOperation(ctx, startedAt, "verify_did", err, fields)
	}()

	if err := req.Validate(); err != nil {
		return did.Result{}, err
	}
	parsed, err := did.ParseDID(req.DID)
	if err != nil {
		return did.Result{}, err
	}
	fields["did_method"] = parsed.Method
	if !slices.Contains(s.didVerifier.Methods(), parsed.Method) {
		return did.Result{}, &did.MethodNotSupportedError{Method: parsed.Method}
	}

	adapter, err := s.ResolveDID(ctx, req.TenantID, req.InstanceID)
	if err != nil {
		return did.Result{}, err
	}
	keyIDs, lookupErr := adapter.KeyIDs(ctx, req.DID)
	if lookupErr != nil {
		fields["key_lookup_failed"] = true
		s.logError(ctx, "provider key lookup failed", map[string]any{
			"tenant_id": strings.TrimSpace(req.TenantID),
			"did":       req.DID,
			"error":     lookupErr.Error(),
		})
	}

	return s.didVerifier.Verify(ctx, did.VerifyRequest{DID: req.DID, KeyIDs: keyIDs, KeyLookupError: lookupErr})
}

package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-service-adapters/core"
)

type SecretProviderFailurePolicy string

const (
	SecretProviderFailurePolicyStrict   SecretProviderFailurePolicy = "strict_fail"
	SecretProviderFailurePolicyFallback SecretProviderFailurePolicy = "fallback_allowed"
)

const (
	OutcomePrimaryFailed     = "primary_failed"
	OutcomeFallbackFailed    = "fallback_failed"
	OutcomeFallbackSucceeded = "fallback_succeeded"
)

// SecretProviderDiagnostic describes one failed or recovered attempt.
// Provider labels carry the key id when the provider exposes one.
type SecretProviderDiagnostic struct {
	OccurredAt time.Time
	Operation  string
	Policy     SecretProviderFailurePolicy
	Outcome    string
	Primary    string
	Fallback   string
	Error      string
}

type SecretProviderDiagnosticHook func(event SecretProviderDiagnostic)

type FailoverOption func(*FailoverSecretProvider)

// FailoverSecretProvider seals with the primary key only. Under the fallback
// policy Decrypt walks the retired providers in order, which keeps configs
// stored under a rotated key readable until they are re-registered.
type FailoverSecretProvider struct {
	primary core.SecretProvider
	retired []core.SecretProvider
	policy  SecretProviderFailurePolicy
	observe SecretProviderDiagnosticHook
	now     func() time.Time
}

func NewFailoverSecretProvider(primary core.SecretProvider, opts ...FailoverOption) (*FailoverSecretProvider, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret provider is required")
	}
	p := &FailoverSecretProvider{primary: primary, policy: SecretProviderFailurePolicyStrict}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	switch SecretProviderFailurePolicy(strings.ToLower(strings.TrimSpace(string(p.policy)))) {
	case SecretProviderFailurePolicyFallback:
		p.policy = SecretProviderFailurePolicyFallback
	default:
		p.policy = SecretProviderFailurePolicyStrict
	}
	if p.policy == SecretProviderFailurePolicyFallback && len(p.retired) == 0 {
		return nil, fmt.Errorf("security: fallback policy requires at least one retired secret provider")
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// WithFallbackSecretProvider appends a retired provider. Order of options is
// the order Decrypt tries them in.
func WithFallbackSecretProvider(providers ...core.SecretProvider) FailoverOption {
	return func(p *FailoverSecretProvider) {
		for _, provider := range providers {
			if provider != nil {
				p.retired = append(p.retired, provider)
			}
		}
	}
}

func WithSecretProviderFailurePolicy(policy SecretProviderFailurePolicy) FailoverOption {
	return func(p *FailoverSecretProvider) {
		p.policy = policy
	}
}

func WithSecretProviderDiagnostics(hook SecretProviderDiagnosticHook) FailoverOption {
	return func(p *FailoverSecretProvider) {
		p.observe = hook
	}
}

func WithFailoverClock(now func() time.Time) FailoverOption {
	return func(p *FailoverSecretProvider) {
		p.now = now
	}
}

func (p *FailoverSecretProvider) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if p == nil || p.primary == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	sealed, err := p.primary.Encrypt(ctx, plaintext)
	if err != nil {
		p.report("encrypt", OutcomePrimaryFailed, nil, err)
		return nil, err
	}
	return sealed, nil
}

func (p *FailoverSecretProvider) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil || p.primary == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("security: ciphertext is required")
	}

	opened, primaryErr := p.primary.Decrypt(ctx, ciphertext)
	if primaryErr == nil {
		return opened, nil
	}
	p.report("decrypt", OutcomePrimaryFailed, nil, primaryErr)
	if p.policy != SecretProviderFailurePolicyFallback {
		return nil, fmt.Errorf("security: primary decrypt failed with %s policy: %w", p.policy, primaryErr)
	}

	failures := []error{primaryErr}
	for _, retired := range p.retired {
		opened, err := retired.Decrypt(ctx, ciphertext)
		if err != nil {
			p.report("decrypt", OutcomeFallbackFailed, retired, err)
			failures = append(failures, err)
			continue
		}
		p.report("decrypt", OutcomeFallbackSucceeded, retired, primaryErr)
		return opened, nil
	}
	return nil, fmt.Errorf("security: no key could open the envelope: %w", errors.Join(failures...))
}

// KeyID reports the primary key id, the one new envelopes are sealed with.
func (p *FailoverSecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return providerKeyID(p.primary)
}

func (p *FailoverSecretProvider) report(operation string, outcome string, fallback core.SecretProvider, err error) {
	if p.observe == nil {
		return
	}
	event := SecretProviderDiagnostic{
		OccurredAt: p.now().UTC(),
		Operation:  operation,
		Policy:     p.policy,
		Outcome:    outcome,
		Primary:    providerLabel(p.primary),
		Fallback:   providerLabel(fallback),
	}
	if err != nil {
		event.Error = err.Error()
	}
	p.observe(event)
}

func providerKeyID(provider core.SecretProvider) string {
	if identified, ok := provider.(interface{ KeyID() string }); ok {
		return strings.TrimSpace(identified.KeyID())
	}
	return ""
}

func providerLabel(provider core.SecretProvider) string {
	if provider == nil {
		return ""
	}
	label := fmt.Sprintf("%T", provider)
	if keyID := providerKeyID(provider); keyID != "" {
		return label + "(" + keyID + ")"
	}
	return label
}

var _ core.SecretProvider = (*FailoverSecretProvider)(nil)

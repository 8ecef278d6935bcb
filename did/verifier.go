package did

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	CheckResolution     = "resolution"
	CheckStructure      = "structure"
	CheckIdentityMatch  = "identity_match"
	CheckKeyMaterial    = "key_material"
	CheckJSONLDValidity = "jsonld_validity"

	defaultRequestTimeout   = 10 * time.Second
	defaultMaxDocumentBytes = 1 << 20 // 1 MiB
)

type Check struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

type Result struct {
	Verified bool    `json:"verified"`
	Checks   []Check `json:"checks"`
	Errors   []Check `json:"errors,omitempty"`
}

// FailedCheck returns the named check if it failed.
func (r Result) FailedCheck(name string) (Check, bool) {
	for _, check := range r.Errors {
		if check.Name == name {
			return check, true
		}
	}
	return Check{}, false
}

type VerifyRequest struct {
	DID string
	// KeyIDs are the key identifiers the issuing provider holds for DID.
	KeyIDs []string
	// KeyLookupError is set when the provider could not list its keys. The
	// key material check fails with it; the other checks still run.
	KeyLookupError error
}

// Resolution is what a method verifier fetched for a DID. Document is nil
// when nothing usable came back.
type Resolution struct {
	Document map[string]any
	Location string
}

// MethodVerifier resolves DIDs of a single method. Returning an error that
// wraps ErrMethodNotSupported aborts verification; any other error becomes a
// failed resolution check.
type MethodVerifier interface {
	Method() string
	Resolve(ctx context.Context, id DID) (Resolution, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	HTTPClient       HTTPDoer
	RequestTimeout   time.Duration
	MaxDocumentBytes int64
	LDValidator      LDValidator
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	if c.LDValidator == nil {
		c.LDValidator = NewJSONLDValidator(
			c.HTTPClient,
			WithContextTimeout(c.RequestTimeout),
			WithContextMaxBytes(c.MaxDocumentBytes),
		)
	}
	return c
}

// Verifier runs the verification state machine:
// resolution, structure, identity_match, key_material, jsonld_validity.
type Verifier struct {
	methods     map[string]MethodVerifier
	ldValidator LDValidator
}

func NewVerifier(cfg Config, methods ...MethodVerifier) (*Verifier, error) {
	cfg = cfg.withDefaults()
	registered := make(map[string]MethodVerifier, len(methods))
	for _, method := range methods {
		if method == nil {
			return nil, fmt.Errorf("did: method verifier is nil")
		}
		name := strings.TrimSpace(method.Method())
		if name == "" {
			return nil, fmt.Errorf("did: method verifier name is required")
		}
		if _, exists := registered[name]; exists {
			return nil, fmt.Errorf("did: method verifier already registered: %s", name)
		}
		registered[name] = method
	}
	return &Verifier{methods: registered, ldValidator: cfg.LDValidator}, nil
}

// DefaultVerifier registers did:web and the did:webvh placeholder.
func DefaultVerifier(cfg Config) *Verifier {
	cfg = cfg.withDefaults()
	verifier, err := NewVerifier(cfg, NewWebMethod(cfg), WebVHMethod{})
	if err != nil {
		panic(err)
	}
	return verifier
}

func (v *Verifier) Methods() []string {
	if v == nil {
		return nil
	}
	names := make([]string, 0, len(v.methods))
	for name := range v.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (Result, error) {
	if v == nil {
		return Result{}, fmt.Errorf("did: verifier is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requested := strings.TrimSpace(req.DID)
	id, err := ParseDID(requested)
	if err != nil {
		return Result{}, err
	}
	method, ok := v.methods[id.Method]
	if !ok {
		return Result{}, &MethodNotSupportedError{Method: id.Method}
	}

	resolution, resolveErr := method.Resolve(ctx, id)
	if errors.Is(resolveErr, ErrMethodNotSupported) {
		return Result{}, resolveErr
	}

	checks := make([]Check, 0, 5)
	checks = append(checks, resolutionCheck(resolution, resolveErr))

	document, structure := checkStructure(resolution.Document)
	checks = append(checks, structure)
	checks = append(checks, checkIdentityMatch(document, requested))
	checks = append(checks, checkKeyMaterial(document, req.KeyIDs, req.KeyLookupError))
	checks = append(checks, checkJSONLD(ctx, v.ldValidator, resolution.Document))

	return aggregate(checks), nil
}

func aggregate(checks []Check) Result {
	result := Result{Verified: len(checks) > 0, Checks: checks}
	for _, check := range checks {
		if check.Passed {
			continue
		}
		result.Verified = false
		result.Errors = append(result.Errors, check)
	}
	return result
}

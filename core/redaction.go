package core

import (
	"strings"

	"github.com/samber/lo"
)

const RedactedValue = "[REDACTED]"

// Redactor masks values whose key mentions a secret. Keys in Keep are
// identifiers needed to trace an operation and are never masked.
type Redactor struct {
	Sensitive []string
	Keep      map[string]struct{}
}

var defaultRedactor = Redactor{
	Sensitive: []string{
		"password", "secret", "token", "authorization", "credential",
		"api_key", "apikey", "access_key", "accesskey", "encryption_key",
		"config", "plaintext", "ciphertext",
	},
	Keep: map[string]struct{}{
		"tenant_id": {}, "instance_id": {}, "service_type": {}, "adapter_type": {},
		"stage": {}, "did": {}, "did_method": {}, "trace_id": {}, "request_id": {},
	},
}

// RedactSensitiveMap returns a masked deep copy of metadata. It never
// returns nil.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	return defaultRedactor.Map(metadata)
}

func (r Redactor) Map(source map[string]any) map[string]any {
	out := make(map[string]any, len(source))
	for key, value := range source {
		if r.masks(key) {
			out[key] = RedactedValue
		} else {
			out[key] = r.value(value)
		}
	}
	return out
}

func (r Redactor) value(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return r.Map(typed)
	case []any:
		return lo.Map(typed, func(item any, _ int) any { return r.value(item) })
	default:
		return value
	}
}

func (r Redactor) masks(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	if _, keep := r.Keep[key]; keep {
		return false
	}
	return lo.ContainsBy(r.Sensitive, func(token string) bool {
		return strings.Contains(key, token)
	})
}

package providers

import (
	"fmt"
	"strings"
)

// ReadString returns the trimmed string under key, or "" when absent.
func ReadString(config map[string]any, key string) string {
	if len(config) == 0 {
		return ""
	}
	value, ok := config[key]
	if !ok || value == nil {
		return ""
	}
	if typed, ok := value.(string); ok {
		return strings.TrimSpace(typed)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func RequireString(config map[string]any, key string) (string, error) {
	value := ReadString(config, key)
	if value == "" {
		return "", fmt.Errorf("providers: %s is required", key)
	}
	return value, nil
}

func ReadBool(config map[string]any, key string) bool {
	value, ok := config[key]
	if !ok || value == nil {
		return false
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(strings.TrimSpace(typed), "true")
	default:
		return false
	}
}

package did

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	MethodWeb   = "web"
	MethodWebVH = "webvh"
)

var (
	methodPattern     = regexp.MustCompile(`^[a-z0-9]+$`)
	idCharPattern     = regexp.MustCompile(`^(?:[A-Za-z0-9._:-]|%[0-9A-Fa-f]{2})+$`)
	aliasPattern      = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	domainNamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9.-]*[A-Za-z0-9])?$`)
)

// DID is a parsed decentralized identifier.
type DID struct {
	Method           string
	MethodSpecificID string
}

func (d DID) String() string {
	return "did:" + d.Method + ":" + d.MethodSpecificID
}

// MethodOf returns the method of a DID, e.g. "web" for "did:web:example.com".
func MethodOf(value string) (string, error) {
	parsed, err := ParseDID(value)
	if err != nil {
		return "", err
	}
	return parsed.Method, nil
}

func ParseDID(value string) (DID, error) {
	input := strings.TrimSpace(value)
	if input == "" {
		return DID{}, &ParseError{Input: value, Reason: "identifier is required"}
	}
	if !strings.HasPrefix(input, "did:") {
		return DID{}, &ParseError{Input: value, Reason: `missing "did:" scheme`}
	}
	method, specific, found := strings.Cut(strings.TrimPrefix(input, "did:"), ":")
	if !found || method == "" {
		return DID{}, &ParseError{Input: value, Reason: "missing method"}
	}
	if !methodPattern.MatchString(method) {
		return DID{}, &ParseError{Input: value, Reason: "method must be lowercase alphanumeric"}
	}
	if specific == "" {
		return DID{}, &ParseError{Input: value, Reason: "missing method specific identifier"}
	}
	if strings.HasSuffix(specific, ":") || !idCharPattern.MatchString(specific) {
		return DID{}, &ParseError{Input: value, Reason: "malformed method specific identifier"}
	}
	return DID{Method: method, MethodSpecificID: specific}, nil
}

// ValidateAlias checks a single did:web path segment.
func ValidateAlias(alias string) error {
	trimmed := strings.TrimSpace(alias)
	if trimmed == "" {
		return &InputError{Field: "alias", Reason: "alias is required"}
	}
	if !aliasPattern.MatchString(trimmed) {
		return &InputError{Field: "alias", Reason: "alias may only contain letters, digits, '.', '-' and '_'"}
	}
	return nil
}

// WebDID builds a did:web identifier from a host (optionally host:port) and
// path segments.
func WebDID(host string, segments ...string) (string, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return "", &InputError{Field: "domain", Reason: "domain is required"}
	}
	domain, port, hasPort := strings.Cut(trimmed, ":")
	if !domainNamePattern.MatchString(domain) {
		return "", &InputError{Field: "domain", Reason: "domain is not a valid host name"}
	}
	encoded := domain
	if hasPort {
		if port == "" || strings.Trim(port, "0123456789") != "" {
			return "", &InputError{Field: "domain", Reason: "port must be numeric"}
		}
		encoded += "%3A" + port
	}
	parts := []string{"did", MethodWeb, encoded}
	for _, segment := range segments {
		if err := ValidateAlias(segment); err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(segment))
	}
	return strings.Join(parts, ":"), nil
}

// WebURL maps a did:web identifier to the HTTPS location of its document.
func WebURL(value string) (string, error) {
	parsed, err := ParseDID(value)
	if err != nil {
		return "", err
	}
	if parsed.Method != MethodWeb {
		return "", &ParseError{Input: value, Reason: "not a did:web identifier"}
	}
	segments := strings.Split(parsed.MethodSpecificID, ":")
	host, err := url.PathUnescape(segments[0])
	if err != nil {
		return "", &ParseError{Input: value, Reason: "domain is not valid percent-encoding"}
	}
	if host == "" || strings.ContainsAny(host, "/?#@") {
		return "", &ParseError{Input: value, Reason: "domain is invalid"}
	}

	if len(segments) == 1 {
		return "https://" + host + "/.well-known/did.json", nil
	}
	for _, segment := range segments[1:] {
		if segment == "" {
			return "", &ParseError{Input: value, Reason: "empty path segment"}
		}
	}
	return "https://" + host + "/" + strings.Join(segments[1:], "/") + "/did.json", nil
}

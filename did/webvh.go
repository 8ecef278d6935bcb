package did

import "context"

// WebVHMethod is registered so did:webvh identifiers parse and route, but
// verification is not implemented yet. Every call fails with
// MethodNotSupportedError.
type WebVHMethod struct{}

func (WebVHMethod) Method() string { return MethodWebVH }

func (WebVHMethod) Resolve(context.Context, DID) (Resolution, error) {
	return Resolution{}, &MethodNotSupportedError{
		Method: MethodWebVH,
		Reason: "for verification",
	}
}

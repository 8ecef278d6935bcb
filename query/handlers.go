package query

import (
	"context"

	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/did"
)

type AdapterResolver interface {
	Resolve(ctx context.Context, req core.ResolveRequest) (core.Resolution, error)
}

type DIDVerificationService interface {
	VerifyDID(ctx context.Context, req core.VerifyDIDRequest) (did.Result, error)
}

type ResolveServiceQuery struct {
	resolver AdapterResolver
}

func NewResolveServiceQuery(resolver AdapterResolver) *ResolveServiceQuery {
	return &ResolveServiceQuery{resolver: resolver}
}

func (q *ResolveServiceQuery) Query(ctx context.Context, msg ResolveAdapterMessage) (core.Resolution, error) {
	if q == nil || q.resolver == nil {
		return core.Resolution{}, core.MissingDependencyError("query: adapter resolver")
	}
	return q.resolver.Resolve(ctx, msg.Request())
}

type VerifyDIDQuery struct {
	service DIDVerificationService
}

func NewVerifyDIDQuery(service DIDVerificationService) *VerifyDIDQuery {
	return &VerifyDIDQuery{service: service}
}

func (q *VerifyDIDQuery) Query(ctx context.Context, msg VerifyDIDMessage) (did.Result, error) {
	if q == nil || q.service == nil {
		return did.Result{}, core.MissingDependencyError("query: did verification service")
	}
	return q.service.VerifyDID(ctx, msg.Request())
}

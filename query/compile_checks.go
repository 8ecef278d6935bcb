package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/did"
)

var (
	_ gocmd.Querier[ResolveAdapterMessage, core.Resolution] = (*ResolveServiceQuery)(nil)
	_ gocmd.Querier[VerifyDIDMessage, did.Result]           = (*VerifyDIDQuery)(nil)

	_ AdapterResolver        = (*core.Service)(nil)
	_ DIDVerificationService = (*core.Service)(nil)
)

package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-service-adapters/core"
)

var (
	_ gocmd.Commander[RegisterInstanceMessage] = (*RegisterInstanceCommand)(nil)
	_ gocmd.Commander[ProvisionDIDMessage]     = (*ProvisionDIDCommand)(nil)
	_ gocmd.Commander[StoreObjectMessage]      = (*StoreObjectCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)

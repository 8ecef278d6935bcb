package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-service-adapters/core"
)

type MutatingService interface {
	RegisterInstance(ctx context.Context, req core.RegisterInstanceRequest) (core.ServiceInstance, error)
	ProvisionDID(ctx context.Context, req core.ProvisionDIDRequest) (core.CreatedDID, error)
	StoreObject(ctx context.Context, req core.StoreObjectRequest) (core.StoredObject, error)
}

type RegisterInstanceCommand struct {
	service MutatingService
}

func NewRegisterInstanceCommand(service MutatingService) *RegisterInstanceCommand {
	return &RegisterInstanceCommand{service: service}
}

func (c *RegisterInstanceCommand) Execute(ctx context.Context, msg RegisterInstanceMessage) error {
	if c == nil || c.service == nil {
		return core.MissingDependencyError("command: instance registration service")
	}
	out, err := c.service.RegisterInstance(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ProvisionDIDCommand struct {
	service MutatingService
}

func NewProvisionDIDCommand(service MutatingService) *ProvisionDIDCommand {
	return &ProvisionDIDCommand{service: service}
}

func (c *ProvisionDIDCommand) Execute(ctx context.Context, msg ProvisionDIDMessage) error {
	if c == nil || c.service == nil {
		return core.MissingDependencyError("command: did provisioning service")
	}
	out, err := c.service.ProvisionDID(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StoreObjectCommand struct {
	service MutatingService
}

func NewStoreObjectCommand(service MutatingService) *StoreObjectCommand {
	return &StoreObjectCommand{service: service}
}

func (c *StoreObjectCommand) Execute(ctx context.Context, msg StoreObjectMessage) error {
	if c == nil || c.service == nil {
		return core.MissingDependencyError("command: storage service")
	}
	out, err := c.service.StoreObject(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

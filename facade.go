package services

import (
	"fmt"

	servicescommand "github.com/goliatone/go-service-adapters/command"
	servicesquery "github.com/goliatone/go-service-adapters/query"
)

type CommandQueryService interface {
	servicescommand.MutatingService
	servicesquery.AdapterResolver
	servicesquery.DIDVerificationService
}

type Commands struct {
	RegisterInstance *servicescommand.RegisterInstanceCommand
	ProvisionDID     *servicescommand.ProvisionDIDCommand
	StoreObject      *servicescommand.StoreObjectCommand
}

type Queries struct {
	ResolveAdapter *servicesquery.ResolveServiceQuery
	VerifyDID      *servicesquery.VerifyDIDQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("services: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		RegisterInstance: servicescommand.NewRegisterInstanceCommand(service),
		ProvisionDID:     servicescommand.NewProvisionDIDCommand(service),
		StoreObject:      servicescommand.NewStoreObjectCommand(service),
	}
	facade.queries = Queries{
		ResolveAdapter: servicesquery.NewResolveServiceQuery(service),
		VerifyDID:      servicesquery.NewVerifyDIDQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

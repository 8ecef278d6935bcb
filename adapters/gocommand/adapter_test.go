package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	servicecommand "github.com/goliatone/go-service-adapters/command"
	"github.com/goliatone/go-service-adapters/core"
	"github.com/goliatone/go-service-adapters/did"
	servicequery "github.com/goliatone/go-service-adapters/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "services.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "services.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "services.command.test" }

type stubServiceHandlers struct {
	registered []core.RegisterInstanceRequest
	resolved   []core.ResolveRequest
}

func (s *stubServiceHandlers) RegisterInstance(_ context.Context, req core.RegisterInstanceRequest) (core.ServiceInstance, error) {
	s.registered = append(s.registered, req)
	return core.ServiceInstance{ID: "inst_1", TenantID: req.TenantID}, nil
}

func (s *stubServiceHandlers) ProvisionDID(context.Context, core.ProvisionDIDRequest) (core.CreatedDID, error) {
	return core.CreatedDID{DID: "did:web:example.com:issuer"}, nil
}

func (s *stubServiceHandlers) StoreObject(context.Context, core.StoreObjectRequest) (core.StoredObject, error) {
	return core.StoredObject{Key: "k"}, nil
}

func (s *stubServiceHandlers) Resolve(_ context.Context, req core.ResolveRequest) (core.Resolution, error) {
	s.resolved = append(s.resolved, req)
	return core.Resolution{InstanceID: "inst_1", TenantID: req.TenantID, AdapterType: "VCKIT"}, nil
}

func (s *stubServiceHandlers) VerifyDID(context.Context, core.VerifyDIDRequest) (did.Result, error) {
	return did.Result{Verified: true}, nil
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(servicequery.VerifyDIDMessage{TenantID: "acme", DID: "did:web:example.com"}); err != nil {
		t.Fatalf("expected service query message to satisfy contract, got %v", err)
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	subscription, err := RegisterAndSubscribe(adapter, cmd)
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	t.Cleanup(subscription.Unsubscribe)
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestRegisterService_DispatchesCommandsAndQueries(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	svc := &stubServiceHandlers{}

	subscriptions, err := RegisterService(adapter, svc)
	if err != nil {
		t.Fatalf("register service: %v", err)
	}
	t.Cleanup(func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
	})
	if len(subscriptions) != 5 {
		t.Fatalf("expected 5 subscriptions, got %d", len(subscriptions))
	}

	err = Dispatch(context.Background(), servicecommand.RegisterInstanceMessage{Request: core.RegisterInstanceRequest{
		TenantID:    "acme",
		ServiceType: core.ServiceTypeDID,
		AdapterType: "VCKIT",
		Name:        "agent",
	}})
	if err != nil {
		t.Fatalf("dispatch register: %v", err)
	}
	if len(svc.registered) != 1 || svc.registered[0].TenantID != "acme" {
		t.Fatalf("expected register to reach service, got %#v", svc.registered)
	}

	resolution, err := Query[servicequery.ResolveAdapterMessage, core.Resolution](context.Background(), servicequery.ResolveAdapterMessage{
		TenantID:    "acme",
		ServiceType: core.ServiceTypeDID,
	})
	if err != nil {
		t.Fatalf("query resolve: %v", err)
	}
	if resolution.InstanceID != "inst_1" || len(svc.resolved) != 1 {
		t.Fatalf("unexpected resolution %#v", resolution)
	}

	result, err := Query[servicequery.VerifyDIDMessage, did.Result](context.Background(), servicequery.VerifyDIDMessage{
		TenantID: "acme",
		DID:      "did:web:example.com",
	})
	if err != nil || !result.Verified {
		t.Fatalf("expected verified result, got %#v err=%v", result, err)
	}
}

func TestRegisterService_RequiresService(t *testing.T) {
	if _, err := RegisterService(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected missing service error")
	}
	var adapter *RegistryAdapter
	if _, err := RegisterService(adapter, &stubServiceHandlers{}); err == nil {
		t.Fatalf("expected missing registry error")
	}
}

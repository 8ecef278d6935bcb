package query

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-service-adapters/core"
)

func TestResolveAdapterMessage_ValidateReturnsRichError(t *testing.T) {
	err := (ResolveAdapterMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ServiceErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ServiceErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 || validation[0].Field != "tenant_id" {
		t.Fatalf("expected tenant_id validation field, got %#v", validation)
	}
}

func TestVerifyDIDMessage_WrongSchemeIsBadInput(t *testing.T) {
	err := (VerifyDIDMessage{TenantID: "acme", DID: "example.com"}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput || rich.Code != http.StatusBadRequest {
		t.Fatalf("unexpected envelope: category=%q code=%d", rich.Category, rich.Code)
	}
}

func TestVerifyDIDQuery_NilServiceReturnsRichError(t *testing.T) {
	var q *VerifyDIDQuery
	_, err := q.Query(context.Background(), VerifyDIDMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.ServiceErrorInternal || rich.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected envelope: text=%q code=%d", rich.TextCode, rich.Code)
	}
}

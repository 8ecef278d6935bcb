package providers

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-service-adapters/core"
)

var ErrProviderOperation = errors.New("providers: provider operation failed")

type ProviderError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ErrProviderOperation.Error()
	}
	msg := fmt.Sprintf("providers: %s %s failed", e.Provider, e.Operation)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrProviderOperation
	}
	return errors.Join(ErrProviderOperation, e.Cause)
}

func (e *ProviderError) ToServiceError() *goerrors.Error {
	err := goerrors.New(e.Error(), goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.ServiceErrorProviderOperationFailed)
	if e != nil {
		err = err.WithMetadata(map[string]any{
			"provider":    e.Provider,
			"operation":   e.Operation,
			"status_code": e.StatusCode,
		})
	}
	return err
}

var _ core.ServiceErrorConverter = (*ProviderError)(nil)

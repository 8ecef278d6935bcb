package did

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorMethodNotSupported = "DID_METHOD_NOT_SUPPORTED"
	ErrorParse              = "DID_PARSE_ERROR"
	ErrorInput              = "DID_INPUT_ERROR"
)

var (
	ErrMethodNotSupported = errors.New("did: method not supported")
	ErrInvalidDID         = errors.New("did: invalid identifier")
	ErrInvalidInput       = errors.New("did: invalid input")
)

// MethodNotSupportedError is returned before any network call when no
// verifier is registered for the method, and by registered methods that
// cannot be verified.
type MethodNotSupportedError struct {
	Method string
	Reason string
}

func (e *MethodNotSupportedError) Error() string {
	if e == nil {
		return ErrMethodNotSupported.Error()
	}
	msg := fmt.Sprintf("did: method %q not supported", e.Method)
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	return msg
}

func (e *MethodNotSupportedError) Unwrap() error { return ErrMethodNotSupported }

func (e *MethodNotSupportedError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorMethodNotSupported)
}

type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e == nil {
		return ErrInvalidDID.Error()
	}
	return fmt.Sprintf("did: invalid identifier %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidDID }

func (e *ParseError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorParse)
}

// InputError reports a bad alias, domain or path segment used to build a DID.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e == nil {
		return ErrInvalidInput.Error()
	}
	return fmt.Sprintf("did: invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func (e *InputError) ToServiceError() *goerrors.Error {
	return goerrors.NewValidation("did: invalid input", goerrors.FieldError{
		Field:   e.Field,
		Message: e.Reason,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorInput)
}

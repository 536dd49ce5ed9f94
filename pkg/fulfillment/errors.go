package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error codes of the fulfillment taxonomy.
const (
	CodeInvalidPackage          = "INVALID_PACKAGE"
	CodeNoDefaultSenderAddress  = "NO_DEFAULT_SENDER_ADDRESS"
	CodeMissingShippingAddress  = "MISSING_SHIPPING_ADDRESS"
	CodeNoServicesAvailable     = "NO_SERVICES_AVAILABLE"
	CodeServiceNotFound         = "SERVICE_NOT_FOUND"
	CodeShipmentCreationFailed  = "SHIPMENT_CREATION_FAILED"
	CodeMissingShipmentID       = "MISSING_SHIPMENT_ID"
	CodeDocumentRetrievalFailed = "DOCUMENT_RETRIEVAL_FAILED"
	CodeProviderNotFound        = "PROVIDER_NOT_FOUND"
)

// Error represents a fulfillment failure raised by a provider.
type Error struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := e.Code
	if e.Provider != "" {
		prefix = e.Provider + " " + e.Code
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error.
func NewError(provider, code, message string) *Error {
	return &Error{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Cause = err
	return &c
}

// WithStatusCode returns a copy of the error carrying an HTTP status code.
func (e *Error) WithStatusCode(code int) *Error {
	c := *e
	c.StatusCode = code
	return &c
}

// WithProvider returns a copy of the error attributed to provider.
func (e *Error) WithProvider(provider string) *Error {
	c := *e
	c.Provider = provider
	return &c
}

// WithMessage returns a copy of the error with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Sentinel errors; compare with errors.Is.
var (
	// ErrInvalidPackage indicates the aggregated package has no billable weight.
	ErrInvalidPackage = NewError("", CodeInvalidPackage, "invalid package").WithStatusCode(http.StatusBadRequest)

	// ErrNoDefaultSenderAddress indicates no pickup address could be resolved.
	ErrNoDefaultSenderAddress = NewError("", CodeNoDefaultSenderAddress, "default sender address not found").WithStatusCode(http.StatusBadRequest)

	// ErrMissingShippingAddress indicates the order has no shipping address.
	ErrMissingShippingAddress = NewError("", CodeMissingShippingAddress, "shipping address is required").WithStatusCode(http.StatusBadRequest)

	// ErrNoServicesAvailable indicates the quote returned no carrier service.
	ErrNoServicesAvailable = NewError("", CodeNoServicesAvailable, "no shipping services available").WithStatusCode(http.StatusUnprocessableEntity)

	// ErrServiceNotFound indicates the requested service is not among the quotes.
	ErrServiceNotFound = NewError("", CodeServiceNotFound, "selected service not found").WithStatusCode(http.StatusUnprocessableEntity)

	// ErrShipmentCreationFailed indicates the upstream shipment could not be created.
	ErrShipmentCreationFailed = NewError("", CodeShipmentCreationFailed, "error creating shipment").WithStatusCode(http.StatusBadGateway)

	// ErrMissingShipmentID indicates the fulfillment data carries no shipment id.
	ErrMissingShipmentID = NewError("", CodeMissingShipmentID, "missing shipment_id in fulfillment data").WithStatusCode(http.StatusBadRequest)

	// ErrDocumentRetrievalFailed indicates the shipment documents could not be fetched.
	ErrDocumentRetrievalFailed = NewError("", CodeDocumentRetrievalFailed, "failed to retrieve documents").WithStatusCode(http.StatusBadGateway)

	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = NewError("", CodeProviderNotFound, "provider not found").WithStatusCode(http.StatusNotFound)
)

// UpstreamError is implemented by errors raised by a provider's remote API.
type UpstreamError interface {
	error
	UpstreamStatus() int
}

// Retryabler is implemented by upstream errors that know whether a second
// attempt may succeed.
type Retryabler interface {
	Retryable() bool
}

// HTTPStatus maps err to the status code an API surface should answer with.
func HTTPStatus(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return fe.StatusCode
	}
	var ue UpstreamError
	if errors.As(err, &ue) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// IsRetryable returns true if a later attempt of the same call may succeed.
// Nothing in this module retries automatically; callers decide.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryabler
	if errors.As(err, &r) {
		return r.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

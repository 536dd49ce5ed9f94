package paccofacile

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

// HTTPError is returned when the API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error: %d - %s", e.StatusCode, e.Status)
}

// UpstreamStatus returns the HTTP status of the failed call.
func (e *HTTPError) UpstreamStatus() int {
	return e.StatusCode
}

// Retryable reports whether the call may succeed if repeated later.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// APIError is returned when a 2xx response carries an "errors" list, or when
// a typed call gets a body it cannot use.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return "paccofacile: unknown API error"
	}
	return "paccofacile: " + strings.Join(e.Messages, "; ")
}

// UpstreamStatus is 200: the call went through but was refused.
func (e *APIError) UpstreamStatus() int {
	return http.StatusOK
}

// Retryable is always false for application errors.
func (e *APIError) Retryable() bool {
	return false
}

// Provider specific errors.
var (
	ErrAccountNotFound      = fulfillment.NewError(ProviderID, "ACCOUNT_NOT_FOUND", "account not found").WithStatusCode(http.StatusNotFound)
	ErrCreditNotFound       = fulfillment.NewError(ProviderID, "CREDIT_NOT_FOUND", "credit not found").WithStatusCode(http.StatusNotFound)
	ErrInvalidLocalityQuery = fulfillment.NewError(ProviderID, "INVALID_LOCALITY_QUERY", "one of search or postal_code is required").WithStatusCode(http.StatusBadRequest)
	ErrMissingValidatedData = fulfillment.NewError(ProviderID, "MISSING_VALIDATED_DATA", "fulfillment data has not been validated").WithStatusCode(http.StatusBadRequest)
)

var (
	_ fulfillment.UpstreamError = (*HTTPError)(nil)
	_ fulfillment.UpstreamError = (*APIError)(nil)
)

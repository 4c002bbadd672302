package extract

import (
	"fmt"
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider string
	Status   int
	Code     string
	Message  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error (%d): %s - %s", e.Provider, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Message)
}

// StatusCode returns the HTTP status, used for rate-limit classification.
func (e *APIError) StatusCode() int {
	return e.Status
}

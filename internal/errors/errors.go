package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a Chess Genie error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrBusy              ErrorCode = "BUSY"               // 409
	ErrNoCards           ErrorCode = "NO_CARDS"           // 422
	ErrRateLimited       ErrorCode = "RATE_LIMITED"       // 429
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE" // 502
	ErrEmptyResponse     ErrorCode = "EMPTY_RESPONSE"     // 502
	ErrExtractionFailed  ErrorCode = "EXTRACTION_FAILED"  // 502
	ErrExportFailed      ErrorCode = "EXPORT_FAILED"      // 500
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// User-facing messages, one per extraction failure class.
const (
	MessageRateLimited      = "API Quota Exceeded. The extraction engine is currently busy. Please wait 10 seconds and try again."
	MessageExtractionFailed = "Extraction failed. Please ensure your PGN is valid and contains move annotations in {braces}."
)

// GenieError represents a structured error with code, status, and details.
type GenieError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *GenieError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *GenieError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GenieError {
	return &GenieError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an unknown resource such as an export format.
func NewNotFound(kind, identifier string) *GenieError {
	return &GenieError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewBusy creates a 409 error when an extraction is already in flight.
func NewBusy() *GenieError {
	return &GenieError{
		Code:    ErrBusy,
		Status:  409,
		Message: "an extraction is already in progress",
	}
}

// NewNoCards creates a 422 error when extraction produced an empty card list.
func NewNoCards() *GenieError {
	return &GenieError{
		Code:    ErrNoCards,
		Status:  422,
		Message: "no annotated positions found in the game record",
	}
}

// NewRateLimited creates a 429 error wrapping the provider's rate-limit response.
func NewRateLimited(err error) *GenieError {
	return &GenieError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: MessageRateLimited,
		Err:     err,
	}
}

// NewMalformedResponse creates a 502 error for extraction output that does not fit the card schema.
func NewMalformedResponse(reason string, err error) *GenieError {
	return &GenieError{
		Code:    ErrMalformedResponse,
		Status:  502,
		Message: "failed to interpret the extraction response: " + reason,
		Err:     err,
	}
}

// NewEmptyResponse creates a 502 error when the extraction backend returned no content.
func NewEmptyResponse() *GenieError {
	return &GenieError{
		Code:    ErrEmptyResponse,
		Status:  502,
		Message: "empty response from extraction engine",
	}
}

// NewExtractionFailed creates a 502 error for any other extraction failure.
func NewExtractionFailed(err error) *GenieError {
	return &GenieError{
		Code:    ErrExtractionFailed,
		Status:  502,
		Message: MessageExtractionFailed,
		Err:     err,
	}
}

// NewExportFailed creates a 500 error for a document generation failure.
func NewExportFailed(format string, err error) *GenieError {
	msg := fmt.Sprintf("export to %s failed", format)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &GenieError{
		Code:    ErrExportFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"format": format},
		Err:     err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GenieError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GenieError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error is a GenieError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GenieError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// rateLimitMarkers are substrings that identify quota exhaustion in provider payloads.
var rateLimitMarkers = []string{"429", "RESOURCE_EXHAUSTED", "quota"}

// IsRateLimit reports whether err signals a rate-limit or quota condition.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var gErr *GenieError
	if stderrors.As(err, &gErr) {
		switch gErr.Code {
		case ErrRateLimited:
			return true
		case ErrMalformedResponse, ErrEmptyResponse, ErrInvalidRequest:
			return false
		}
	}
	var sc statusCoder
	if stderrors.As(err, &sc) && sc.StatusCode() == 429 {
		return true
	}
	text := err.Error()
	for _, marker := range rateLimitMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// UserMessage returns the single human-readable message shown for an extraction failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsRateLimit(err) {
		return MessageRateLimited
	}
	var gErr *GenieError
	if stderrors.As(err, &gErr) {
		switch gErr.Code {
		case ErrInvalidRequest, ErrBusy, ErrNoCards:
			return gErr.Message
		}
	}
	return MessageExtractionFailed
}

// Classify converts any extraction error into a GenieError, preserving codes already set.
func Classify(err error) *GenieError {
	if err == nil {
		return nil
	}
	var gErr *GenieError
	if stderrors.As(err, &gErr) {
		return gErr
	}
	if IsRateLimit(err) {
		return NewRateLimited(err)
	}
	return NewExtractionFailed(err)
}

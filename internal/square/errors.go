package square

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sqcore "github.com/square/square-go-sdk/core"
)

// Error is one structured error detail returned by the provider.
type Error struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// APIError is returned for any non-2xx provider response.
type APIError struct {
	StatusCode int
	Operation  string
	Errors     []Error
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square %s: http %d", e.Operation, e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", se.Code, se.Detail))
	}
	return fmt.Sprintf("square %s: http %d: %s", e.Operation, e.StatusCode, strings.Join(parts, "; "))
}

// First returns the first structured error, or the zero value.
func (e *APIError) First() Error {
	if len(e.Errors) == 0 {
		return Error{}
	}
	return e.Errors[0]
}

// Message is the user-facing text: the first detail, falling back to its code.
func (e *APIError) Message() string {
	first := e.First()
	if first.Detail != "" {
		return first.Detail
	}
	return first.Code
}

// fromSDKError turns an SDK HTTP error into *APIError, decoding the
// provider's {"errors": [...]} body. Transport and context errors are
// wrapped unchanged.
func fromSDKError(operation string, err error) error {
	var coreErr *sqcore.APIError
	if !errors.As(err, &coreErr) {
		return fmt.Errorf("square %s: %w", operation, err)
	}

	apiErr := &APIError{StatusCode: coreErr.StatusCode, Operation: operation}
	if body := errors.Unwrap(coreErr); body != nil {
		var envelope struct {
			Errors []Error `json:"errors"`
		}
		if jsonErr := json.Unmarshal([]byte(body.Error()), &envelope); jsonErr == nil {
			apiErr.Errors = envelope.Errors
		}
	}
	return apiErr
}

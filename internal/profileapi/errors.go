package profileapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures of the profile API.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindNetwork    ErrorKind = "network"
	KindUnknown    ErrorKind = "unknown"
)

// conflictMarker is how the profile service words duplicate student ids when
// it does not answer with 409.
const conflictMarker = "already exists"

// APIError is returned for every failed profile API call.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("profile api %s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("profile api %s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("profile api %s (%d)", e.Kind, e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an API error, or KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsConflict reports whether err is a duplicate-profile failure.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsNotFound reports whether err means no profile is stored yet.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func classify(status int, message string) ErrorKind {
	if strings.Contains(message, conflictMarker) {
		return KindConflict
	}
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindUnknown
	}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

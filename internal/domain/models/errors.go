package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned when a provider name is not registered.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrDataFetch matches every *DataFetchError.
	ErrDataFetch = errors.New("data fetch failed")
	// ErrSchema matches every *SchemaError.
	ErrSchema = errors.New("schema error")
	// ErrInvalidParams matches every *ParamError.
	ErrInvalidParams = errors.New("invalid fetch params")
	// ErrBarNotFound signals an empty series on latest lookups.
	ErrBarNotFound = errors.New("bar not found")
)

// DataFetchError wraps any transport-level failure of a provider call.
type DataFetchError struct {
	Provider string
	Cause    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Cause)
}

func (e *DataFetchError) Unwrap() error { return e.Cause }

func (e *DataFetchError) Is(target error) bool { return target == ErrDataFetch }

// NewDataFetchError wraps cause for provider.
func NewDataFetchError(provider string, cause error) *DataFetchError {
	return &DataFetchError{Provider: provider, Cause: cause}
}

// SchemaError reports a structurally malformed envelope, or a record that
// cannot be coerced when validation is disabled. Row is -1 for envelope errors.
type SchemaError struct {
	Reason string
	Row    int
	Err    error
}

func (e *SchemaError) Error() string {
	msg := "schema: " + e.Reason
	if e.Row >= 0 {
		msg = fmt.Sprintf("%s (row %d)", msg, e.Row)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// ParamError reports a missing or invalid query parameter, detected before
// any network call.
type ParamError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: param %s: %s", e.Provider, e.Field, e.Reason)
}

func (e *ParamError) Is(target error) bool { return target == ErrInvalidParams }

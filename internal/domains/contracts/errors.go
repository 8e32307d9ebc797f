package contracts

import (
	"errors"
	"strings"
)

var (
	ErrAuthorizationDenied = errors.New("requester is not authorized")
	ErrEmptyBatch          = errors.New("no files collected")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrSessionExpired      = errors.New("session expired")
	ErrProcessingFailure   = errors.New("processing failed")
)

const (
	ErrorCategoryAPI       = "api"
	ErrorCategoryStorage   = "storage"
	ErrorCategoryTransport = "transport"
	ErrorCategoryEngine    = "engine"
)

// CategorizedError tags an error with the subsystem it came from so it can
// be counted per category.
type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func normalizeErrorCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case ErrorCategoryStorage:
		return ErrorCategoryStorage
	case ErrorCategoryTransport:
		return ErrorCategoryTransport
	case ErrorCategoryEngine:
		return ErrorCategoryEngine
	default:
		return ErrorCategoryAPI
	}
}

func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	var existing *CategorizedError
	if errors.As(err, &existing) {
		return &CategorizedError{
			Category: normalizeErrorCategory(existing.Category),
			Err:      err,
		}
	}
	return &CategorizedError{
		Category: normalizeErrorCategory(category),
		Err:      err,
	}
}

func ErrorCategory(err error) string {
	var classified *CategorizedError
	if errors.As(err, &classified) {
		return normalizeErrorCategory(classified.Category)
	}
	return ErrorCategoryAPI
}

// ProcessingError wraps an engine fault so callers can match
// ErrProcessingFailure while the cause stays reachable.
type ProcessingError struct {
	Kind string
	Err  error
}

func (e *ProcessingError) Error() string {
	if e == nil || e.Err == nil {
		return ErrProcessingFailure.Error()
	}
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrProcessingFailure, e.Err}
}

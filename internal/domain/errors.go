package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBudgetExhausted is returned when the per-run API call budget is spent
	ErrBudgetExhausted = errors.New("API call budget exhausted")

	// ErrAPIUnavailable is returned when no PA-API client is configured
	ErrAPIUnavailable = errors.New("product advertising API unavailable")

	// ErrThrottled is returned when the API rejected a call for exceeding its request rate
	ErrThrottled = errors.New("request throttled")

	// ErrPAAPIFailure is returned when a PA-API request fails for any other reason
	ErrPAAPIFailure = errors.New("PA-API request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRunInProgress is returned when a storefront build is already running
	ErrRunInProgress = errors.New("storefront run already in progress")

	// ErrInvalidConfig is returned when service construction receives unusable settings
	ErrInvalidConfig = errors.New("invalid configuration")
)

// APIErrorKind classifies PA-API failures
type APIErrorKind int

const (
	APIErrorUnknown APIErrorKind = iota
	APIErrorThrottled
	APIErrorAuth
	APIErrorInvalidRequest
	APIErrorNotFound
	APIErrorServer
	APIErrorTransport
)

func (k APIErrorKind) String() string {
	switch k {
	case APIErrorThrottled:
		return "throttled"
	case APIErrorAuth:
		return "auth"
	case APIErrorInvalidRequest:
		return "invalid_request"
	case APIErrorNotFound:
		return "not_found"
	case APIErrorServer:
		return "server"
	case APIErrorTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// APIError is the structured failure returned by the PA-API boundary
type APIError struct {
	Kind       APIErrorKind
	StatusCode int
	Code       string // PA-API error code, e.g. "TooManyRequests"
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("PA-API %s error", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match ErrThrottled or ErrPAAPIFailure
func (e *APIError) Unwrap() []error {
	sentinel := ErrPAAPIFailure
	if e.Kind == APIErrorThrottled {
		sentinel = ErrThrottled
	}
	if e.Err != nil {
		return []error{sentinel, e.Err}
	}
	return []error{sentinel}
}

// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Provider statuses with a meaning of their own. Any other non-OK status is
// reported verbatim.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

const unknownReason = "Unknown error"

// ResolutionError is returned when the provider answered with a non-OK status.
type ResolutionError struct {
	// Status is the provider status, possibly empty.
	Status string
	// Reason is the human readable cause: the provider's error_message, or
	// its status, or "Unknown error" when both are absent.
	Reason string
}

// NewResolutionError builds the error for a provider answer carrying status
// and an optional error_message.
func NewResolutionError(status, message string) *ResolutionError {
	reason := message
	if reason == "" {
		reason = status
	}

	if reason == "" {
		reason = unknownReason
	}

	return &ResolutionError{Status: status, Reason: reason}
}

func (e *ResolutionError) Error() string {
	return "Google Maps API error: " + e.Reason
}

// ErrorType classifies transport failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork the provider could not be reached.
	ErrorTypeNetwork
	// ErrorTypeTimeout the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeMalformedResponse the provider answer could not be understood.
	ErrorTypeMalformedResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// TransportError is returned when the provider could not be consulted.
type TransportError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newRequestError wraps an error returned by the HTTP client.
func newRequestError(err error) *TransportError {
	t := ErrorTypeNetwork

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		t = ErrorTypeTimeout
	}

	return &TransportError{Type: t, Message: "geocoding request failed", Err: err}
}

// IsResolutionError reports whether err is, or wraps, a *ResolutionError.
func IsResolutionError(err error) bool {
	var resErr *ResolutionError

	return errors.As(err, &resErr)
}

// IsNotFoundError reports whether the provider found no match for the address.
func IsNotFoundError(err error) bool {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Status == StatusZeroResults
	}

	return false
}

// IsQuotaExceededError reports whether the provider refused the request because
// the key ran out of quota.
func IsQuotaExceededError(err error) bool {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Status == StatusOverQueryLimit
	}

	return strings.Contains(strings.ToLower(err.Error()), "over_query_limit")
}

// IsTimeoutError reports whether err is a timeout talking to the provider.
func IsTimeoutError(err error) bool {
	var trErr *TransportError
	if errors.As(err, &trErr) {
		return trErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

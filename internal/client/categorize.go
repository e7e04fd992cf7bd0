package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (upstreamErrorsTotal).
const (
	ErrorCategoryTimeout     ErrorCategory = "timeout"
	ErrorCategoryNetwork     ErrorCategory = "network"
	ErrorCategoryBadRequest  ErrorCategory = "bad_request"
	ErrorCategoryRateLimited ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx ErrorCategory = "upstream_5xx"
	ErrorCategoryCircuitOpen ErrorCategory = "circuit_open"
	ErrorCategoryMalformed   ErrorCategory = "malformed_payload"
	ErrorCategoryUnknown     ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	if errors.Is(err, ErrCircuitOpen) {
		return ErrorCategoryCircuitOpen
	}

	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimited
	}

	if errors.Is(err, ErrBadRequest) {
		return ErrorCategoryBadRequest
	}

	if errors.Is(err, ErrUpstreamFailure) {
		return ErrorCategoryUpstream5xx
	}

	if errors.Is(err, ErrMalformedPayload) {
		return ErrorCategoryMalformed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return ErrorCategoryTimeout
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "http request failed") {
		return ErrorCategoryNetwork
	}

	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") {
		return ErrorCategoryMalformed
	}

	return ErrorCategoryUnknown
}

package core

import (
	"errors"
	"fmt"
)

// ForbiddenError indicates the server rejected the request outright
// (HTTP 403), usually possible IP blocking. Terminal for the session.
type ForbiddenError struct {
	Err error
}

func (e ForbiddenError) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ForbiddenError) Unwrap() error {
	return e.Err
}

// VerificationRequiredError indicates the server answered with a human
// verification challenge instead of the requested page. Terminal for
// the session.
type VerificationRequiredError struct {
	Err error
}

func (e VerificationRequiredError) Error() string {
	return fmt.Errorf("verification required: %w", e.Err).Error()
}

func (e VerificationRequiredError) Unwrap() error {
	return e.Err
}

// BlockedError indicates a temporary block page (rate limiting).
// Retried like any transient fault.
type BlockedError struct {
	Err error
}

func (e BlockedError) Error() string {
	return fmt.Errorf("blocked: %w", e.Err).Error()
}

func (e BlockedError) Unwrap() error {
	return e.Err
}

// NetworkError wraps transport-level failures (timeouts, resets).
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Errorf("network: %w", e.Err).Error()
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether the error means the session must stop
// issuing requests with the current credential until it is refreshed.
func IsTerminal(err error) bool {
	var forbidden ForbiddenError
	if errors.As(err, &forbidden) {
		return true
	}
	var verification VerificationRequiredError
	return errors.As(err, &verification)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var forbidden ForbiddenError
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var verification VerificationRequiredError
	if errors.As(err, &verification) {
		return "verification_required"
	}
	var blocked BlockedError
	if errors.As(err, &blocked) {
		return "blocked"
	}
	var network NetworkError
	if errors.As(err, &network) {
		return "network"
	}
	return "other"
}

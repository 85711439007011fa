// Package derrors provides coded domain errors for the bridge.
//
// Store adapters return sentinel errors (pkg/platform/sentinel) for
// infrastructure facts; the bridge translates them into coded errors here so
// the transport layer can map every failure onto the wire taxonomy without
// inspecting error strings.
package derrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind in the bridge's error taxonomy. Codes are
// stable wire-level identifiers; messages are free-form detail.
type Code string

const (
	CodeProductFetchFailed     Code = "product_fetch_failed"
	CodeProductNotFound        Code = "product_not_found"
	CodeNotASubscription       Code = "not_a_subscription"
	CodePurchasePending        Code = "purchase_pending"
	CodePurchaseCancelled      Code = "purchase_cancelled"
	CodePurchaseFailed         Code = "purchase_failed"
	CodeEligibilityCheckFailed Code = "eligibility_check_failed"
	CodeUnsupportedVersion     Code = "unsupported_platform_version"
	CodeRestoreFailed          Code = "restore_failed"
	CodeTransactionNotFound    Code = "transaction_not_found"
	CodeSyncFailed             Code = "sync_failed"
	CodeStorefrontUnavailable  Code = "storefront_unavailable"

	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error. It optionally wraps an underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match two coded errors by code and message, so tests can
// compare against a freshly constructed expectation.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Code == e.Code && te.Message == e.Message
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. Wrapping nil
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is a readability alias for HasCode used throughout tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when err
// carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

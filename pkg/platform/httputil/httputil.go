// Package httputil centralizes JSON response and error translation so every
// handler emits the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "storebridge/pkg/domain-errors"
)

// statusFor maps domain error codes onto HTTP statuses.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeProductNotFound, dErrors.CodeTransactionNotFound:
		return http.StatusNotFound
	case dErrors.CodeNotASubscription, dErrors.CodePurchaseFailed:
		return http.StatusUnprocessableEntity
	case dErrors.CodePurchasePending:
		return http.StatusAccepted
	case dErrors.CodePurchaseCancelled:
		return http.StatusConflict
	case dErrors.CodeUnsupportedVersion:
		return http.StatusNotImplemented
	case dErrors.CodeProductFetchFailed, dErrors.CodeEligibilityCheckFailed,
		dErrors.CodeSyncFailed, dErrors.CodeRestoreFailed:
		return http.StatusBadGateway
	case dErrors.CodeStorefrontUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a domain error as a JSON envelope. Internal errors omit
// the description so infrastructure detail never leaks to callers. Extra
// key/value pairs extend the envelope (e.g. a restore failure map).
func WriteError(w http.ResponseWriter, err error, extra ...map[string]any) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]any{"error": string(code)}
	if status != http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON renders v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

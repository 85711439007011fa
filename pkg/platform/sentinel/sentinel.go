package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store adapters return these
// (optionally wrapped) so the bridge can translate them into domain errors.
//
// These represent factual states about store-owned resources:
// - ErrNotFound: product or transaction does not exist in the store
// - ErrUnavailable: store service temporarily unreachable
// - ErrInvalidState: resource in the wrong state for the requested operation
//
// For caller mistakes (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)

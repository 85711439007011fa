package bridge

import (
	"context"
	"fmt"

	dErrors "storebridge/pkg/domain-errors"
)

// RestoreFailure records one entitlement entry that failed re-verification.
type RestoreFailure struct {
	Receipt string `json:"receipt,omitempty"`
	Cause   string `json:"cause"`
}

// RestoreError aggregates every entitlement entry that failed
// re-verification during one restoration walk, keyed by transaction id.
type RestoreError struct {
	Failures map[int64]RestoreFailure
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("%d transactions failed re-verification", len(e.Failures))
}

// RestorePurchases walks the full current-entitlements history. Every
// verified entry is pushed to the outbound channel on the same path as the
// live listener; unverified entries accumulate into a single failure report.
//
// Exactly one terminal signal per invocation: nil when the whole walk
// verified, or restore_failed carrying the failure map, never both.
func (b *Bridge) RestorePurchases(ctx context.Context) error {
	ctx, span := b.tracer.Start(ctx, "bridge.RestorePurchases")
	defer span.End()

	entitlements, err := b.store.CurrentEntitlements(ctx)
	if err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeRestoreFailed, "entitlement walk failed")
	}

	failures := make(map[int64]RestoreFailure)
	for _, res := range entitlements {
		txn, cause := normalize(res)
		if cause != nil {
			failures[res.Transaction.ID] = RestoreFailure{
				Receipt: res.Transaction.Receipt,
				Cause:   cause.Error(),
			}
			continue
		}
		b.publish(ctx, translate(txn))
	}

	if len(failures) > 0 {
		b.metrics.IncRestoreFailure()
		return dErrors.Wrap(&RestoreError{Failures: failures}, dErrors.CodeRestoreFailed, "some transactions failed re-verification")
	}
	return nil
}

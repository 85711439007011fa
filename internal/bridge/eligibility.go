package bridge

import (
	"context"
	"slices"

	"storebridge/internal/capability"
	"storebridge/internal/store"
	dErrors "storebridge/pkg/domain-errors"
)

// IsWinBackOfferEligible reports whether the current user qualifies for the
// win-back offer on the given subscription product.
//
// Eligibility is evidenced only by verified renewal-status records: an
// eligible-looking but unverified record never produces true.
func (b *Bridge) IsWinBackOfferEligible(ctx context.Context, productID, offerID string) (bool, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.IsWinBackOfferEligible")
	defer span.End()

	if !b.caps.Supports(capability.WinBackOffers) {
		return false, dErrors.New(dErrors.CodeUnsupportedVersion, "win-back offers require a newer store API version")
	}

	if _, err := b.resolveSubscription(ctx, productID); err != nil {
		return false, err
	}

	statuses, err := b.store.SubscriptionStatuses(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return false, dErrors.Wrap(err, dErrors.CodeEligibilityCheckFailed, "renewal status lookup failed")
	}

	for _, status := range statuses {
		if status.State != store.StateVerified {
			continue
		}
		if slices.Contains(status.Renewal.EligibleWinBackOfferIDs, offerID) {
			return true, nil
		}
	}
	return false, nil
}

// IsIntroductoryOfferEligible reports whether the current user qualifies for
// the product's introductory offer. The answer is store-computed, never
// derived locally.
func (b *Bridge) IsIntroductoryOfferEligible(ctx context.Context, productID string) (bool, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.IsIntroductoryOfferEligible")
	defer span.End()

	if _, err := b.resolveSubscription(ctx, productID); err != nil {
		return false, err
	}

	eligible, err := b.store.IsIntroOfferEligible(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return false, dErrors.Wrap(err, dErrors.CodeEligibilityCheckFailed, "introductory offer lookup failed")
	}
	return eligible, nil
}

// resolveSubscription resolves a product and requires it to carry
// subscription info.
func (b *Bridge) resolveSubscription(ctx context.Context, productID string) (store.Product, error) {
	product, err := b.resolveProduct(ctx, productID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeProductNotFound) {
			return store.Product{}, err
		}
		return store.Product{}, dErrors.Wrap(err, dErrors.CodeEligibilityCheckFailed, "product lookup failed")
	}
	if product.Subscription == nil {
		return store.Product{}, dErrors.Newf(dErrors.CodeNotASubscription, "product %q is not a subscription", productID)
	}
	return product, nil
}

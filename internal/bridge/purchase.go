package bridge

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"storebridge/internal/bridge/models"
	"storebridge/internal/capability"
	"storebridge/internal/store"
	dErrors "storebridge/pkg/domain-errors"
)

// Purchase resolves the product, composes the effective option set, submits
// the purchase, and interprets the store's verdict.
//
// Pending and cancelled are terminal outcomes distinct from success, not
// bridge failures; the transport layer maps them onto their own error kinds.
// A verified purchase is also emitted as a listener-style update so restoring
// listeners observe it too.
func (b *Bridge) Purchase(ctx context.Context, productID string, opts *models.PurchaseOptions) (models.PurchaseOutcome, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.Purchase")
	defer span.End()

	product, err := b.resolveProduct(ctx, productID)
	if err != nil {
		return models.PurchaseOutcome{}, err
	}

	params := b.buildParams(ctx, product, opts)

	result, err := b.store.Purchase(ctx, productID, params)
	if err != nil {
		span.RecordError(err)
		return models.PurchaseOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "purchase submit failed")
	}

	switch result.Kind {
	case store.PurchaseCompleted:
		txn, cause := normalize(result.Verification)
		if cause != nil {
			b.metrics.IncPurchase("failed")
			return models.PurchaseOutcome{}, dErrors.Wrap(cause, dErrors.CodePurchaseFailed, "transaction failed verification")
		}
		normalized := translate(txn)
		b.publish(ctx, normalized)
		b.metrics.IncPurchase("success")
		return models.PurchaseOutcome{Kind: models.OutcomeSuccess, Transaction: &normalized}, nil
	case store.PurchasePending:
		b.metrics.IncPurchase("pending")
		return models.PurchaseOutcome{Kind: models.OutcomePending}, nil
	case store.PurchaseCancelled:
		b.metrics.IncPurchase("cancelled")
		return models.PurchaseOutcome{Kind: models.OutcomeCancelled}, nil
	default:
		// Closed variant: an unrecognized store verdict must abort rather
		// than be coerced into a known outcome.
		panic(fmt.Sprintf("unhandled purchase result kind %d", result.Kind))
	}
}

// buildParams composes the effective purchase option set. Each option is
// best-effort: a malformed account token and any capability-gated option the
// platform cannot honor are dropped silently, never rejected.
func (b *Bridge) buildParams(ctx context.Context, product store.Product, opts *models.PurchaseOptions) store.PurchaseParams {
	var params store.PurchaseParams
	if opts == nil {
		return params
	}

	if opts.AppAccountToken != "" {
		token, err := uuid.Parse(opts.AppAccountToken)
		if err != nil {
			b.logger.DebugContext(ctx, "dropping malformed app account token", "error", err)
		} else {
			params.AppAccountToken = token
		}
	}

	if opts.PromotionalOffer != nil && b.caps.Supports(capability.PromotionalOffers) {
		params.PromotionalOffer = &store.PromotionalOffer{
			ID:        opts.PromotionalOffer.ID,
			Signature: opts.PromotionalOffer.Signature,
		}
	}

	if opts.WinBackOfferID != "" &&
		b.caps.Supports(capability.WinBackOffers) &&
		product.Subscription != nil &&
		slices.Contains(product.Subscription.EligibleWinBackOfferIDs, opts.WinBackOfferID) {
		params.WinBackOfferID = opts.WinBackOfferID
	}

	return params
}

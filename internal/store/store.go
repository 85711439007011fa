// Package store defines the platform commerce store at its interface
// boundary. The store owns the product catalog, transaction history, and
// entitlement state; the bridge never persists a copy of any of it.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product describes a purchasable product. Instances are created fresh per
// fetch and never cached across calls.
type Product struct {
	ID           string
	DisplayName  string
	Description  string
	Price        float64
	DisplayPrice string
	CurrencyCode string

	// Subscription is nil for non-subscription products.
	Subscription *SubscriptionInfo
}

// SubscriptionInfo carries the subscription facets of a product.
type SubscriptionInfo struct {
	GroupID string

	// EligibleWinBackOfferIDs lists the win-back offers the current user may
	// redeem right now. Store-computed; re-derived on every product fetch.
	EligibleWinBackOfferIDs []string

	HasIntroductoryOffer bool
}

// Transaction is a store-owned purchase record. The bridge re-derives it from
// the store's authoritative history on every lookup.
type Transaction struct {
	ID           int64
	OriginalID   int64
	ProductID    string
	PurchaseDate time.Time

	// Receipt is the raw signed payload backing this transaction, opaque to
	// the bridge.
	Receipt string

	Finished bool
}

// VerificationState tags a VerificationResult.
type VerificationState int

const (
	// StateVerified means the store's cryptographic attestation succeeded.
	StateVerified VerificationState = iota
	// StateUnverified means attestation failed; the transaction payload is
	// still present but must never be surfaced as trusted.
	StateUnverified
)

// VerificationResult is the store's attestation verdict for one transaction.
// It is a closed variant: consumers branch exhaustively on State.
type VerificationResult struct {
	State       VerificationState
	Transaction Transaction

	// Cause explains the rejection; non-nil exactly when State is
	// StateUnverified.
	Cause error
}

// Verified builds a verified result.
func Verified(t Transaction) VerificationResult {
	return VerificationResult{State: StateVerified, Transaction: t}
}

// Unverified builds a rejected result carrying the underlying transaction and
// the verification failure cause.
func Unverified(t Transaction, cause error) VerificationResult {
	return VerificationResult{State: StateUnverified, Transaction: t, Cause: cause}
}

// PurchaseResultKind tags a PurchaseResult.
type PurchaseResultKind int

const (
	// PurchaseCompleted means the store finalized the purchase; the attached
	// verification verdict says whether the transaction can be trusted.
	PurchaseCompleted PurchaseResultKind = iota
	// PurchasePending means the purchase awaits external action (e.g. ask to
	// buy); the eventual result, if any, arrives on the live update stream.
	PurchasePending
	// PurchaseCancelled means the user backed out of the payment sheet.
	PurchaseCancelled
)

// PurchaseResult is the store's verdict for a submitted purchase.
type PurchaseResult struct {
	Kind PurchaseResultKind

	// Verification is meaningful only when Kind is PurchaseCompleted.
	Verification VerificationResult
}

// PromotionalOffer references a signed promotional offer.
type PromotionalOffer struct {
	ID        string
	Signature string
}

// PurchaseParams is the effective option set submitted with a purchase. All
// fields are optional; the bridge drops unsupported or malformed options
// before the submit rather than rejecting the purchase.
type PurchaseParams struct {
	// AppAccountToken binds the purchase to an app account. uuid.Nil means
	// absent.
	AppAccountToken uuid.UUID

	PromotionalOffer *PromotionalOffer

	// WinBackOfferID is empty when no win-back offer is applied.
	WinBackOfferID string
}

// SubscriptionStatus is one renewal-status record for a subscription,
// carrying its own attestation verdict.
type SubscriptionStatus struct {
	State VerificationState

	// Renewal is meaningful regardless of State, but unverified records must
	// never be treated as evidence of anything.
	Renewal RenewalInfo

	Cause error
}

// RenewalInfo is the renewal facet of a subscription status record.
type RenewalInfo struct {
	ProductID               string
	AutoRenew               bool
	EligibleWinBackOfferIDs []string
}

// Client is the platform store at its process boundary. Implementations wrap
// the real store service or script responses for tests; either way all state
// is store-owned and every call reads an independent snapshot.
type Client interface {
	// CanMakePayments reports whether the current user may make payments at
	// all (parental controls and the like).
	CanMakePayments(ctx context.Context) bool

	// Products resolves identifiers to products. Unresolvable identifiers are
	// simply absent from the result; only a failed store call is an error.
	Products(ctx context.Context, ids []string) ([]Product, error)

	// Purchase submits a purchase for the product with the given params.
	Purchase(ctx context.Context, productID string, params PurchaseParams) (PurchaseResult, error)

	// TransactionUpdates returns the live transaction-update stream. The
	// channel closes when ctx is cancelled or the stream ends.
	TransactionUpdates(ctx context.Context) <-chan VerificationResult

	// CurrentEntitlements walks the user's current-entitlement history.
	CurrentEntitlements(ctx context.Context) ([]VerificationResult, error)

	// AllTransactions walks the user's full transaction history, finished and
	// unfinished alike.
	AllTransactions(ctx context.Context) ([]VerificationResult, error)

	// Finish acknowledges a transaction. Finishing an already-finished
	// transaction is a no-op, not an error. Returns sentinel.ErrNotFound when
	// the id is unknown to the store.
	Finish(ctx context.Context, transactionID int64) error

	// IsIntroOfferEligible asks the store whether the current user qualifies
	// for the product's introductory offer. Store-computed, never derived
	// locally.
	IsIntroOfferEligible(ctx context.Context, productID string) (bool, error)

	// SubscriptionStatuses returns the renewal-status records for the
	// subscription the product belongs to.
	SubscriptionStatuses(ctx context.Context, productID string) ([]SubscriptionStatus, error)

	// StorefrontCountryCode returns the ISO country code of the user's
	// storefront.
	StorefrontCountryCode(ctx context.Context) (string, error)

	// Sync forces a reconciliation with the store; may trigger a user-facing
	// authentication prompt.
	Sync(ctx context.Context) error
}

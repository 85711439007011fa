// Package bridge implements the commerce transaction bridge: purchase
// orchestration, offer-eligibility queries, the live transaction listener,
// and restoration of purchase history. One Bridge is constructed per process;
// tests build isolated instances.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storebridge/internal/bridge/models"
	"storebridge/internal/capability"
	"storebridge/internal/platform/metrics"
	"storebridge/internal/store"
	dErrors "storebridge/pkg/domain-errors"
)

// UpdatePublisher is the outbound push channel. The bridge invokes it once
// per verified transaction event, from the live listener, the restoration
// walk, and verified purchases alike.
type UpdatePublisher interface {
	Publish(ctx context.Context, txns []models.Transaction) error
}

// Bridge orchestrates the platform store on behalf of the application.
type Bridge struct {
	store     store.Client
	caps      capability.Detector
	publisher UpdatePublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	mu       sync.Mutex
	listener *subscription
}

type Option func(b *Bridge)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// New constructs a Bridge.
func New(st store.Client, caps capability.Detector, publisher UpdatePublisher, opts ...Option) *Bridge {
	b := &Bridge{
		store:     st,
		caps:      caps,
		publisher: publisher,
		logger:    slog.Default(),
		tracer:    otel.Tracer("storebridge/bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close stops the live listener, if any. Safe to call more than once.
func (b *Bridge) Close() {
	b.StopListening()
}

// CanMakePayments reports whether the current user may make payments.
func (b *Bridge) CanMakePayments(ctx context.Context) bool {
	return b.store.CanMakePayments(ctx)
}

// ListAllTransactions walks the full transaction history and returns every
// verified entry in normalized form. Unverified entries are never surfaced.
func (b *Bridge) ListAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	history, err := b.store.AllTransactions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "transaction history walk failed")
	}
	out := make([]models.Transaction, 0, len(history))
	for _, res := range history {
		txn, cause := normalize(res)
		if cause != nil {
			continue
		}
		out = append(out, translate(txn))
	}
	return out, nil
}

// FinishTransaction acknowledges the transaction with the given id. The full
// history is scanned, not just current entitlements; finishing an
// already-finished transaction succeeds again.
func (b *Bridge) FinishTransaction(ctx context.Context, transactionID int64) error {
	history, err := b.store.AllTransactions(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction history walk failed")
	}
	for _, res := range history {
		if res.Transaction.ID != transactionID {
			continue
		}
		if err := b.store.Finish(ctx, transactionID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "finish failed")
		}
		return nil
	}
	return dErrors.Newf(dErrors.CodeTransactionNotFound, "transaction %d not found in history", transactionID)
}

// StorefrontCountryCode returns the ISO country code of the user's storefront.
func (b *Bridge) StorefrontCountryCode(ctx context.Context) (string, error) {
	code, err := b.store.StorefrontCountryCode(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorefrontUnavailable, "storefront lookup failed")
	}
	return code, nil
}

// Sync forces a reconciliation with the store. May trigger a user-facing
// authentication prompt; purely a pass-through.
func (b *Bridge) Sync(ctx context.Context) error {
	if err := b.store.Sync(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeSyncFailed, "store sync failed")
	}
	return nil
}

// publish delivers one normalized transaction to the outbound channel.
// Delivery failure is reported and counted but never escalates: one failed
// delivery must not stop future event delivery.
func (b *Bridge) publish(ctx context.Context, txn models.Transaction) {
	if err := b.publisher.Publish(ctx, []models.Transaction{txn}); err != nil {
		b.metrics.IncDeliveryFailure()
		b.logger.ErrorContext(ctx, "transaction update delivery failed",
			"transaction_id", txn.ID,
			"error", err,
		)
		return
	}
	b.metrics.IncUpdatePublished()
}

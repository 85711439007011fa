// Package appstore implements store.Client against the App Store
// receipt-verification service.
//
// The adapter re-derives history, entitlements, and subscription state from
// the app receipt on every call; nothing is cached between calls beyond the
// per-process finish ledger (the receipt service has no acknowledge
// operation, so finish state lives only as long as the process).
//
// Payment-sheet operations (Purchase) happen on the device, not here; the
// adapter reports them unavailable and their results arrive through the
// receipt like any other transaction.
package appstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/awa/go-iap/appstore"

	"storebridge/internal/store"
	"storebridge/pkg/platform/circuit"
	"storebridge/pkg/platform/sentinel"
)

// Config carries the receipt-service credentials and the receipt to verify.
type Config struct {
	// SharedSecret is the app-specific shared secret for receipt validation.
	SharedSecret string
	// BundleID must match the receipt's bundle id; a mismatch rejects every
	// transaction in the receipt.
	BundleID string
	// Receipt is the base64 app receipt payload supplied by the application.
	Receipt string
	// PollInterval drives the synthesized live update stream.
	PollInterval time.Duration
	// HTTPTimeout bounds each verification call.
	HTTPTimeout time.Duration
}

// Store is a store.Client backed by the App Store receipt service.
type Store struct {
	cfg     Config
	client  *appstore.Client
	logger  *slog.Logger
	breaker *circuit.Breaker

	mu       sync.Mutex
	finished map[int64]bool
}

type Option func(s *Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New constructs an App Store-backed store.
func New(cfg Config, opts ...Option) *Store {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	s := &Store{
		cfg:      cfg,
		client:   appstore.NewWithClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		logger:   slog.Default(),
		breaker:  circuit.New("appstore", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		finished: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// verify fetches a fresh verification response for the configured receipt.
// While the circuit is open, request-path calls fail fast; the poll loop
// keeps probing the service and closes the circuit again once it recovers.
func (s *Store) verify(ctx context.Context) (*appstore.IAPResponse, error) {
	if s.breaker.IsOpen() {
		return nil, fmt.Errorf("receipt service circuit open: %w", sentinel.ErrUnavailable)
	}
	return s.probe(ctx)
}

// probe calls the receipt service unconditionally and records the outcome on
// the circuit breaker. Transport failures count against the circuit;
// receipt-level rejections are answers, not outages.
func (s *Store) probe(ctx context.Context) (*appstore.IAPResponse, error) {
	req := appstore.IAPRequest{
		ReceiptData: s.cfg.Receipt,
		Password:    s.cfg.SharedSecret,
	}
	resp := &appstore.IAPResponse{}
	if err := s.client.Verify(ctx, req, resp); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "receipt service circuit opened")
		}
		return nil, fmt.Errorf("receipt verification call: %w: %w", err, sentinel.ErrUnavailable)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "receipt service circuit closed")
	}
	if err := appstore.HandleError(resp.Status); err != nil {
		return nil, fmt.Errorf("receipt status %d: %w", resp.Status, err)
	}
	return resp, nil
}

// receiptTransactions returns the richest transaction list in the response.
func receiptTransactions(resp *appstore.IAPResponse) []appstore.InApp {
	if len(resp.LatestReceiptInfo) > 0 {
		return resp.LatestReceiptInfo
	}
	return resp.Receipt.InApp
}

// result maps one receipt entry to a verification result. Entries from a
// receipt with the wrong bundle id, and entries whose identifiers or dates do
// not parse, are rejected with the parse failure as cause.
func (s *Store) result(resp *appstore.IAPResponse, inapp *appstore.InApp) store.VerificationResult {
	txn, err := s.transaction(resp, inapp)
	if resp.Receipt.BundleID != "" && resp.Receipt.BundleID != s.cfg.BundleID {
		return store.Unverified(txn, fmt.Errorf("bundle id mismatch: %s", resp.Receipt.BundleID))
	}
	if err != nil {
		return store.Unverified(txn, err)
	}
	return store.Verified(txn)
}

func (s *Store) transaction(resp *appstore.IAPResponse, inapp *appstore.InApp) (store.Transaction, error) {
	id, err := strconv.ParseInt(inapp.TransactionID, 10, 64)
	if err != nil {
		return store.Transaction{}, fmt.Errorf("transaction id %q: %w", inapp.TransactionID, err)
	}
	originalID, err := strconv.ParseInt(string(inapp.OriginalTransactionID), 10, 64)
	if err != nil {
		return store.Transaction{}, fmt.Errorf("original transaction id %q: %w", inapp.OriginalTransactionID, err)
	}
	purchaseMS, err := strconv.ParseInt(inapp.PurchaseDateMS, 10, 64)
	if err != nil {
		return store.Transaction{}, fmt.Errorf("purchase date %q: %w", inapp.PurchaseDateMS, err)
	}

	s.mu.Lock()
	finished := s.finished[id]
	s.mu.Unlock()

	return store.Transaction{
		ID:           id,
		OriginalID:   originalID,
		ProductID:    inapp.ProductID,
		PurchaseDate: time.UnixMilli(purchaseMS),
		Receipt:      resp.LatestReceipt,
		Finished:     finished,
	}, nil
}

// entitled reports whether a receipt entry still confers rights: not
// cancelled, and either non-expiring or not yet expired.
func entitled(inapp *appstore.InApp, now time.Time) bool {
	if inapp.CancellationDateMS != "" {
		return false
	}
	if inapp.ExpiresDateMS == "" {
		return true
	}
	expiresMS, err := strconv.ParseInt(inapp.ExpiresDateMS, 10, 64)
	if err != nil {
		return false
	}
	return time.UnixMilli(expiresMS).After(now)
}

func (s *Store) CanMakePayments(_ context.Context) bool {
	// Payment capability is a device concern; the receipt service has no say.
	return true
}

// Products is unavailable here: catalog metadata never appears in receipts.
// Deployments backed by this adapter pair it with a catalog source.
func (s *Store) Products(_ context.Context, _ []string) ([]store.Product, error) {
	return nil, fmt.Errorf("product catalog not available from the receipt service: %w", sentinel.ErrUnavailable)
}

// Purchase cannot be driven from the server side; the payment sheet lives on
// the device and completed purchases arrive through the receipt.
func (s *Store) Purchase(_ context.Context, _ string, _ store.PurchaseParams) (store.PurchaseResult, error) {
	return store.PurchaseResult{}, fmt.Errorf("purchases are completed on device: %w", sentinel.ErrInvalidState)
}

// TransactionUpdates synthesizes the live stream by polling the receipt
// service and emitting entries not seen by this subscription yet.
func (s *Store) TransactionUpdates(ctx context.Context) <-chan store.VerificationResult {
	ch := make(chan store.VerificationResult, 16)
	go func() {
		defer close(ch)
		seen := make(map[int64]bool)
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			resp, err := s.probe(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "receipt poll failed", "error", err)
				continue
			}
			inapps := receiptTransactions(resp)
			for i := range inapps {
				res := s.result(resp, &inapps[i])
				if seen[res.Transaction.ID] {
					continue
				}
				seen[res.Transaction.ID] = true
				select {
				case ch <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

func (s *Store) CurrentEntitlements(ctx context.Context) ([]store.VerificationResult, error) {
	resp, err := s.verify(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []store.VerificationResult
	inapps := receiptTransactions(resp)
	for i := range inapps {
		if !entitled(&inapps[i], now) {
			continue
		}
		out = append(out, s.result(resp, &inapps[i]))
	}
	return out, nil
}

func (s *Store) AllTransactions(ctx context.Context) ([]store.VerificationResult, error) {
	resp, err := s.verify(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.VerificationResult
	inapps := receiptTransactions(resp)
	for i := range inapps {
		out = append(out, s.result(resp, &inapps[i]))
	}
	return out, nil
}

func (s *Store) Finish(ctx context.Context, transactionID int64) error {
	history, err := s.AllTransactions(ctx)
	if err != nil {
		return err
	}
	for _, res := range history {
		if res.Transaction.ID != transactionID {
			continue
		}
		s.mu.Lock()
		s.finished[transactionID] = true
		s.mu.Unlock()
		return nil
	}
	return fmt.Errorf("transaction %d: %w", transactionID, sentinel.ErrNotFound)
}

// IsIntroOfferEligible approximates the store's answer from the receipt: a
// user who already consumed a trial or introductory period for the product
// is no longer eligible.
func (s *Store) IsIntroOfferEligible(ctx context.Context, productID string) (bool, error) {
	resp, err := s.verify(ctx)
	if err != nil {
		return false, err
	}
	inapps := receiptTransactions(resp)
	for i := range inapps {
		if inapps[i].ProductID != productID {
			continue
		}
		if inapps[i].IsTrialPeriod == "true" || inapps[i].IsInIntroOfferPeriod == "true" {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) SubscriptionStatuses(ctx context.Context, productID string) ([]store.SubscriptionStatus, error) {
	resp, err := s.verify(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.SubscriptionStatus
	for _, pending := range resp.PendingRenewalInfo {
		if pending.ProductID != productID {
			continue
		}
		out = append(out, store.SubscriptionStatus{
			State: store.StateVerified,
			Renewal: store.RenewalInfo{
				ProductID: pending.ProductID,
				AutoRenew: pending.SubscriptionAutoRenewStatus == "1",
				// Win-back offer lists are not part of the receipt model.
			},
		})
	}
	return out, nil
}

func (s *Store) StorefrontCountryCode(_ context.Context) (string, error) {
	return "", fmt.Errorf("storefront not available from the receipt service: %w", sentinel.ErrUnavailable)
}

// Sync re-verifies the receipt, surfacing credential or availability
// problems eagerly.
func (s *Store) Sync(ctx context.Context) error {
	_, err := s.verify(ctx)
	return err
}

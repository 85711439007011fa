// Package memory provides a scripted in-memory store.Client for tests and the
// dev server. All state is local; seed it through the exported setters.
package memory

import (
	"context"
	"fmt"
	"sync"

	"storebridge/internal/store"
	"storebridge/pkg/platform/sentinel"
)

// Error Contract:
// All methods follow the store.Client pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return nil for successful operations
// - Return scripted errors verbatim so tests can assert on them
// Store is an in-memory store.Client.
type Store struct {
	mu sync.RWMutex

	paymentsAllowed bool
	products        map[string]store.Product
	productsErr     error

	purchaseResults map[string]store.PurchaseResult
	purchaseErrs    map[string]error
	lastParams      store.PurchaseParams

	entitlements []store.VerificationResult
	history      []store.VerificationResult

	introEligible map[string]bool
	introErr      error
	statuses      map[string][]store.SubscriptionStatus
	statusErr     error

	storefront    string
	storefrontErr error
	syncErr       error

	subs      map[int]chan store.VerificationResult
	nextSubID int
}

// New constructs an empty in-memory store that allows payments.
func New() *Store {
	return &Store{
		paymentsAllowed: true,
		products:        make(map[string]store.Product),
		purchaseResults: make(map[string]store.PurchaseResult),
		purchaseErrs:    make(map[string]error),
		introEligible:   make(map[string]bool),
		statuses:        make(map[string][]store.SubscriptionStatus),
		subs:            make(map[int]chan store.VerificationResult),
	}
}

func (s *Store) CanMakePayments(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentsAllowed
}

func (s *Store) Products(_ context.Context, ids []string) ([]store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	var out []store.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Purchase(_ context.Context, productID string, params store.PurchaseParams) (store.PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastParams = params
	if err, ok := s.purchaseErrs[productID]; ok {
		return store.PurchaseResult{}, err
	}
	result, ok := s.purchaseResults[productID]
	if !ok {
		return store.PurchaseResult{}, fmt.Errorf("product %q: %w", productID, sentinel.ErrNotFound)
	}
	// A finalized verified purchase becomes part of the store-owned history,
	// like the real store's ledger.
	if result.Kind == store.PurchaseCompleted && result.Verification.State == store.StateVerified {
		s.history = append(s.history, result.Verification)
		s.entitlements = append(s.entitlements, result.Verification)
	}
	return result, nil
}

func (s *Store) TransactionUpdates(ctx context.Context) <-chan store.VerificationResult {
	ch := make(chan store.VerificationResult, 16)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func (s *Store) CurrentEntitlements(_ context.Context) ([]store.VerificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.VerificationResult, len(s.entitlements))
	copy(out, s.entitlements)
	return out, nil
}

func (s *Store) AllTransactions(_ context.Context) ([]store.VerificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.VerificationResult, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *Store) Finish(_ context.Context, transactionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].Transaction.ID == transactionID {
			// Idempotent: re-finishing an already-finished transaction is fine.
			s.history[i].Transaction.Finished = true
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", transactionID, sentinel.ErrNotFound)
}

func (s *Store) IsIntroOfferEligible(_ context.Context, productID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.introErr != nil {
		return false, s.introErr
	}
	return s.introEligible[productID], nil
}

func (s *Store) SubscriptionStatuses(_ context.Context, productID string) ([]store.SubscriptionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	out := make([]store.SubscriptionStatus, len(s.statuses[productID]))
	copy(out, s.statuses[productID])
	return out, nil
}

func (s *Store) StorefrontCountryCode(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.storefrontErr != nil {
		return "", s.storefrontErr
	}
	if s.storefront == "" {
		return "", sentinel.ErrUnavailable
	}
	return s.storefront, nil
}

func (s *Store) Sync(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncErr
}

// Seeding and scripting helpers. These mutate store-owned state the way the
// real platform would behind the scenes.

// AddProduct seeds a product into the catalog.
func (s *Store) AddProduct(p store.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetProductsErr scripts a catalog-level failure for every Products call.
func (s *Store) SetProductsErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productsErr = err
}

// SetPurchaseResult scripts the result of purchasing the given product.
func (s *Store) SetPurchaseResult(productID string, result store.PurchaseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseResults[productID] = result
}

// SetPurchaseErr scripts a store-level purchase failure for the product.
func (s *Store) SetPurchaseErr(productID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseErrs[productID] = err
}

// AddEntitlement appends an entry to the current-entitlements history.
func (s *Store) AddEntitlement(res store.VerificationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements = append(s.entitlements, res)
	s.history = append(s.history, res)
}

// AddHistory appends an entry to the full transaction history only.
func (s *Store) AddHistory(res store.VerificationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, res)
}

// Finished reports whether the transaction is marked finished in the history.
func (s *Store) Finished(transactionID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.history {
		if s.history[i].Transaction.ID == transactionID {
			return s.history[i].Transaction.Finished
		}
	}
	return false
}

// SetIntroEligible scripts the store-computed introductory-offer answer.
func (s *Store) SetIntroEligible(productID string, eligible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.introEligible[productID] = eligible
}

// SetIntroErr scripts a failure for intro-offer eligibility queries.
func (s *Store) SetIntroErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.introErr = err
}

// SetStatuses scripts the renewal-status records for a product.
func (s *Store) SetStatuses(productID string, statuses []store.SubscriptionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[productID] = statuses
}

// SetStatusErr scripts a failure for renewal-status queries.
func (s *Store) SetStatusErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusErr = err
}

// SetStorefront scripts the storefront country code.
func (s *Store) SetStorefront(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storefront = code
}

// SetStorefrontErr scripts a storefront lookup failure.
func (s *Store) SetStorefrontErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storefrontErr = err
}

// SetSyncErr scripts a Sync failure.
func (s *Store) SetSyncErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncErr = err
}

// SetPaymentsAllowed toggles CanMakePayments.
func (s *Store) SetPaymentsAllowed(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentsAllowed = allowed
}

// LastPurchaseParams returns the params of the most recent Purchase call.
func (s *Store) LastPurchaseParams() store.PurchaseParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastParams
}

// EmitUpdate pushes a transaction event to every live update subscription.
// Slow subscribers drop events rather than block the emitter.
func (s *Store) EmitUpdate(res store.VerificationResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- res:
		default:
		}
	}
}

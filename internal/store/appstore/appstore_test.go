package appstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/awa/go-iap/appstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storebridge/internal/store"
	"storebridge/pkg/platform/sentinel"
)

func newTestStore(t *testing.T, resp appstore.IAPResponse) (*Store, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	s := New(Config{
		SharedSecret: "secret",
		BundleID:     "com.example.app",
		Receipt:      "base64-receipt",
		PollInterval: 10 * time.Millisecond,
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.client.ProductionURL = server.URL
	s.client.SandboxURL = server.URL
	return s, server
}

func inApp(transactionID, productID, purchaseMS string) appstore.InApp {
	return appstore.InApp{
		TransactionID:         transactionID,
		OriginalTransactionID: appstore.NumericString(transactionID),
		ProductID:             productID,
		PurchaseDate:          appstore.PurchaseDate{PurchaseDateMS: purchaseMS},
	}
}

func receiptResponse(bundleID string, entries ...appstore.InApp) appstore.IAPResponse {
	resp := appstore.IAPResponse{Status: 0, LatestReceipt: "latest-receipt"}
	// These NumericString fields lack omitempty; an empty value encodes as ""
	// which the client's json.Number-based decoder rejects.
	resp.Receipt.AppItemID = "0"
	resp.Receipt.VersionExternalIdentifier = "0"
	resp.Receipt.BundleID = bundleID
	resp.Receipt.InApp = entries
	return resp
}

func TestAllTransactionsVerified(t *testing.T) {
	s, _ := newTestStore(t, receiptResponse("com.example.app",
		inApp("1001", "coins.small", "1700000000000"),
		inApp("1002", "coins.large", "1700000100000"),
	))

	history, err := s.AllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)

	first := history[0]
	assert.Equal(t, store.StateVerified, first.State)
	assert.Equal(t, int64(1001), first.Transaction.ID)
	assert.Equal(t, "coins.small", first.Transaction.ProductID)
	assert.Equal(t, time.UnixMilli(1700000000000), first.Transaction.PurchaseDate)
	assert.Equal(t, "latest-receipt", first.Transaction.Receipt)
}

func TestBundleMismatchRejectsEveryEntry(t *testing.T) {
	s, _ := newTestStore(t, receiptResponse("com.other.app",
		inApp("1001", "coins.small", "1700000000000"),
	))

	history, err := s.AllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.StateUnverified, history[0].State)
	require.Error(t, history[0].Cause)
	assert.Contains(t, history[0].Cause.Error(), "bundle id mismatch")
}

func TestUnparseableEntryIsUnverified(t *testing.T) {
	// OriginalTransactionID is a NumericString: the client's decoder rejects
	// non-numeric values, so only TransactionID carries the bad id here.
	entry := inApp("not-a-number", "coins.small", "1700000000000")
	entry.OriginalTransactionID = ""
	s, _ := newTestStore(t, receiptResponse("com.example.app", entry))

	history, err := s.AllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.StateUnverified, history[0].State)
}

func TestCurrentEntitlementsFiltersExpiredAndCancelled(t *testing.T) {
	active := inApp("1", "premium.monthly", "1700000000000")
	active.ExpiresDate = appstore.ExpiresDate{
		ExpiresDateMS: "99999999999999",
	}
	expired := inApp("2", "premium.monthly", "1600000000000")
	expired.ExpiresDate = appstore.ExpiresDate{
		ExpiresDateMS: "1600000001000",
	}
	cancelled := inApp("3", "coins.small", "1700000000000")
	cancelled.CancellationDate = appstore.CancellationDate{
		CancellationDateMS: "1700000001000",
	}
	perpetual := inApp("4", "coins.large", "1700000000000")

	s, _ := newTestStore(t, receiptResponse("com.example.app", active, expired, cancelled, perpetual))

	entitlements, err := s.CurrentEntitlements(context.Background())
	require.NoError(t, err)
	require.Len(t, entitlements, 2)
	assert.Equal(t, int64(1), entitlements[0].Transaction.ID)
	assert.Equal(t, int64(4), entitlements[1].Transaction.ID)
}

func TestFinishLedger(t *testing.T) {
	s, _ := newTestStore(t, receiptResponse("com.example.app",
		inApp("1001", "coins.small", "1700000000000"),
	))
	ctx := context.Background()

	err := s.Finish(ctx, 9999)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Finish(ctx, 1001))
	require.NoError(t, s.Finish(ctx, 1001))

	history, err := s.AllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Transaction.Finished)
}

func TestIsIntroOfferEligible(t *testing.T) {
	used := inApp("1", "premium.monthly", "1700000000000")
	used.IsTrialPeriod = "true"
	fresh := inApp("2", "premium.yearly", "1700000000000")
	fresh.IsTrialPeriod = "false"

	s, _ := newTestStore(t, receiptResponse("com.example.app", used, fresh))
	ctx := context.Background()

	eligible, err := s.IsIntroOfferEligible(ctx, "premium.monthly")
	require.NoError(t, err)
	assert.False(t, eligible, "a consumed trial forfeits the introductory offer")

	eligible, err = s.IsIntroOfferEligible(ctx, "premium.yearly")
	require.NoError(t, err)
	assert.True(t, eligible)

	eligible, err = s.IsIntroOfferEligible(ctx, "never.purchased")
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestSubscriptionStatuses(t *testing.T) {
	resp := receiptResponse("com.example.app")
	resp.PendingRenewalInfo = []appstore.PendingRenewalInfo{
		{ProductID: "premium.monthly", SubscriptionAutoRenewStatus: "1"},
		{ProductID: "premium.yearly", SubscriptionAutoRenewStatus: "0"},
	}
	s, _ := newTestStore(t, resp)

	statuses, err := s.SubscriptionStatuses(context.Background(), "premium.monthly")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, store.StateVerified, statuses[0].State)
	assert.True(t, statuses[0].Renewal.AutoRenew)
}

func TestServerSideOnlyOperations(t *testing.T) {
	s, _ := newTestStore(t, receiptResponse("com.example.app"))
	ctx := context.Background()

	_, err := s.Products(ctx, []string{"coins.small"})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = s.Purchase(ctx, "coins.small", store.PurchaseParams{})
	require.ErrorIs(t, err, sentinel.ErrInvalidState)

	_, err = s.StorefrontCountryCode(ctx)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	assert.True(t, s.CanMakePayments(ctx))
}

func TestCircuitOpensOnRepeatedTransportFailures(t *testing.T) {
	s, server := newTestStore(t, receiptResponse("com.example.app"))
	server.Close()
	ctx := context.Background()

	// Five consecutive transport failures open the circuit.
	for i := 0; i < 5; i++ {
		require.Error(t, s.Sync(ctx))
	}
	assert.True(t, s.breaker.IsOpen())

	// Request-path calls now fail fast with an unavailability error.
	_, err := s.AllTransactions(ctx)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestTransactionUpdatesEmitsEachEntryOnce(t *testing.T) {
	s, _ := newTestStore(t, receiptResponse("com.example.app",
		inApp("1001", "coins.small", "1700000000000"),
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := s.TransactionUpdates(ctx)

	select {
	case res := <-updates:
		assert.Equal(t, int64(1001), res.Transaction.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no update emitted")
	}

	// The same receipt entry must not be emitted again on later polls.
	select {
	case res := <-updates:
		t.Fatalf("duplicate update for transaction %d", res.Transaction.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

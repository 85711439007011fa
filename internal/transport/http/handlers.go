package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storebridge/internal/bridge"
	"storebridge/internal/bridge/models"
	dErrors "storebridge/pkg/domain-errors"
	"storebridge/pkg/platform/httputil"
)

// BridgeService is the slice of the bridge the transport needs. Defined here
// so handler tests can substitute a fake.
type BridgeService interface {
	CanMakePayments(ctx context.Context) bool
	FetchProducts(ctx context.Context, ids []string) ([]models.Product, error)
	Purchase(ctx context.Context, productID string, opts *models.PurchaseOptions) (models.PurchaseOutcome, error)
	IsWinBackOfferEligible(ctx context.Context, productID, offerID string) (bool, error)
	IsIntroductoryOfferEligible(ctx context.Context, productID string) (bool, error)
	ListAllTransactions(ctx context.Context) ([]models.Transaction, error)
	RestorePurchases(ctx context.Context) error
	FinishTransaction(ctx context.Context, transactionID int64) error
	StorefrontCountryCode(ctx context.Context) (string, error)
	Sync(ctx context.Context) error
	StartListening()
	StopListening()
}

// Handler is the thin HTTP layer. It delegates to the bridge without
// embedding orchestration logic so transport concerns remain isolated.
type Handler struct {
	bridge BridgeService
	logger *slog.Logger
}

func NewHandler(bridge BridgeService, logger *slog.Logger) *Handler {
	return &Handler{bridge: bridge, logger: logger}
}

func (h *Handler) handleCanMakePayments(w http.ResponseWriter, r *http.Request) {
	allowed := h.bridge.CanMakePayments(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (h *Handler) handleFetchProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	products, err := h.bridge.FetchProducts(r.Context(), req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string                  `json:"product_id"`
		Options   *models.PurchaseOptions `json:"options,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	if req.ProductID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "product_id is required"))
		return
	}

	outcome, err := h.bridge.Purchase(r.Context(), req.ProductID, req.Options)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Pending and cancelled are terminal outcomes, surfaced as their own
	// error kinds at this boundary.
	switch outcome.Kind {
	case models.OutcomeSuccess:
		httputil.WriteJSON(w, http.StatusOK, outcome)
	case models.OutcomePending:
		httputil.WriteError(w, dErrors.New(dErrors.CodePurchasePending,
			"purchase is pending; the result, if any, arrives via the transaction listener"))
	case models.OutcomeCancelled:
		httputil.WriteError(w, dErrors.New(dErrors.CodePurchaseCancelled, "purchase cancelled by user"))
	}
}

func (h *Handler) handleWinBackEligibility(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	offerID := r.URL.Query().Get("offer_id")
	if productID == "" || offerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "product_id and offer_id are required"))
		return
	}
	eligible, err := h.bridge.IsWinBackOfferEligible(r.Context(), productID, offerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"eligible": eligible})
}

func (h *Handler) handleIntroEligibility(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "product_id is required"))
		return
	}
	eligible, err := h.bridge.IsIntroductoryOfferEligible(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"eligible": eligible})
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.bridge.ListAllTransactions(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	err := h.bridge.RestorePurchases(r.Context())
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var restoreErr *bridge.RestoreError
	if errors.As(err, &restoreErr) {
		failures := make(map[string]bridge.RestoreFailure, len(restoreErr.Failures))
		for id, failure := range restoreErr.Failures {
			failures[strconv.FormatInt(id, 10)] = failure
		}
		httputil.WriteError(w, err, map[string]any{"failures": failures})
		return
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handleFinishTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "transaction id must be numeric"))
		return
	}
	if err := h.bridge.FinishTransaction(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStorefront(w http.ResponseWriter, r *http.Request) {
	code, err := h.bridge.StorefrontCountryCode(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"country_code": code})
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.bridge.Sync(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStartListening(w http.ResponseWriter, r *http.Request) {
	h.bridge.StartListening()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStopListening(w http.ResponseWriter, r *http.Request) {
	h.bridge.StopListening()
	w.WriteHeader(http.StatusNoContent)
}

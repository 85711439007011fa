package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storebridge/internal/platform/middleware"
)

// NewRouter wires all endpoints. Every store route requires a valid bearer
// token; /metrics and /healthz stay open for scrapers and probes.
func NewRouter(h *Handler, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))

		r.Get("/store/payments/allowed", h.handleCanMakePayments)
		r.Post("/store/products", h.handleFetchProducts)
		r.Post("/store/purchase", h.handlePurchase)
		r.Get("/store/eligibility/win-back", h.handleWinBackEligibility)
		r.Get("/store/eligibility/introductory", h.handleIntroEligibility)
		r.Get("/store/transactions", h.handleListTransactions)
		r.Post("/store/restore", h.handleRestore)
		r.Post("/store/transactions/{id}/finish", h.handleFinishTransaction)
		r.Get("/store/storefront", h.handleStorefront)
		r.Post("/store/sync", h.handleSync)
		r.Post("/store/listener/start", h.handleStartListening)
		r.Post("/store/listener/stop", h.handleStopListening)
	})

	return r
}

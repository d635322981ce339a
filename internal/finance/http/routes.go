package financehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the finance reconciliation endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/finance/balance-sheet", h.handleBalanceSheet)
	r.Get("/finance/debts", h.handleDebts)
	r.Get("/finance/corrections", h.handleCorrections)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/finance/balance-sheet/export.csv", h.handleExportCSV)
		gr.Post("/finance/recalculate", h.handleRecalculate)
	})
}

// Package financehttp exposes the reconciliation engine's derived projections
// over HTTP.
package financehttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// FinanceService defines the derived-report contract used by the handler.
type FinanceService interface {
	BalanceSheet(ctx context.Context) (finance.BalanceSheet, error)
	Debts(ctx context.Context, side finance.DebtSide) ([]finance.RecalculatedDebt, error)
	Corrections(ctx context.Context) ([]finance.Correction, error)
	Recalculate(ctx context.Context, persist bool) (finance.Result, error)
}

// Handler coordinates HTTP requests for the finance reconciliation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  FinanceService
	validate *validator.Validate
}

// NewHandler constructs the finance HTTP handler.
func NewHandler(logger *slog.Logger, service FinanceService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// respondServiceError maps a snapshot outage to 503 so callers can retry; the
// engine itself never fails once a snapshot is in hand.
func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, finance.ErrSnapshotUnavailable) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
		return
	}
	httpx.RespondError(w, err)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.BalanceSheet(r.Context())
	if err != nil {
		h.logger.Error("load balance sheet", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleDebts(w http.ResponseWriter, r *http.Request) {
	side := finance.DebtSide(r.URL.Query().Get("side"))
	switch side {
	case "", finance.SideClient, finance.SideSupplier:
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "side must be client or supplier")
		return
	}
	debts, err := h.service.Debts(r.Context(), side)
	if err != nil {
		h.logger.Error("load debts", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, debts)
}

func (h *Handler) handleCorrections(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.service.Corrections(r.Context())
	if err != nil {
		h.logger.Error("load corrections", slog.Any("error", err))
		respondServiceError(w, err)
		return
	}
	if corrections == nil {
		corrections = []finance.Correction{}
	}
	httpx.JSON(w, http.StatusOK, corrections)
}

// RecalculateRequest triggers a full engine pass. Persist opts into the
// explicit write-back of debts and corrections.
type RecalculateRequest struct {
	Persist bool   `json:"persist"`
	Reason  string `json:"reason" validate:"max=500"`
}

type recalculateResponse struct {
	Sheet            finance.BalanceSheet       `json:"sheet"`
	Debts            []finance.RecalculatedDebt `json:"debts"`
	Corrections      []finance.Correction       `json:"corrections"`
	UnreliableInputs int                        `json:"unreliable_inputs"`
	Balanced         bool                       `json:"balanced"`
	Persisted        bool                       `json:"persisted"`
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Recalculate(r.Context(), req.Persist)
	if err != nil {
		h.logger.Error("recalculate", slog.Any("error", err), slog.String("reason", req.Reason))
		respondServiceError(w, err)
		return
	}
	h.logger.Info("recalculated finance projections",
		slog.Bool("persist", req.Persist),
		slog.Int("corrections", len(result.Corrections)),
		slog.Int("unreliable_inputs", result.UnreliableInputs),
	)
	httpx.JSON(w, http.StatusOK, recalculateResponse{
		Sheet:            result.Sheet,
		Debts:            result.Debts,
		Corrections:      result.Corrections,
		UnreliableInputs: result.UnreliableInputs,
		Balanced:         result.Balanced(),
		Persisted:        req.Persist,
	})
}

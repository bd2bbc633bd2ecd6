// Package calchttp serves calculation previews for the transaction forms.
package calchttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
	"github.com/clinicbooks/clinicbooks/internal/calc"
	"github.com/clinicbooks/clinicbooks/internal/ledger"
	"github.com/clinicbooks/clinicbooks/internal/platform/httpx"
)

// CalculationObserver receives one event per income calculation.
type CalculationObserver interface {
	ObserveCalculation(method string, err error)
}

// ArrangementStore loads a clinic's saved arrangement.
type ArrangementStore interface {
	Arrangement(ctx context.Context, clinicID string) (arrangement.FinancialArrangement, error)
}

// Handler runs the pure calculators for request payloads.
type Handler struct {
	logger       *slog.Logger
	observer     CalculationObserver
	arrangements ArrangementStore
	validate     *validator.Validate
}

// NewHandler constructs the handler. observer and arrangements may be nil;
// without a store the clinic-scoped preview is not mounted.
func NewHandler(logger *slog.Logger, observer CalculationObserver, arrangements ArrangementStore) *Handler {
	return &Handler{logger: logger, observer: observer, arrangements: arrangements, validate: validator.New()}
}

// MountRoutes registers the calculation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/calc", func(r chi.Router) {
		r.Post("/income", h.handleIncome)
		r.Post("/expense", h.handleExpense)
		r.Post("/methods/required", h.handleRequiredFields)
		if h.arrangements != nil {
			r.Post("/clinics/{clinicID}/income", h.handleClinicIncome)
		}
	})
}

type incomeRequest struct {
	Arrangement arrangement.FinancialArrangement `json:"arrangement"`
	Inputs      calc.RawInput                    `json:"inputs"`
}

type clinicIncomeRequest struct {
	Inputs calc.RawInput `json:"inputs"`
}

type incomeResponse struct {
	calc.Result
	Calculations map[string]decimal.Decimal `json:"calculations"`
}

type expenseRequest struct {
	Amount     any     `json:"amount" validate:"required"`
	GSTPercent float64 `json:"gstPercent" validate:"gte=0,lte=100"`
}

type expenseResponse struct {
	calc.ExpenseBreakdown
	Calculations map[string]decimal.Decimal `json:"calculations"`
}

type requiredFieldsResponse struct {
	Method         string   `json:"method"`
	RequiredFields []string `json:"requiredFields"`
}

func (h *Handler) handleIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := calc.Calculate(req.Inputs, req.Arrangement)
	h.observe(result.Method, err)
	if err != nil {
		h.respondMethodError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, incomeResponse{Result: result, Calculations: result.Calculations()})
}

// handleClinicIncome previews an income transaction under the clinic's saved
// arrangement.
func (h *Handler) handleClinicIncome(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	var req clinicIncomeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.arrangements.Arrangement(r.Context(), clinicID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: clinic %s has no arrangement", httpx.ErrNotFound, clinicID))
			return
		}
		h.logger.Error("load arrangement", slog.String("clinic", clinicID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result, err := calc.Calculate(req.Inputs, a)
	h.observe(result.Method, err)
	if err != nil {
		h.respondMethodError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, incomeResponse{Result: result, Calculations: result.Calculations()})
}

func (h *Handler) handleExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	breakdown := calc.CalculateExpenseGST(calc.Coerce(req.Amount), req.GSTPercent)
	httpx.JSON(w, http.StatusOK, expenseResponse{ExpenseBreakdown: breakdown, Calculations: breakdown.Calculations()})
}

func (h *Handler) handleRequiredFields(w http.ResponseWriter, r *http.Request) {
	var a arrangement.FinancialArrangement
	if err := httpx.DecodeJSON(r, &a); err != nil {
		httpx.RespondError(w, err)
		return
	}
	method, err := arrangement.Select(a)
	if err != nil {
		h.respondMethodError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, requiredFieldsResponse{Method: method.Name(), RequiredFields: method.RequiredFields()})
}

func (h *Handler) respondMethodError(w http.ResponseWriter, err error) {
	if errors.Is(err, arrangement.ErrUnknownMethod) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnprocessable, err))
		return
	}
	h.logger.Error("calculate income", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) observe(method string, err error) {
	if h.observer != nil {
		h.observer.ObserveCalculation(method, err)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/security/validation"
	"github.com/username/wealthfolio/src/services"
	"github.com/username/wealthfolio/src/utils"
)

type DebtHandler struct {
	portfolioService services.PortfolioService
}

func NewDebtHandler(portfolioService services.PortfolioService) *DebtHandler {
	return &DebtHandler{portfolioService: portfolioService}
}

func (h *DebtHandler) HandleGetDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.portfolioService.Debts()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving debts: %v", err), http.StatusInternalServerError)
		return
	}
	if debts == nil {
		debts = []models.Debt{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(debts); err != nil {
		logger.L.Error("Error encoding debts to JSON", "error", err)
	}
}

// HandleSaveDebt creates or replaces one debt record; the id decides which.
func (h *DebtHandler) HandleSaveDebt(w http.ResponseWriter, r *http.Request) {
	var debt models.Debt
	if err := json.NewDecoder(r.Body).Decode(&debt); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid debt payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateDebt(debt); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.portfolioService.SaveDebt(debt)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error saving debt: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *DebtHandler) HandleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.portfolioService.DeleteDebt(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Debt %s not found", id), http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error deleting debt: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRepayDebt appends a repayment to the target debt and returns the
// updated record with the outstanding amount reduced (floored at 0).
func (h *DebtHandler) HandleRepayDebt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var repayment models.Repayment
	if err := json.NewDecoder(r.Body).Decode(&repayment); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid repayment payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateRepayment(repayment); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.portfolioService.RepayDebt(id, repayment)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Debt %s not found", id), http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error recording repayment: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// HandleGetDebtStats returns the aggregate debt figures shown on the
// dashboard: outstanding principal, accrued interest to date, and totals.
func (h *DebtHandler) HandleGetDebtStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.portfolioService.DebtStats()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing debt stats: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

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

type InterestHandler struct {
	portfolioService services.PortfolioService
}

func NewInterestHandler(portfolioService services.PortfolioService) *InterestHandler {
	return &InterestHandler{portfolioService: portfolioService}
}

func (h *InterestHandler) HandleGetInterests(w http.ResponseWriter, r *http.Request) {
	records, err := h.portfolioService.Interests()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving interest records: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.InterestRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.L.Error("Error encoding interest records to JSON", "error", err)
	}
}

func (h *InterestHandler) HandleSaveInterest(w http.ResponseWriter, r *http.Request) {
	var record models.InterestRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid interest payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateInterest(record); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.portfolioService.SaveInterest(record)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error saving interest record: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *InterestHandler) HandleDeleteInterest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.portfolioService.DeleteInterest(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Interest record %s not found", id), http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error deleting interest record: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetInterestIncome returns the running total of received dividends.
func (h *InterestHandler) HandleGetInterestIncome(w http.ResponseWriter, r *http.Request) {
	total, err := h.portfolioService.InterestIncome()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing interest income: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"total": total})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/wealthfolio/src/security/validation"
	"github.com/username/wealthfolio/src/services"
	"github.com/username/wealthfolio/src/utils"
)

const maxStrategyLength = 2000

type StrategyHandler struct {
	portfolioService services.PortfolioService
}

func NewStrategyHandler(portfolioService services.PortfolioService) *StrategyHandler {
	return &StrategyHandler{portfolioService: portfolioService}
}

func (h *StrategyHandler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	text, err := h.portfolioService.Strategy()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving strategy: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"text": text})
}

func (h *StrategyHandler) HandleSetStrategy(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid strategy payload: %v", err), http.StatusBadRequest)
		return
	}
	if len(payload.Text) > maxStrategyLength {
		utils.SendJSONError(w, "Strategy note too long", http.StatusBadRequest)
		return
	}
	cleaned := validation.StripUnprintable(payload.Text)

	if err := h.portfolioService.SetStrategy(cleaned); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error saving strategy: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"text": cleaned})
}

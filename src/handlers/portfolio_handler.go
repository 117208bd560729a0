package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/security/validation"
	"github.com/username/wealthfolio/src/services"
	"github.com/username/wealthfolio/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
	priceService     services.PriceService
	rateService      services.RateService
}

func NewPortfolioHandler(portfolioService services.PortfolioService, priceService services.PriceService, rateService services.RateService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		priceService:     priceService,
		rateService:      rateService,
	}
}

// HandleGetHoldings values the open positions against live quotes. A first
// pass with no prices yields the held codes; the second pass applies
// whatever quotes could be fetched, with average cost filling the gaps.
func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.valuedHoldings()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(holdings); err != nil {
		logger.L.Error("Error encoding holdings to JSON", "error", err)
	}
}

func (h *PortfolioHandler) valuedHoldings() ([]models.Holding, error) {
	unpriced, err := h.portfolioService.Holdings(nil)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(unpriced))
	for _, holding := range unpriced {
		codes = append(codes, holding.Code)
	}
	prices := h.priceService.GetPrices(codes)

	holdings, err := h.portfolioService.Holdings(prices)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return holdings, nil
}

// HandleGetKpi returns the dashboard rollup for the requested view
// (ALL, TW, or US; anything unrecognized means ALL).
func (h *PortfolioHandler) HandleGetKpi(w http.ResponseWriter, r *http.Request) {
	view := models.KpiView(r.URL.Query().Get("view"))
	switch view {
	case models.ViewTW, models.ViewUS:
	default:
		view = models.ViewAll
	}

	unpriced, err := h.portfolioService.Holdings(nil)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}
	codes := make([]string, 0, len(unpriced))
	for _, holding := range unpriced {
		codes = append(codes, holding.Code)
	}
	prices := h.priceService.GetPrices(codes)
	rate := h.rateService.GetRate()

	kpi, err := h.portfolioService.Kpi(view, prices, rate)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing KPIs: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(kpi)
}

// HandleRefreshPrices re-fetches quotes for every held code and reports the
// success count; a partial failure is a soft condition, not an error.
func (h *PortfolioHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	unpriced, err := h.portfolioService.Holdings(nil)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}
	codes := make([]string, 0, len(unpriced))
	for _, holding := range unpriced {
		codes = append(codes, holding.Code)
	}
	prices := h.priceService.GetPrices(codes)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"requested": len(codes),
		"updated":   len(prices),
		"prices":    prices,
	})
}

// HandleGetExchangeRate returns the current USD->TWD rate (or the fallback).
func (h *PortfolioHandler) HandleGetExchangeRate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"rate": h.rateService.GetRate()})
}

// HandleExportHoldings serializes the holdings snapshot to CSV. Text fields
// are sanitized against spreadsheet formula injection.
func (h *PortfolioHandler) HandleExportHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.valuedHoldings()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio.csv"`)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"code", "name", "market", "qty", "totalCost", "avgCost", "currPrice", "marketValue", "unrealizedPL", "profitRate", "dividend"})
	for _, holding := range holdings {
		writer.Write([]string{
			validation.SanitizeForFormulaInjection(holding.Code),
			validation.SanitizeForFormulaInjection(holding.Name),
			string(holding.Market),
			formatFloat(holding.Qty),
			formatFloat(holding.TotalCost),
			formatFloat(holding.AvgCost),
			formatFloat(holding.CurrPrice),
			formatFloat(holding.MarketValue),
			formatFloat(holding.UnrealizedPL),
			formatFloat(holding.ProfitRate),
			formatFloat(holding.Dividend),
		})
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSVRow(w http.ResponseWriter, fields []string) {
	writer := csv.NewWriter(w)
	writer.Write(fields)
	writer.Flush()
}

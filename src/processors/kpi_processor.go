package processors

import (
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/utils"
)

type kpiProcessorImpl struct{}

func NewKpiProcessor() KpiProcessor {
	return &kpiProcessorImpl{}
}

// Compute rolls the holdings into one KPI snapshot. In the ALL view, US
// amounts are converted at the exchange rate before summing; single-market
// views never convert. Net profit is unrealized P/L minus accrued debt
// interest (TWD). The realized-gain display value follows the same view
// rules: single-market views show that market's bucket as-is, the ALL view
// blends TWD + floor(USD x rate) and adds accumulated interest income.
func (p *kpiProcessorImpl) Compute(holdings []models.Holding, view models.KpiView, exchangeRate float64,
	realized models.RealizedGain, interestIncome, accruedDebtInterest float64) models.KpiData {

	var totalVal, totalCost, totalDiv, pl float64
	for _, h := range holdings {
		if view != models.ViewAll && h.Market != models.Market(view) {
			continue
		}
		factor := 1.0
		if view == models.ViewAll && h.Market == models.MarketUS {
			factor = exchangeRate
		}
		totalVal += h.MarketValue * factor
		totalCost += h.TotalCost * factor
		totalDiv += h.Dividend * factor
		pl += h.UnrealizedPL * factor
	}

	plRate := 0.0
	if totalCost > 0 {
		plRate = pl / totalCost * 100
	}

	return models.KpiData{
		TotalVal:     totalVal,
		TotalCost:    totalCost,
		PL:           pl,
		PLRate:       plRate,
		TotalDiv:     totalDiv,
		NetProfit:    pl - accruedDebtInterest,
		RealizedGain: realizedDisplay(view, realized, exchangeRate, interestIncome),
	}
}

func realizedDisplay(view models.KpiView, realized models.RealizedGain, exchangeRate, interestIncome float64) float64 {
	twd := utils.RoundToUnit(realized.TWD)
	usd := utils.RoundFloat(realized.USD, 2)
	switch view {
	case models.ViewUS:
		return usd
	case models.ViewTW:
		return twd
	default:
		return twd + utils.FloorToUnit(usd*exchangeRate) + interestIncome
	}
}

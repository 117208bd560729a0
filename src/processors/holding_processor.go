package processors

import (
	"math"
	"strings"

	"github.com/username/wealthfolio/src/models"
)

// Disposal-cost estimation applies to the TW market only. A TW code with the
// "00" prefix is an ETF and enjoys the reduced transaction tax.
const (
	etfCodePrefix = "00"

	etfTaxRate      = 0.001
	stockTaxRate    = 0.003
	disposalFeeRate = 0.001425

	// Flat yield heuristic for the estimated dividend column; the actual
	// interest ledger is tracked separately.
	dividendYieldEstimate = 0.045
)

type holdingProcessorImpl struct {
	costBasis CostBasisProcessor
}

func NewHoldingProcessor(costBasis CostBasisProcessor) HoldingProcessor {
	return &holdingProcessorImpl{costBasis: costBasis}
}

// Process values every instrument with an open position. A missing quote
// falls back to the pool's average cost, so a holding is never shown without
// a price. Pure function of (transactions, prices); calling it twice with the
// same inputs yields identical output.
func (p *holdingProcessorImpl) Process(transactions []models.Transaction, prices map[string]float64) []models.Holding {
	pools, _ := p.costBasis.Process(transactions)

	holdings := make([]models.Holding, 0, len(pools))
	for _, pool := range pools {
		if pool.Qty <= 0 {
			continue
		}

		avgCost := pool.TotalCost / pool.Qty
		currPrice := prices[pool.Code]
		if currPrice == 0 {
			currPrice = avgCost
		}
		marketValue := pool.Qty * currPrice

		estimatedTax, estimatedFee := estimateDisposalCost(pool.Market, pool.Code, marketValue)
		unrealizedPL := marketValue - pool.TotalCost - estimatedTax - estimatedFee

		profitRate := 0.0
		if pool.TotalCost > 0 {
			profitRate = unrealizedPL / pool.TotalCost * 100
		}

		holdings = append(holdings, models.Holding{
			Code:         pool.Code,
			Name:         pool.Name,
			Market:       pool.Market,
			Qty:          pool.Qty,
			TotalCost:    pool.TotalCost,
			AvgCost:      avgCost,
			CurrPrice:    currPrice,
			MarketValue:  marketValue,
			UnrealizedPL: unrealizedPL,
			ProfitRate:   profitRate,
			Dividend:     pool.TotalCost * dividendYieldEstimate,
		})
	}
	return holdings
}

// estimateDisposalCost returns the transaction tax and fee a full disposal at
// market value would incur, rounded to whole TWD. US holdings are treated as
// zero disposal cost.
func estimateDisposalCost(market models.Market, code string, marketValue float64) (tax, fee float64) {
	if market != models.MarketTW {
		return 0, 0
	}
	taxRate := stockTaxRate
	if strings.HasPrefix(code, etfCodePrefix) {
		taxRate = etfTaxRate
	}
	return math.Round(marketValue * taxRate), math.Round(marketValue * disposalFeeRate)
}

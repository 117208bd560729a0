package processors

import (
	"sort"

	"github.com/username/wealthfolio/src/models"
)

// poolEpsilon is the quantity below which a pool is considered emptied.
// Forcing qty and cost to exactly 0 there stops floating-point dust from
// surviving a full disposal. An over-sold pool lands below the epsilon too,
// so over-sells zero the pool instead of going negative.
const poolEpsilon = 1e-6

type costBasisProcessorImpl struct{}

func NewCostBasisProcessor() CostBasisProcessor {
	return &costBasisProcessorImpl{}
}

// Process replays the full history in ascending date order, maintaining one
// weighted-average pool per instrument code. Same-date transactions keep
// their input order; realized sell profit is attributed to the transaction's
// market currency bucket with no conversion. The input slice is not mutated.
func (p *costBasisProcessorImpl) Process(transactions []models.Transaction) ([]CostPool, models.RealizedGain) {
	sorted := sortByDateAscending(transactions)

	var realized models.RealizedGain
	pools := make(map[string]*CostPool)
	var order []string

	for _, t := range sorted {
		if t.Code == "" {
			continue
		}
		pool, ok := pools[t.Code]
		if !ok {
			pool = &CostPool{Code: t.Code, Name: t.Name, Market: t.Market}
			pools[t.Code] = pool
			order = append(order, t.Code)
		}

		if t.Type == models.TxnBuy {
			pool.Qty += t.Qty
			pool.TotalCost += t.Price*t.Qty + t.Fee
		} else {
			avgCost := 0.0
			if pool.Qty > 0 {
				avgCost = pool.TotalCost / pool.Qty
			}
			proceeds := t.Price*t.Qty - t.Fee - t.Tax
			costOfSold := avgCost * t.Qty
			profit := proceeds - costOfSold

			if t.Market == models.MarketUS {
				realized.USD += profit
			} else {
				realized.TWD += profit
			}

			pool.TotalCost -= costOfSold
			pool.Qty -= t.Qty
		}

		if pool.Qty < poolEpsilon {
			pool.Qty = 0
			pool.TotalCost = 0
		}
	}

	result := make([]CostPool, 0, len(order))
	for _, code := range order {
		result = append(result, *pools[code])
	}
	return result, realized
}

// sortByDateAscending returns a date-sorted copy. The sort is stable so that
// same-date buy/sell pairs are processed in the order they appear in the
// canonical list; reordering them would change realized-gain attribution.
func sortByDateAscending(transactions []models.Transaction) []models.Transaction {
	sorted := make([]models.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}

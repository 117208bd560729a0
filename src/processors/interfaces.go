package processors

import (
	"time"

	"github.com/username/wealthfolio/src/models"
)

// CostPool is the weighted-average cost aggregate for one instrument after a
// full replay of its transaction history. It is derived state: pools are
// rebuilt from scratch on every query and hold no identity across calls.
type CostPool struct {
	Code      string
	Name      string
	Market    models.Market
	Qty       float64
	TotalCost float64
}

// CostBasisProcessor replays a transaction history into per-instrument cost
// pools and the realized-gain buckets.
type CostBasisProcessor interface {
	Process(transactions []models.Transaction) ([]CostPool, models.RealizedGain)
}

// HoldingProcessor values the open positions of a transaction history
// against a price map.
type HoldingProcessor interface {
	Process(transactions []models.Transaction, prices map[string]float64) []models.Holding
}

// KpiProcessor rolls holdings, realized gains, interest income, and debt
// accrual into one dashboard snapshot for a view filter.
type KpiProcessor interface {
	Compute(holdings []models.Holding, view models.KpiView, exchangeRate float64,
		realized models.RealizedGain, interestIncome, accruedDebtInterest float64) models.KpiData
}

// DebtProcessor computes simple daily interest accrual over the debt list.
type DebtProcessor interface {
	Stats(debts []models.Debt, now time.Time) models.DebtStats
	ApplyRepayment(debt models.Debt, repayment models.Repayment) models.Debt
}

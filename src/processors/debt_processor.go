package processors

import (
	"math"
	"time"

	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/parsers"
)

const hoursPerDay = 24

type debtProcessorImpl struct{}

func NewDebtProcessor() DebtProcessor {
	return &debtProcessorImpl{}
}

// Stats sums current principals and accrued simple interest across all
// debts. Accrual is always computed against the current outstanding
// principal, not a historical one, so past repayments reduce future accrual
// but never rewrite it.
func (p *debtProcessorImpl) Stats(debts []models.Debt, now time.Time) models.DebtStats {
	var stats models.DebtStats
	for _, d := range debts {
		stats.TotalDebt += d.Amount
		stats.TotalInterest += accruedInterest(d, now)
	}
	return stats
}

// accruedInterest = floor(principal x dailyRate x elapsedDays). A debt
// missing its rate, amount, or origination date contributes 0. Elapsed days
// is the ceiling of the absolute difference, so a future-dated origination
// still yields a non-negative count.
func accruedInterest(d models.Debt, now time.Time) float64 {
	if d.Amount == 0 || d.Rate == 0 || d.Date == "" {
		return 0
	}
	start, err := time.Parse(parsers.DateFormat, d.Date)
	if err != nil {
		return 0
	}
	elapsed := math.Abs(now.Sub(start).Hours())
	days := math.Ceil(elapsed / hoursPerDay)
	dailyRate := d.Rate / 100 / 365
	return math.Floor(d.Amount * dailyRate * days)
}

// ApplyRepayment records the repayment and reduces the outstanding principal,
// floored at 0.
func (p *debtProcessorImpl) ApplyRepayment(debt models.Debt, repayment models.Repayment) models.Debt {
	remaining := debt.Amount - repayment.Amount
	if remaining < 0 {
		remaining = 0
	}
	debt.Amount = remaining
	debt.Repayments = append(append([]models.Repayment{}, debt.Repayments...), repayment)
	return debt
}

package services

import (
	"errors"

	"github.com/username/wealthfolio/src/models"
)

var (
	// ErrNotFound is returned when a mutation targets a record that does
	// not exist.
	ErrNotFound = errors.New("record not found")
)

// PortfolioService is the single logical writer of the persisted lists. All
// derived values it returns are recomputed from the full history on every
// call; the service never mutates caller-provided inputs.
type PortfolioService interface {
	Transactions() ([]models.Transaction, error)
	AddTransaction(txn models.Transaction) (models.Transaction, error)
	UpdateTransaction(txn models.Transaction) error
	DeleteTransaction(id string) error
	AppendTransactions(txns []models.Transaction) (int, error)
	ReplaceTransactions(txns []models.Transaction) error

	Holdings(prices map[string]float64) ([]models.Holding, error)
	RealizedGains() (models.RealizedGain, error)
	Kpi(view models.KpiView, prices map[string]float64, exchangeRate float64) (models.KpiData, error)

	Debts() ([]models.Debt, error)
	SaveDebt(debt models.Debt) (models.Debt, error)
	DeleteDebt(id string) error
	RepayDebt(debtID string, repayment models.Repayment) (models.Debt, error)
	ReplaceDebts(debts []models.Debt) error
	DebtStats() (models.DebtStats, error)

	Interests() ([]models.InterestRecord, error)
	SaveInterest(record models.InterestRecord) (models.InterestRecord, error)
	DeleteInterest(id string) error
	ReplaceInterests(records []models.InterestRecord) error
	InterestIncome() (float64, error)

	Strategy() (string, error)
	SetStrategy(text string) error

	// SetOnChange registers the callback invoked after every persisted
	// mutation, with the dataset name that changed. The computation layer
	// emits nothing else; notifications and sync belong to the callers.
	SetOnChange(fn func(dataset string))
	// SetOnRealized registers the callback invoked when a new sell produces
	// a realized-gain audit record.
	SetOnRealized(fn func(record models.RealizedRecord))
}

// PriceService resolves instrument codes to latest prices. Absent quotes are
// tolerated; callers fall back to average cost.
type PriceService interface {
	GetPrice(code string) (float64, error)
	GetPrices(codes []string) map[string]float64
}

// RateService resolves the USD->TWD exchange rate, with a configured
// fallback when the source is unreachable.
type RateService interface {
	GetRate() float64
}

// Datasets announced through the PortfolioService change callback.
const (
	DatasetTransactions = "transactions"
	DatasetDebts        = "debts"
	DatasetInterests    = "interests"
)

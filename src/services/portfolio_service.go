package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/src/database"
	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/parsers"
	"github.com/username/wealthfolio/src/processors"
	"github.com/username/wealthfolio/src/utils"
)

const (
	// Cached canonical lists; invalidated on every mutation so reads stay
	// consistent with the store. Derived values are never cached.
	ckTransactions = "list_transactions"
	ckDebts        = "list_debts"
	ckInterests    = "list_interests"

	defaultStrategy = "穩定持股，專注獲利"
)

type portfolioServiceImpl struct {
	costBasis  processors.CostBasisProcessor
	holdings   processors.HoldingProcessor
	kpi        processors.KpiProcessor
	debts      processors.DebtProcessor
	listCache  *cache.Cache
	onChange   func(dataset string)
	onRealized func(record models.RealizedRecord)
}

func NewPortfolioService(
	costBasis processors.CostBasisProcessor,
	holdings processors.HoldingProcessor,
	kpi processors.KpiProcessor,
	debts processors.DebtProcessor,
	listCache *cache.Cache,
) PortfolioService {
	return &portfolioServiceImpl{
		costBasis:  costBasis,
		holdings:   holdings,
		kpi:        kpi,
		debts:      debts,
		listCache:  listCache,
		onChange:   func(string) {},
		onRealized: func(models.RealizedRecord) {},
	}
}

func (s *portfolioServiceImpl) SetOnChange(fn func(dataset string)) {
	if fn != nil {
		s.onChange = fn
	}
}

func (s *portfolioServiceImpl) SetOnRealized(fn func(record models.RealizedRecord)) {
	if fn != nil {
		s.onRealized = fn
	}
}

// --- Transactions ---

func (s *portfolioServiceImpl) Transactions() ([]models.Transaction, error) {
	if cached, found := s.listCache.Get(ckTransactions); found {
		return cached.([]models.Transaction), nil
	}
	value, err := database.GetValue(database.KeyTransactions)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	txns := []models.Transaction{}
	if value != "" {
		var raws []parsers.RawTransaction
		if err := json.Unmarshal([]byte(value), &raws); err != nil {
			return nil, fmt.Errorf("decoding stored transactions: %w", err)
		}
		txns = parsers.ParseTransactions(raws)
	}
	s.listCache.Set(ckTransactions, txns, cache.NoExpiration)
	return txns, nil
}

func (s *portfolioServiceImpl) saveTransactions(txns []models.Transaction) error {
	data, err := json.Marshal(txns)
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	if err := database.SetValue(database.KeyTransactions, string(data)); err != nil {
		return fmt.Errorf("persisting transactions: %w", err)
	}
	s.listCache.Set(ckTransactions, txns, cache.NoExpiration)
	s.onChange(DatasetTransactions)
	return nil
}

// AddTransaction canonicalizes and prepends one transaction. A new sell also
// emits a realized-gain audit record computed against the average cost held
// before the sell is applied.
func (s *portfolioServiceImpl) AddTransaction(txn models.Transaction) (models.Transaction, error) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	canonical, err := parsers.ParseTransaction(parsers.RawTransaction{
		ID: txn.ID, Date: txn.Date, Market: string(txn.Market), Type: string(txn.Type),
		Code: txn.Code, Name: txn.Name, Price: txn.Price, Qty: txn.Qty, Fee: txn.Fee, Tax: txn.Tax,
	})
	if err != nil {
		return models.Transaction{}, err
	}

	current, err := s.Transactions()
	if err != nil {
		return models.Transaction{}, err
	}

	if canonical.Type == models.TxnSell {
		if record, ok := s.buildRealizedRecord(current, canonical); ok {
			s.onRealized(record)
		}
	}

	updated := append([]models.Transaction{canonical}, current...)
	if err := s.saveTransactions(updated); err != nil {
		return models.Transaction{}, err
	}
	logger.L.Info("Transaction added", "id", canonical.ID, "code", canonical.Code, "type", canonical.Type)
	return canonical, nil
}

func (s *portfolioServiceImpl) buildRealizedRecord(current []models.Transaction, sell models.Transaction) (models.RealizedRecord, bool) {
	pools, _ := s.costBasis.Process(current)
	avgCost := 0.0
	for _, pool := range pools {
		if pool.Code == sell.Code && pool.Qty > 0 {
			avgCost = pool.TotalCost / pool.Qty
			break
		}
	}
	costOfSold := avgCost * sell.Qty
	rawProfit := sell.Price*sell.Qty - sell.Fee - sell.Tax - costOfSold

	record := models.RealizedRecord{
		ID:        uuid.NewString(),
		Date:      sell.Date,
		Market:    sell.Market,
		Code:      sell.Code,
		Name:      sell.Name,
		Qty:       sell.Qty,
		SellPrice: sell.Price,
		TotalCost: utils.RoundFloat(costOfSold, 2),
		Note:      "auto-settled",
	}
	if sell.Market == models.MarketUS {
		record.NetProfitUSD = utils.RoundFloat(rawProfit, 2)
	} else {
		record.NetProfitTWD = utils.RoundToUnit(rawProfit)
	}
	return record, true
}

func (s *portfolioServiceImpl) UpdateTransaction(txn models.Transaction) error {
	canonical, err := parsers.ParseTransaction(parsers.RawTransaction{
		ID: txn.ID, Date: txn.Date, Market: string(txn.Market), Type: string(txn.Type),
		Code: txn.Code, Name: txn.Name, Price: txn.Price, Qty: txn.Qty, Fee: txn.Fee, Tax: txn.Tax,
	})
	if err != nil {
		return err
	}
	current, err := s.Transactions()
	if err != nil {
		return err
	}
	updated := make([]models.Transaction, len(current))
	found := false
	for i, t := range current {
		if t.ID == canonical.ID {
			updated[i] = canonical
			found = true
		} else {
			updated[i] = t
		}
	}
	if !found {
		return ErrNotFound
	}
	return s.saveTransactions(updated)
}

func (s *portfolioServiceImpl) DeleteTransaction(id string) error {
	current, err := s.Transactions()
	if err != nil {
		return err
	}
	updated := make([]models.Transaction, 0, len(current))
	for _, t := range current {
		if t.ID != id {
			updated = append(updated, t)
		}
	}
	if len(updated) == len(current) {
		return ErrNotFound
	}
	return s.saveTransactions(updated)
}

// AppendTransactions adds imported rows to the existing list; import never
// replaces history. Returns the number of rows appended.
func (s *portfolioServiceImpl) AppendTransactions(txns []models.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	current, err := s.Transactions()
	if err != nil {
		return 0, err
	}
	updated := append(append([]models.Transaction{}, current...), txns...)
	if err := s.saveTransactions(updated); err != nil {
		return 0, err
	}
	return len(txns), nil
}

// ReplaceTransactions swaps the whole list; used when a non-empty remote
// mirror wins over local state.
func (s *portfolioServiceImpl) ReplaceTransactions(txns []models.Transaction) error {
	if txns == nil {
		txns = []models.Transaction{}
	}
	return s.saveTransactions(txns)
}

// --- Derived snapshots ---

func (s *portfolioServiceImpl) Holdings(prices map[string]float64) ([]models.Holding, error) {
	txns, err := s.Transactions()
	if err != nil {
		return nil, err
	}
	return s.holdings.Process(txns, prices), nil
}

func (s *portfolioServiceImpl) RealizedGains() (models.RealizedGain, error) {
	txns, err := s.Transactions()
	if err != nil {
		return models.RealizedGain{}, err
	}
	_, realized := s.costBasis.Process(txns)
	return realized, nil
}

func (s *portfolioServiceImpl) Kpi(view models.KpiView, prices map[string]float64, exchangeRate float64) (models.KpiData, error) {
	holdings, err := s.Holdings(prices)
	if err != nil {
		return models.KpiData{}, err
	}
	realized, err := s.RealizedGains()
	if err != nil {
		return models.KpiData{}, err
	}
	interestIncome, err := s.InterestIncome()
	if err != nil {
		return models.KpiData{}, err
	}
	stats, err := s.DebtStats()
	if err != nil {
		return models.KpiData{}, err
	}
	return s.kpi.Compute(holdings, view, exchangeRate, realized, interestIncome, stats.TotalInterest), nil
}

// --- Debts ---

func (s *portfolioServiceImpl) Debts() ([]models.Debt, error) {
	if cached, found := s.listCache.Get(ckDebts); found {
		return cached.([]models.Debt), nil
	}
	value, err := database.GetValue(database.KeyDebts)
	if err != nil {
		return nil, fmt.Errorf("loading debts: %w", err)
	}
	debts := []models.Debt{}
	if value != "" {
		var raws []parsers.RawDebt
		if err := json.Unmarshal([]byte(value), &raws); err != nil {
			return nil, fmt.Errorf("decoding stored debts: %w", err)
		}
		debts = parsers.ParseDebts(raws)
	}
	s.listCache.Set(ckDebts, debts, cache.NoExpiration)
	return debts, nil
}

func (s *portfolioServiceImpl) saveDebts(debts []models.Debt) error {
	data, err := json.Marshal(debts)
	if err != nil {
		return fmt.Errorf("encoding debts: %w", err)
	}
	if err := database.SetValue(database.KeyDebts, string(data)); err != nil {
		return fmt.Errorf("persisting debts: %w", err)
	}
	s.listCache.Set(ckDebts, debts, cache.NoExpiration)
	s.onChange(DatasetDebts)
	return nil
}

func (s *portfolioServiceImpl) SaveDebt(debt models.Debt) (models.Debt, error) {
	if debt.ID == "" {
		debt.ID = uuid.NewString()
	}
	canonical, err := parsers.ParseDebt(parsers.RawDebt{
		ID: debt.ID, Type: string(debt.Type), Symbol: debt.Symbol, Shares: debt.Shares,
		Amount: debt.Amount, Rate: debt.Rate, Date: debt.Date, Fee: debt.Fee, Note: debt.Note,
		Repayments: debt.Repayments,
	})
	if err != nil {
		return models.Debt{}, err
	}
	current, err := s.Debts()
	if err != nil {
		return models.Debt{}, err
	}
	updated := make([]models.Debt, 0, len(current)+1)
	replaced := false
	for _, d := range current {
		if d.ID == canonical.ID {
			updated = append(updated, canonical)
			replaced = true
		} else {
			updated = append(updated, d)
		}
	}
	if !replaced {
		updated = append([]models.Debt{canonical}, updated...)
	}
	if err := s.saveDebts(updated); err != nil {
		return models.Debt{}, err
	}
	return canonical, nil
}

func (s *portfolioServiceImpl) DeleteDebt(id string) error {
	current, err := s.Debts()
	if err != nil {
		return err
	}
	updated := make([]models.Debt, 0, len(current))
	for _, d := range current {
		if d.ID != id {
			updated = append(updated, d)
		}
	}
	if len(updated) == len(current) {
		return ErrNotFound
	}
	return s.saveDebts(updated)
}

func (s *portfolioServiceImpl) RepayDebt(debtID string, repayment models.Repayment) (models.Debt, error) {
	if repayment.ID == "" {
		repayment.ID = uuid.NewString()
	}
	repayment.Date = parsers.NormalizeDate(repayment.Date)
	current, err := s.Debts()
	if err != nil {
		return models.Debt{}, err
	}
	var repaid models.Debt
	found := false
	updated := make([]models.Debt, len(current))
	for i, d := range current {
		if d.ID == debtID {
			repaid = s.debts.ApplyRepayment(d, repayment)
			updated[i] = repaid
			found = true
		} else {
			updated[i] = d
		}
	}
	if !found {
		return models.Debt{}, ErrNotFound
	}
	if err := s.saveDebts(updated); err != nil {
		return models.Debt{}, err
	}
	logger.L.Info("Debt repayment recorded", "debtID", debtID, "amount", repayment.Amount, "type", repayment.Type)
	return repaid, nil
}

func (s *portfolioServiceImpl) ReplaceDebts(debts []models.Debt) error {
	if debts == nil {
		debts = []models.Debt{}
	}
	return s.saveDebts(debts)
}

func (s *portfolioServiceImpl) DebtStats() (models.DebtStats, error) {
	debts, err := s.Debts()
	if err != nil {
		return models.DebtStats{}, err
	}
	return s.debts.Stats(debts, time.Now()), nil
}

// --- Interests ---

func (s *portfolioServiceImpl) Interests() ([]models.InterestRecord, error) {
	if cached, found := s.listCache.Get(ckInterests); found {
		return cached.([]models.InterestRecord), nil
	}
	value, err := database.GetValue(database.KeyInterests)
	if err != nil {
		return nil, fmt.Errorf("loading interests: %w", err)
	}
	records := []models.InterestRecord{}
	if value != "" {
		var raws []parsers.RawInterest
		if err := json.Unmarshal([]byte(value), &raws); err != nil {
			return nil, fmt.Errorf("decoding stored interests: %w", err)
		}
		records = parsers.ParseInterests(raws)
	}
	s.listCache.Set(ckInterests, records, cache.NoExpiration)
	return records, nil
}

func (s *portfolioServiceImpl) saveInterests(records []models.InterestRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding interests: %w", err)
	}
	if err := database.SetValue(database.KeyInterests, string(data)); err != nil {
		return fmt.Errorf("persisting interests: %w", err)
	}
	s.listCache.Set(ckInterests, records, cache.NoExpiration)
	s.onChange(DatasetInterests)
	return nil
}

func (s *portfolioServiceImpl) SaveInterest(record models.InterestRecord) (models.InterestRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	canonical, err := parsers.ParseInterest(parsers.RawInterest{
		ID: record.ID, StockSymbol: record.StockSymbol, StockName: record.StockName,
		DistributeDate: record.DistributeDate, PerShareDiv: record.PerShareDividend,
		CashDividend: record.CashDividend,
	})
	if err != nil {
		return models.InterestRecord{}, err
	}
	current, err := s.Interests()
	if err != nil {
		return models.InterestRecord{}, err
	}
	updated := make([]models.InterestRecord, 0, len(current)+1)
	replaced := false
	for _, r := range current {
		if r.ID == canonical.ID {
			updated = append(updated, canonical)
			replaced = true
		} else {
			updated = append(updated, r)
		}
	}
	if !replaced {
		updated = append([]models.InterestRecord{canonical}, updated...)
	}
	if err := s.saveInterests(updated); err != nil {
		return models.InterestRecord{}, err
	}
	return canonical, nil
}

func (s *portfolioServiceImpl) DeleteInterest(id string) error {
	current, err := s.Interests()
	if err != nil {
		return err
	}
	updated := make([]models.InterestRecord, 0, len(current))
	for _, r := range current {
		if r.ID != id {
			updated = append(updated, r)
		}
	}
	if len(updated) == len(current) {
		return ErrNotFound
	}
	return s.saveInterests(updated)
}

func (s *portfolioServiceImpl) ReplaceInterests(records []models.InterestRecord) error {
	if records == nil {
		records = []models.InterestRecord{}
	}
	return s.saveInterests(records)
}

// InterestIncome is the sum of actually received cash dividends.
func (s *portfolioServiceImpl) InterestIncome() (float64, error) {
	records, err := s.Interests()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range records {
		total += r.CashDividend
	}
	return total, nil
}

// --- Strategy ---

func (s *portfolioServiceImpl) Strategy() (string, error) {
	value, err := database.GetValue(database.KeyStrategy)
	if err != nil {
		return "", fmt.Errorf("loading strategy: %w", err)
	}
	if value == "" {
		return defaultStrategy, nil
	}
	return value, nil
}

func (s *portfolioServiceImpl) SetStrategy(text string) error {
	if err := database.SetValue(database.KeyStrategy, text); err != nil {
		return fmt.Errorf("persisting strategy: %w", err)
	}
	return nil
}

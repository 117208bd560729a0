package parsers

import (
	"encoding/json"
	"strings"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
)

// RawDebt mirrors a debt row from the store or the remote mirror. The
// repayments column may arrive as a JSON string when round-tripped through a
// spreadsheet cell.
type RawDebt struct {
	ID         any `json:"id"`
	Type       any `json:"type"`
	Symbol     any `json:"symbol"`
	Shares     any `json:"shares"`
	Amount     any `json:"amount"`
	Rate       any `json:"rate"`
	Date       any `json:"date"`
	Fee        any `json:"fee"`
	Note       any `json:"note"`
	Repayments any `json:"repayments"`
}

// RawInterest mirrors an interest row. Remote sheets use the short column
// names (code/name/cash/perShare); the local store uses the full ones.
type RawInterest struct {
	ID             any `json:"id"`
	Date           any `json:"date"`
	Code           any `json:"code"`
	Name           any `json:"name"`
	Cash           any `json:"cash"`
	PerShare       any `json:"perShare"`
	StockSymbol    any `json:"stockSymbol"`
	StockName      any `json:"stockName"`
	DistributeDate any `json:"distributeDate"`
	CashDividend   any `json:"cashDividend"`
	PerShareDiv    any `json:"perShareDividend"`
}

// ParseDebt canonicalizes one raw debt row, or rejects it without an id.
func ParseDebt(raw RawDebt) (models.Debt, error) {
	id := strings.TrimSpace(asString(raw.ID))
	if id == "" {
		return models.Debt{}, ErrMissingID
	}

	kind := models.DebtLoan
	if strings.EqualFold(strings.TrimSpace(asString(raw.Type)), string(models.DebtPledge)) {
		kind = models.DebtPledge
	}

	return models.Debt{
		ID:         id,
		Type:       kind,
		Symbol:     strings.ToUpper(strings.TrimSpace(asString(raw.Symbol))),
		Shares:     asFloat(raw.Shares),
		Amount:     asFloat(raw.Amount),
		Rate:       asFloat(raw.Rate),
		Date:       NormalizeDate(raw.Date),
		Fee:        asFloat(raw.Fee),
		Note:       strings.TrimSpace(asString(raw.Note)),
		Repayments: parseRepayments(raw.Repayments),
	}, nil
}

// ParseDebts canonicalizes a batch, dropping rejected rows.
func ParseDebts(raws []RawDebt) []models.Debt {
	debts := make([]models.Debt, 0, len(raws))
	for _, raw := range raws {
		d, err := ParseDebt(raw)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping unusable raw debt", "error", err)
			}
			continue
		}
		debts = append(debts, d)
	}
	return debts
}

func parseRepayments(value any) []models.Repayment {
	var repayments []models.Repayment
	switch v := value.(type) {
	case nil:
		return []models.Repayment{}
	case string:
		if strings.TrimSpace(v) == "" {
			return []models.Repayment{}
		}
		if err := json.Unmarshal([]byte(v), &repayments); err != nil {
			if logger.L != nil {
				logger.L.Warn("Unparseable repayments column, dropping", "error", err)
			}
			return []models.Repayment{}
		}
	default:
		// Already structured; round-trip through JSON to coerce types.
		data, err := json.Marshal(v)
		if err != nil {
			return []models.Repayment{}
		}
		if err := json.Unmarshal(data, &repayments); err != nil {
			return []models.Repayment{}
		}
	}
	if repayments == nil {
		repayments = []models.Repayment{}
	}
	return repayments
}

// ParseInterest canonicalizes one raw interest row, or rejects it without an
// id. Short remote column names win over the full local ones when both are
// present.
func ParseInterest(raw RawInterest) (models.InterestRecord, error) {
	id := strings.TrimSpace(asString(raw.ID))
	if id == "" {
		return models.InterestRecord{}, ErrMissingID
	}

	symbol := strings.ToUpper(strings.TrimSpace(firstString(raw.Code, raw.StockSymbol)))
	name := strings.TrimSpace(firstString(raw.Name, raw.StockName))
	if name == "" {
		name = symbol
	}

	return models.InterestRecord{
		ID:               id,
		StockSymbol:      symbol,
		StockName:        name,
		DistributeDate:   NormalizeDate(firstValue(raw.Date, raw.DistributeDate)),
		PerShareDividend: asFloat(firstValue(raw.PerShare, raw.PerShareDiv)),
		CashDividend:     asFloat(firstValue(raw.Cash, raw.CashDividend)),
	}, nil
}

// ParseInterests canonicalizes a batch, dropping rejected rows.
func ParseInterests(raws []RawInterest) []models.InterestRecord {
	records := make([]models.InterestRecord, 0, len(raws))
	for _, raw := range raws {
		r, err := ParseInterest(raw)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping unusable raw interest record", "error", err)
			}
			continue
		}
		records = append(records, r)
	}
	return records
}

func firstString(values ...any) string {
	for _, v := range values {
		if s := asString(v); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstValue(values ...any) any {
	for _, v := range values {
		if v != nil && strings.TrimSpace(asString(v)) != "" {
			return v
		}
	}
	return nil
}

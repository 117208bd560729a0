package parsers

import (
	"testing"

	"github.com/username/wealthfolio/src/models"
)

func TestParseDebtRepaymentsFromSpreadsheetCell(t *testing.T) {
	raw := RawDebt{
		ID: "d1", Type: "pledge", Symbol: "2330", Amount: float64(500000),
		Rate: "2.1", Date: "2025-01-01",
		Repayments: `[{"id":"r1","date":"2025/02/01","amount":10000,"type":"principal"}]`,
	}

	debt, err := ParseDebt(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debt.Type != models.DebtPledge {
		t.Errorf("type = %s, want pledge", debt.Type)
	}
	if debt.Rate != 2.1 {
		t.Errorf("rate = %g, want coerced 2.1", debt.Rate)
	}
	if debt.Date != "2025/01/01" {
		t.Errorf("date = %s, want normalized form", debt.Date)
	}
	if len(debt.Repayments) != 1 {
		t.Fatalf("repayments = %d, want 1 decoded from the JSON cell", len(debt.Repayments))
	}
	if debt.Repayments[0].Type != models.RepayPrincipal || debt.Repayments[0].Amount != 10000 {
		t.Errorf("repayment = %+v", debt.Repayments[0])
	}
}

func TestParseDebtDefaultsAndRejections(t *testing.T) {
	if _, err := ParseDebt(RawDebt{Amount: float64(1000)}); err != ErrMissingID {
		t.Errorf("missing id: err = %v, want ErrMissingID", err)
	}

	debt, err := ParseDebt(RawDebt{ID: "d1", Type: "whatever", Repayments: "garbage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debt.Type != models.DebtLoan {
		t.Errorf("type = %s, want loan default", debt.Type)
	}
	if debt.Repayments == nil || len(debt.Repayments) != 0 {
		t.Errorf("repayments = %v, want empty non-nil slice for a garbled cell", debt.Repayments)
	}
}

func TestParseInterestShortRemoteNamesWin(t *testing.T) {
	record, err := ParseInterest(RawInterest{
		ID:   "i1",
		Code: "00662", StockSymbol: "IGNORED",
		Name: "富邦NASDAQ", StockName: "ignored too",
		Cash: float64(1234), CashDividend: float64(9),
		PerShare: "0.5", PerShareDiv: float64(9),
		Date: "45658", DistributeDate: "2020/01/01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.StockSymbol != "00662" {
		t.Errorf("symbol = %s, want the short remote column", record.StockSymbol)
	}
	if record.StockName != "富邦NASDAQ" {
		t.Errorf("name = %s", record.StockName)
	}
	if record.CashDividend != 1234 || record.PerShareDividend != 0.5 {
		t.Errorf("amounts = %+v", record)
	}
	if record.DistributeDate != "2025/01/01" {
		t.Errorf("date = %s, want the serial date decoded", record.DistributeDate)
	}
}

func TestParseInterestFallsBackToLocalColumns(t *testing.T) {
	record, err := ParseInterest(RawInterest{
		ID: "i1", StockSymbol: "2330", DistributeDate: "2025/03/01", CashDividend: float64(5000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.StockSymbol != "2330" || record.CashDividend != 5000 || record.DistributeDate != "2025/03/01" {
		t.Errorf("record = %+v", record)
	}
	if record.StockName != "2330" {
		t.Errorf("name = %s, want symbol fallback", record.StockName)
	}
}

func TestParseInterestsDropsRowsWithoutID(t *testing.T) {
	records := ParseInterests([]RawInterest{
		{ID: "i1", Code: "2330", Cash: float64(100)},
		{Code: "0050", Cash: float64(200)},
	})
	if len(records) != 1 {
		t.Fatalf("kept %d rows, want 1", len(records))
	}
}

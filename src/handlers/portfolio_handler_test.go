package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/username/wealthfolio/src/models"
)

func TestGetHoldingsAppliesStubQuotes(t *testing.T) {
	mux, portfolio := newTestRouter(t, map[string]float64{"2330": 650}, 30)
	portfolio.AddTransaction(models.Transaction{Date: "2025/01/01", Code: "2330", Price: 600, Qty: 1000})

	rec := doJSON(t, mux, http.MethodGet, "/api/holdings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var holdings []models.Holding
	json.Unmarshal(rec.Body.Bytes(), &holdings)
	if len(holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(holdings))
	}
	if holdings[0].CurrPrice != 650 {
		t.Errorf("currPrice = %g, want quoted 650", holdings[0].CurrPrice)
	}
	if holdings[0].MarketValue != 650000 {
		t.Errorf("marketValue = %g, want 650000", holdings[0].MarketValue)
	}
}

func TestGetHoldingsEmptyPortfolioReturnsList(t *testing.T) {
	mux, _ := newTestRouter(t, nil, 30)

	rec := doJSON(t, mux, http.MethodGet, "/api/holdings", nil)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want [] never null", body)
	}
}

func TestGetKpiViewParam(t *testing.T) {
	mux, portfolio := newTestRouter(t, map[string]float64{"AAPL": 120}, 30)
	portfolio.AddTransaction(models.Transaction{Date: "2025/01/01", Market: models.MarketUS, Code: "AAPL", Price: 100, Qty: 10})

	rec := doJSON(t, mux, http.MethodGet, "/api/kpi?view=US", nil)
	var usKpi models.KpiData
	json.Unmarshal(rec.Body.Bytes(), &usKpi)
	if usKpi.TotalVal != 1200 {
		t.Errorf("US totalVal = %g, want unconverted 1200", usKpi.TotalVal)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/kpi", nil)
	var allKpi models.KpiData
	json.Unmarshal(rec.Body.Bytes(), &allKpi)
	if allKpi.TotalVal != 36000 {
		t.Errorf("ALL totalVal = %g, want 1200x30", allKpi.TotalVal)
	}

	// An unknown view falls back to ALL rather than erroring.
	rec = doJSON(t, mux, http.MethodGet, "/api/kpi?view=XX", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("unknown view status = %d, want 200", rec.Code)
	}
}

func TestExportHoldingsSanitizesFormulas(t *testing.T) {
	mux, portfolio := newTestRouter(t, nil, 30)
	portfolio.AddTransaction(models.Transaction{
		ID: "t1", Date: "2025/01/01", Market: models.MarketUS, Code: "=HACK", Name: "=cmd", Price: 10, Qty: 1,
	})

	rec := doJSON(t, mux, http.MethodGet, "/api/holdings/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "'=HACK") {
		t.Errorf("export body should neutralize formula codes:\n%s", body)
	}
	if !strings.Contains(body, "'=cmd") {
		t.Errorf("export body should neutralize formula names:\n%s", body)
	}
}

func TestDebtEndpoints(t *testing.T) {
	mux, _ := newTestRouter(t, nil, 30)

	rec := doJSON(t, mux, http.MethodPost, "/api/debts", models.Debt{Amount: 500000, Rate: 2.1, Date: "2025/01/01"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save debt status = %d, body %s", rec.Code, rec.Body.String())
	}
	var saved models.Debt
	json.Unmarshal(rec.Body.Bytes(), &saved)

	rec = doJSON(t, mux, http.MethodPost, "/api/debts/"+saved.ID+"/repayments", models.Repayment{
		Date: "2025/02/01", Amount: 100000, Type: models.RepayPrincipal,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("repay status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Debt
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Amount != 400000 {
		t.Errorf("amount = %g, want 400000", updated.Amount)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/debts/"+saved.ID+"/repayments", models.Repayment{Amount: 100})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("typeless repayment status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/debts/ghost/repayments", models.Repayment{
		Amount: 100, Type: models.RepayTotal,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("ghost debt status = %d, want 404", rec.Code)
	}
}

func TestInterestEndpoints(t *testing.T) {
	mux, _ := newTestRouter(t, nil, 30)

	rec := doJSON(t, mux, http.MethodPost, "/api/interests", models.InterestRecord{
		StockSymbol: "2330", DistributeDate: "2025/03/01", CashDividend: 5000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/interests", models.InterestRecord{CashDividend: 100})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("symbolless record status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/interests", nil)
	var records []models.InterestRecord
	json.Unmarshal(rec.Body.Bytes(), &records)
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}

func TestStrategyEndpoints(t *testing.T) {
	mux, _ := newTestRouter(t, nil, 30)

	rec := doJSON(t, mux, http.MethodGet, "/api/strategy", nil)
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["text"] == "" {
		t.Error("expected the default strategy text before any write")
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/strategy", map[string]string{"text": "分批進場"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/strategy", nil)
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["text"] != "分批進場" {
		t.Errorf("strategy = %q", body["text"])
	}
}

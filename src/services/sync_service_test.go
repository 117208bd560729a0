package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/username/wealthfolio/src/models"
)

// mirrorStub fakes the spreadsheet-backed endpoint: GET serves per-sheet
// rows, POST records every pushed payload.
type mirrorStub struct {
	mu     sync.Mutex
	sheets map[string][]any
	pushes []pushedPayload
}

type pushedPayload struct {
	SheetName string          `json:"sheetName"`
	Record    json.RawMessage `json:"record"`
}

func (m *mirrorStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			m.mu.Lock()
			rows := m.sheets[r.URL.Query().Get("sheetName")]
			m.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"rows": rows})
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			var payload pushedPayload
			if err := json.Unmarshal(body, &payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			m.mu.Lock()
			m.pushes = append(m.pushes, payload)
			m.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	}
}

func (m *mirrorStub) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func (m *mirrorStub) lastPush() (pushedPayload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pushes) == 0 {
		return pushedPayload{}, false
	}
	return m.pushes[len(m.pushes)-1], true
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestSyncDisabledWithoutScriptURL(t *testing.T) {
	svc := newTestPortfolio(t)
	syncSvc := NewSyncService("", time.Millisecond, time.Second, svc)

	if syncSvc.Enabled() {
		t.Fatal("sync must be disabled without a script URL")
	}
	// All operations are silent no-ops.
	syncSvc.PullAll()
	syncSvc.Schedule(DatasetTransactions)
	syncSvc.Flush()
	syncSvc.PushRealized(models.RealizedRecord{ID: "r1"})
}

func TestPullAllMergesRemoteTransactions(t *testing.T) {
	portfolio := newTestPortfolio(t)
	portfolio.AppendTransactions([]models.Transaction{
		{ID: "local-only", Date: "2025/01/01", Market: models.MarketTW, Type: models.TxnBuy, Code: "2330", Name: "2330", Price: 600, Qty: 1},
		{ID: "shared", Date: "2025/01/02", Market: models.MarketTW, Type: models.TxnBuy, Code: "2330", Name: "2330", Price: 111, Qty: 1},
	})

	stub := &mirrorStub{sheets: map[string][]any{
		"": {
			map[string]any{"id": "shared", "date": "2025/01/02", "market": "TW", "type": "buy", "code": "2330", "price": 605, "qty": 1},
			map[string]any{"id": "remote-only", "date": "2025/01/03", "market": "TW", "type": "buy", "code": "0050", "price": 50, "qty": 10},
		},
	}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	syncSvc := NewSyncService(server.URL, time.Millisecond, time.Second, portfolio)
	syncSvc.PullAll()

	txns, err := portfolio.Transactions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("merged %d transactions, want 3", len(txns))
	}
	if txns[0].ID != "remote-only" {
		t.Errorf("first = %s, want newest remote entry first", txns[0].ID)
	}
	for _, txn := range txns {
		if txn.ID == "shared" && txn.Price != 605 {
			t.Errorf("shared price = %g, want the remote copy to win", txn.Price)
		}
	}
}

func TestPullAllEmptyRemoteNeverClearsLocal(t *testing.T) {
	portfolio := newTestPortfolio(t)
	portfolio.AppendTransactions([]models.Transaction{
		{ID: "local", Date: "2025/01/01", Market: models.MarketTW, Type: models.TxnBuy, Code: "2330", Name: "2330", Price: 600, Qty: 1},
	})

	stub := &mirrorStub{sheets: map[string][]any{}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	syncSvc := NewSyncService(server.URL, time.Millisecond, time.Second, portfolio)
	syncSvc.PullAll()

	txns, _ := portfolio.Transactions()
	if len(txns) != 1 {
		t.Fatalf("local transactions = %d, want untouched 1", len(txns))
	}
}

func TestPullAllUnreachableMirrorKeepsLocal(t *testing.T) {
	portfolio := newTestPortfolio(t)
	portfolio.AppendTransactions([]models.Transaction{
		{ID: "local", Date: "2025/01/01", Market: models.MarketTW, Type: models.TxnBuy, Code: "2330", Name: "2330", Price: 600, Qty: 1},
	})

	server := httptest.NewServer(nil)
	server.Close() // connection refused from here on

	syncSvc := NewSyncService(server.URL, time.Millisecond, time.Second, portfolio)
	syncSvc.PullAll()

	txns, _ := portfolio.Transactions()
	if len(txns) != 1 {
		t.Fatalf("local transactions = %d, want untouched 1", len(txns))
	}
}

func TestPullAppliedStateDoesNotEchoBack(t *testing.T) {
	portfolio := newTestPortfolio(t)
	stub := &mirrorStub{sheets: map[string][]any{
		"": {map[string]any{"id": "remote", "date": "2025/01/01", "market": "TW", "type": "buy", "code": "2330", "price": 600, "qty": 1}},
	}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	syncSvc := NewSyncService(server.URL, 20*time.Millisecond, time.Second, portfolio)
	portfolio.SetOnChange(syncSvc.Schedule)

	syncSvc.PullAll()

	if waitFor(t, 300*time.Millisecond, func() bool { return stub.pushCount() > 0 }) {
		t.Fatal("applying a pulled snapshot must not schedule a push back to the mirror")
	}
}

func TestScheduleDebouncesRapidMutations(t *testing.T) {
	portfolio := newTestPortfolio(t)
	stub := &mirrorStub{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	syncSvc := NewSyncService(server.URL, 50*time.Millisecond, time.Second, portfolio)
	portfolio.SetOnChange(syncSvc.Schedule)

	portfolio.AddTransaction(models.Transaction{Date: "2025/01/01", Code: "2330", Price: 600, Qty: 1})
	portfolio.AddTransaction(models.Transaction{Date: "2025/01/02", Code: "2330", Price: 610, Qty: 1})
	portfolio.AddTransaction(models.Transaction{Date: "2025/01/03", Code: "2330", Price: 620, Qty: 1})

	if !waitFor(t, 2*time.Second, func() bool { return stub.pushCount() == 1 }) {
		t.Fatalf("push count = %d, want rapid mutations coalesced into 1", stub.pushCount())
	}

	// The single push carries the final snapshot, not an intermediate one.
	payload, _ := stub.lastPush()
	if payload.SheetName != "" {
		t.Errorf("sheetName = %q, want default sheet for transactions", payload.SheetName)
	}
	var pushed []models.Transaction
	if err := json.Unmarshal(payload.Record, &pushed); err != nil {
		t.Fatalf("undecodable pushed record: %v", err)
	}
	if len(pushed) != 3 {
		t.Errorf("pushed snapshot has %d transactions, want 3", len(pushed))
	}

	// No trailing extra pushes.
	time.Sleep(150 * time.Millisecond)
	if stub.pushCount() != 1 {
		t.Errorf("push count settled at %d, want 1", stub.pushCount())
	}
}

func TestFlushPushesImmediately(t *testing.T) {
	portfolio := newTestPortfolio(t)
	stub := &mirrorStub{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	// Debounce far beyond the test horizon; only Flush can deliver.
	syncSvc := NewSyncService(server.URL, time.Hour, time.Second, portfolio)
	portfolio.SetOnChange(syncSvc.Schedule)

	portfolio.SaveDebt(models.Debt{Amount: 1000, Rate: 2, Date: "2025/01/01"})
	if stub.pushCount() != 0 {
		t.Fatal("nothing should be pushed before the debounce fires")
	}

	syncSvc.Flush()
	if stub.pushCount() != 1 {
		t.Fatalf("push count after flush = %d, want 1", stub.pushCount())
	}
	payload, _ := stub.lastPush()
	if payload.SheetName != "Debts" {
		t.Errorf("sheetName = %q, want Debts", payload.SheetName)
	}
}

func TestPushRealizedMirrorsAuditRow(t *testing.T) {
	portfolio := newTestPortfolio(t)
	stub := &mirrorStub{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	syncSvc := NewSyncService(server.URL, time.Millisecond, time.Second, portfolio)
	syncSvc.PushRealized(models.RealizedRecord{ID: "r1", Code: "2330", NetProfitTWD: 100})

	if !waitFor(t, 2*time.Second, func() bool { return stub.pushCount() == 1 }) {
		t.Fatalf("push count = %d, want 1", stub.pushCount())
	}
	payload, _ := stub.lastPush()
	if payload.SheetName != "Realized" {
		t.Errorf("sheetName = %q, want Realized", payload.SheetName)
	}
	var record models.RealizedRecord
	if err := json.Unmarshal(payload.Record, &record); err != nil {
		t.Fatalf("undecodable record: %v", err)
	}
	if record.ID != "r1" || record.NetProfitTWD != 100 {
		t.Errorf("mirrored record = %+v", record)
	}
}

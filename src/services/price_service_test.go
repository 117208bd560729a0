package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/src/logger"
)

func newQuoteMux(quotes map[string]quoteResponse) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/price/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		quote, ok := quotes[r.PathValue("symbol")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(quote)
	})
	return mux
}

func TestGetPriceQualifiesTWSymbols(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(newQuoteMux(map[string]quoteResponse{
		"2330.TW": {Price: 600},
		"AAPL":    {Price: 150.5},
	}))
	defer server.Close()

	svc := NewPriceService(server.URL, time.Second, cache.New(time.Minute, time.Minute))

	price, err := svc.GetPrice("2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 600 {
		t.Errorf("price = %g, want 600 via the .TW-qualified symbol", price)
	}

	price, err = svc.GetPrice("aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 150.5 {
		t.Errorf("price = %g, want 150.5", price)
	}
}

func TestGetPriceFallsBackToPreviousClose(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(newQuoteMux(map[string]quoteResponse{
		"2330.TW": {Price: 0, PreviousClose: 595},
	}))
	defer server.Close()

	svc := NewPriceService(server.URL, time.Second, cache.New(time.Minute, time.Minute))

	price, err := svc.GetPrice("2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 595 {
		t.Errorf("price = %g, want previous close 595", price)
	}
}

func TestGetPriceServesCachedQuoteAfterOutage(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(newQuoteMux(map[string]quoteResponse{
		"2330.TW": {Price: 600},
	}))

	svc := NewPriceService(server.URL, time.Second, cache.New(time.Minute, time.Minute))
	if _, err := svc.GetPrice("2330"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server.Close()
	price, err := svc.GetPrice("2330")
	if err != nil {
		t.Fatalf("cached quote should survive the outage: %v", err)
	}
	if price != 600 {
		t.Errorf("price = %g, want cached 600", price)
	}
}

func TestGetPricesToleratesPartialFailure(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(newQuoteMux(map[string]quoteResponse{
		"2330.TW": {Price: 600},
	}))
	defer server.Close()

	svc := NewPriceService(server.URL, time.Second, cache.New(time.Minute, time.Minute))
	prices := svc.GetPrices([]string{"2330", "GHOST", "", "2330"})

	if len(prices) != 1 {
		t.Fatalf("prices = %v, want only the resolvable code", prices)
	}
	if prices["2330"] != 600 {
		t.Errorf("prices[2330] = %g, want 600", prices["2330"])
	}
}

func TestGetRateAndFallback(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"rates": map[string]float64{"TWD": 31.2}})
	}))

	svc := NewRateService(server.URL, time.Second, 32.5)
	if rate := svc.GetRate(); rate != 31.2 {
		t.Errorf("rate = %g, want 31.2", rate)
	}

	// After an outage the last good value keeps serving.
	server.Close()
	if rate := svc.GetRate(); rate != 31.2 {
		t.Errorf("rate after outage = %g, want last good 31.2", rate)
	}
}

func TestGetRateUsesConfiguredFallbackWhenNeverFetched(t *testing.T) {
	logger.InitLogger("error")
	server := httptest.NewServer(nil)
	server.Close()

	svc := NewRateService(server.URL, time.Second, 32.5)
	if rate := svc.GetRate(); rate != 32.5 {
		t.Errorf("rate = %g, want configured fallback 32.5", rate)
	}
}

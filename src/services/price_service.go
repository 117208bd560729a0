package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/src/logger"
	"golang.org/x/net/publicsuffix"
)

var numericSymbolRe = regexp.MustCompile(`^\d+$`)

type quoteResponse struct {
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"regularMarketPreviousClose"`
	LongName      string  `json:"longName"`
	ShortName     string  `json:"shortName"`
}

// priceServiceImpl fetches quotes from the configured stock API and keeps a
// short-lived quote cache so holdings queries don't hammer the upstream.
type priceServiceImpl struct {
	httpClient http.Client
	baseURL    string
	quoteCache *cache.Cache
}

// NewPriceService creates the quote fetcher. The cache is injected so the
// computation layer never reaches into ambient state for prices.
func NewPriceService(baseURL string, timeout time.Duration, quoteCache *cache.Cache) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &priceServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		quoteCache: quoteCache,
	}
}

// GetPrice resolves one code to its latest price, preferring the live quote
// and falling back to the previous close when the live field is empty.
func (s *priceServiceImpl) GetPrice(code string) (float64, error) {
	symbol := querySymbol(code)
	if symbol == "" {
		return 0, fmt.Errorf("empty instrument code")
	}

	if cached, found := s.quoteCache.Get(symbol); found {
		return cached.(float64), nil
	}

	quoteURL := fmt.Sprintf("%s/api/price/%s", s.baseURL, symbol)
	req, err := http.NewRequest(http.MethodGet, quoteURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call price API for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned non-OK status %d for %s", resp.StatusCode, symbol)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("failed to decode price response for %s: %w", symbol, err)
	}

	price := quote.Price
	if price == 0 {
		price = quote.PreviousClose
	}
	if price == 0 {
		return 0, fmt.Errorf("no usable price for %s", symbol)
	}

	s.quoteCache.SetDefault(symbol, price)
	return price, nil
}

// GetPrices fetches quotes for a code list, tolerating per-code failures;
// codes without a quote are simply absent from the result.
func (s *priceServiceImpl) GetPrices(codes []string) map[string]float64 {
	prices := make(map[string]float64, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		price, err := s.GetPrice(code)
		if err != nil {
			logger.L.Warn("Could not fetch price, holding will fall back to average cost", "code", code, "error", err)
			continue
		}
		prices[code] = price
	}
	return prices
}

// querySymbol maps a TW numeric ticker to its exchange-qualified symbol.
func querySymbol(code string) string {
	symbol := strings.ToUpper(strings.TrimSpace(code))
	if symbol == "" {
		return ""
	}
	if numericSymbolRe.MatchString(symbol) {
		return symbol + ".TW"
	}
	return symbol
}

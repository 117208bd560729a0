package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/username/wealthfolio/src/logger"
)

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// rateServiceImpl fetches the USD->TWD rate. It remembers the last good
// value and starts from the configured fallback, so a rate is always
// available even when the source is unreachable.
type rateServiceImpl struct {
	httpClient http.Client
	rateURL    string

	mu       sync.Mutex
	lastGood float64
}

func NewRateService(rateURL string, timeout time.Duration, fallbackRate float64) RateService {
	return &rateServiceImpl{
		httpClient: http.Client{Timeout: timeout},
		rateURL:    rateURL,
		lastGood:   fallbackRate,
	}
}

func (s *rateServiceImpl) GetRate() float64 {
	rate, err := s.fetchRate()
	if err != nil {
		s.mu.Lock()
		fallback := s.lastGood
		s.mu.Unlock()
		logger.L.Warn("Exchange rate fetch failed, using fallback", "error", err, "fallback", fallback)
		return fallback
	}
	s.mu.Lock()
	s.lastGood = rate
	s.mu.Unlock()
	return rate
}

func (s *rateServiceImpl) fetchRate() (float64, error) {
	resp, err := s.httpClient.Get(s.rateURL)
	if err != nil {
		return 0, fmt.Errorf("failed to call exchange rate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate API returned non-OK status %d", resp.StatusCode)
	}

	var parsed rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode exchange rate response: %w", err)
	}

	rate, ok := parsed.Rates["TWD"]
	if !ok || rate == 0 {
		return 0, fmt.Errorf("exchange rate response missing TWD rate")
	}
	return rate, nil
}

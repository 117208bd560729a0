package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/parsers"
)

// Sheet names on the spreadsheet-backed mirror. Transactions live on the
// default (unnamed) sheet.
const (
	sheetTransactions = ""
	sheetDebts        = "Debts"
	sheetInterests    = "Interests"
	sheetRealized     = "Realized"
)

// SyncService mirrors the local lists to a user-supplied spreadsheet-backed
// endpoint, best effort. Outbound writes are debounced: rapid mutations
// coalesce into one write after a quiet period. Failures are logged and
// dropped; local state is always the source of truth.
type SyncService interface {
	Enabled() bool
	PullAll()
	Schedule(dataset string)
	Flush()
	PushRealized(record models.RealizedRecord)
}

type sheetEnvelope struct {
	Rows []json.RawMessage `json:"rows"`
	Data struct {
		Rows []json.RawMessage `json:"rows"`
	} `json:"data"`
}

type syncServiceImpl struct {
	scriptURL  string
	debounce   time.Duration
	httpClient http.Client
	portfolio  PortfolioService

	mu       sync.Mutex
	timers   map[string]*time.Timer
	suppress map[string]int
}

func NewSyncService(scriptURL string, debounce time.Duration, timeout time.Duration, portfolio PortfolioService) SyncService {
	return &syncServiceImpl{
		scriptURL:  scriptURL,
		debounce:   debounce,
		httpClient: http.Client{Timeout: timeout},
		portfolio:  portfolio,
		timers:     make(map[string]*time.Timer),
		suppress:   make(map[string]int),
	}
}

func (s *syncServiceImpl) Enabled() bool {
	return s.scriptURL != ""
}

// PullAll loads every mirrored sheet once, typically at startup. A remote
// list only wins when it is non-empty; an empty or missing response never
// implies "delete everything".
func (s *syncServiceImpl) PullAll() {
	if !s.Enabled() {
		return
	}
	s.pullTransactions()
	s.pullDebts()
	s.pullInterests()
}

func (s *syncServiceImpl) pullTransactions() {
	rows, err := s.fetchRows(sheetTransactions)
	if err != nil {
		logger.L.Warn("Remote transaction pull failed, keeping local state", "error", err)
		return
	}
	var raws []parsers.RawTransaction
	if err := decodeRows(rows, &raws); err != nil {
		logger.L.Warn("Remote transaction rows undecodable, keeping local state", "error", err)
		return
	}
	remote := parsers.ParseTransactions(raws)
	if len(remote) == 0 {
		return
	}
	local, err := s.portfolio.Transactions()
	if err != nil {
		logger.L.Error("Could not load local transactions for merge", "error", err)
		return
	}
	merged := parsers.MergeByID(remote, local)
	s.suppressNext(DatasetTransactions)
	if err := s.portfolio.ReplaceTransactions(merged); err != nil {
		logger.L.Error("Could not apply merged remote transactions", "error", err)
		return
	}
	logger.L.Info("Remote transactions merged", "remote", len(remote), "merged", len(merged))
}

func (s *syncServiceImpl) pullDebts() {
	rows, err := s.fetchRows(sheetDebts)
	if err != nil {
		logger.L.Warn("Remote debt pull failed, keeping local state", "error", err)
		return
	}
	var raws []parsers.RawDebt
	if err := decodeRows(rows, &raws); err != nil {
		logger.L.Warn("Remote debt rows undecodable, keeping local state", "error", err)
		return
	}
	remote := parsers.ParseDebts(raws)
	if len(remote) == 0 {
		return
	}
	s.suppressNext(DatasetDebts)
	if err := s.portfolio.ReplaceDebts(remote); err != nil {
		logger.L.Error("Could not apply remote debts", "error", err)
		return
	}
	logger.L.Info("Remote debts applied", "count", len(remote))
}

func (s *syncServiceImpl) pullInterests() {
	rows, err := s.fetchRows(sheetInterests)
	if err != nil {
		logger.L.Warn("Remote interest pull failed, keeping local state", "error", err)
		return
	}
	var raws []parsers.RawInterest
	if err := decodeRows(rows, &raws); err != nil {
		logger.L.Warn("Remote interest rows undecodable, keeping local state", "error", err)
		return
	}
	remote := parsers.ParseInterests(raws)
	if len(remote) == 0 {
		return
	}
	s.suppressNext(DatasetInterests)
	if err := s.portfolio.ReplaceInterests(remote); err != nil {
		logger.L.Error("Could not apply remote interests", "error", err)
		return
	}
	logger.L.Info("Remote interests applied", "count", len(remote))
}

// Schedule arms (or re-arms) the trailing debounce timer for a dataset. When
// the timer fires, the latest full snapshot is read from the portfolio
// service and pushed; the push sees whatever mutations accumulated during
// the quiet period.
func (s *syncServiceImpl) Schedule(dataset string) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suppress[dataset] > 0 {
		s.suppress[dataset]--
		return
	}

	if timer, ok := s.timers[dataset]; ok {
		timer.Stop()
	}
	s.timers[dataset] = time.AfterFunc(s.debounce, func() {
		s.push(dataset)
	})
}

// Flush pushes all pending datasets immediately; used at shutdown.
func (s *syncServiceImpl) Flush() {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	pending := make([]string, 0, len(s.timers))
	for dataset, timer := range s.timers {
		if timer.Stop() {
			pending = append(pending, dataset)
		}
	}
	s.timers = make(map[string]*time.Timer)
	s.mu.Unlock()

	for _, dataset := range pending {
		s.push(dataset)
	}
}

func (s *syncServiceImpl) push(dataset string) {
	var (
		sheet  string
		record any
		err    error
	)
	switch dataset {
	case DatasetTransactions:
		sheet = sheetTransactions
		record, err = s.portfolio.Transactions()
	case DatasetDebts:
		sheet = sheetDebts
		record, err = s.portfolio.Debts()
	case DatasetInterests:
		sheet = sheetInterests
		record, err = s.portfolio.Interests()
	default:
		logger.L.Warn("Unknown dataset scheduled for sync", "dataset", dataset)
		return
	}
	if err != nil {
		logger.L.Error("Could not snapshot dataset for sync", "dataset", dataset, "error", err)
		return
	}
	if err := s.postRecord(sheet, record); err != nil {
		logger.L.Warn("Remote sync write failed, dropping", "dataset", dataset, "error", err)
		return
	}
	logger.L.Info("Remote sync write complete", "dataset", dataset)
}

// PushRealized mirrors one realized-gain audit row, fire and forget.
func (s *syncServiceImpl) PushRealized(record models.RealizedRecord) {
	if !s.Enabled() {
		return
	}
	go func() {
		if err := s.postRecord(sheetRealized, record); err != nil {
			logger.L.Warn("Realized record mirror failed, dropping", "id", record.ID, "error", err)
			return
		}
		logger.L.Info("Realized record mirrored", "id", record.ID, "code", record.Code)
	}()
}

func (s *syncServiceImpl) fetchRows(sheetName string) ([]json.RawMessage, error) {
	reqURL := s.scriptURL
	if sheetName != "" {
		reqURL = fmt.Sprintf("%s?sheetName=%s", s.scriptURL, url.QueryEscape(sheetName))
	}
	resp, err := s.httpClient.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call remote mirror: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote mirror returned non-OK status %d", resp.StatusCode)
	}

	var envelope sheetEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode remote mirror response: %w", err)
	}
	rows := envelope.Rows
	if len(rows) == 0 {
		rows = envelope.Data.Rows
	}
	return rows, nil
}

// postRecord writes the payload as text/plain; the Apps-Script side rejects
// anything that triggers a CORS preflight.
func (s *syncServiceImpl) postRecord(sheetName string, record any) error {
	payload, err := json.Marshal(map[string]any{
		"sheetName": sheetName,
		"record":    record,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sync payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.scriptURL, "text/plain; charset=utf-8", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to post to remote mirror: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote mirror returned non-OK status %d", resp.StatusCode)
	}
	return nil
}

func (s *syncServiceImpl) suppressNext(dataset string) {
	s.mu.Lock()
	s.suppress[dataset]++
	s.mu.Unlock()
}

func decodeRows[T any](rows []json.RawMessage, out *[]T) error {
	for i, row := range rows {
		var decoded T
		if err := json.Unmarshal(row, &decoded); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		*out = append(*out, decoded)
	}
	return nil
}

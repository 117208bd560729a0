package parsers

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
)

// DateFormat is the canonical calendar-day form every stored date uses.
const DateFormat = "2006/01/02"

// unixEpochSerial is the spreadsheet day-count serial of 1970-01-01.
const unixEpochSerial = 25569

// ErrMissingID marks a raw record with no usable identifier. Such records are
// rejected rather than defaulted.
var ErrMissingID = errors.New("raw transaction has no usable id")

// RawTransaction is the loosely-typed row shape shared by the local store,
// the remote mirror, and spreadsheet import. Fields are `any` because rows
// arrive with inconsistent types (numbers as strings, dates as serials).
type RawTransaction struct {
	ID     any `json:"id"`
	Date   any `json:"date"`
	Market any `json:"market"`
	Type   any `json:"type"`
	Code   any `json:"code"`
	Name   any `json:"name"`
	Price  any `json:"price"`
	Qty    any `json:"qty"`
	Fee    any `json:"fee"`
	Tax    any `json:"tax"`
	Cost   any `json:"cost"`
}

var (
	serialPattern = regexp.MustCompile(`^\d{5}$`)
	eightDigitRe  = regexp.MustCompile(`^\d{8}$`)
	numericCodeRe = regexp.MustCompile(`^\d+$`)
)

// ParseTransaction canonicalizes one raw record into a Transaction, or
// rejects it when the id is missing. Every other defect is repaired with a
// default and a logged diagnostic; parsing never fails for malformed fields.
func ParseTransaction(raw RawTransaction) (models.Transaction, error) {
	id := strings.TrimSpace(asString(raw.ID))
	if id == "" {
		return models.Transaction{}, ErrMissingID
	}

	code := strings.ToUpper(strings.TrimSpace(asString(raw.Code)))
	name := strings.TrimSpace(asString(raw.Name))
	if name == "" {
		name = code
	}

	return models.Transaction{
		ID:     id,
		Date:   NormalizeDate(raw.Date),
		Market: resolveMarket(asString(raw.Market), code),
		Type:   resolveType(asString(raw.Type)),
		Code:   code,
		Name:   name,
		Price:  asFloat(raw.Price),
		Qty:    asFloat(raw.Qty),
		Fee:    resolveFee(raw),
		Tax:    asFloat(raw.Tax),
	}, nil
}

// ParseTransactions canonicalizes a batch, dropping rejected rows. The
// surviving rows keep their input order.
func ParseTransactions(raws []RawTransaction) []models.Transaction {
	txns := make([]models.Transaction, 0, len(raws))
	for _, raw := range raws {
		txn, err := ParseTransaction(raw)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping unusable raw transaction", "error", err, "code", asString(raw.Code))
			}
			continue
		}
		txns = append(txns, txn)
	}
	return txns
}

// NormalizeDate accepts ISO 8601 timestamps, slash/dash YYYY-MM-DD strings,
// contiguous 8-digit YYYYMMDD strings, and spreadsheet serial day counts.
// Anything unparseable falls back to today with a diagnostic.
func NormalizeDate(value any) string {
	raw := strings.TrimSpace(asString(value))
	if raw == "" {
		return time.Now().Format(DateFormat)
	}

	if day, err := resolveDay(raw); err == nil {
		return day.Format(DateFormat)
	}

	if logger.L != nil {
		logger.L.Warn("Unparseable date, falling back to today", "input", raw)
	}
	return time.Now().Format(DateFormat)
}

func resolveDay(raw string) (time.Time, error) {
	// ISO 8601 timestamps carry a 'T' or a clock component.
	if strings.ContainsAny(raw, "T:") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
	}

	// Spreadsheet serial: days since the 1899 epoch; serial 25569 is the
	// Unix epoch, so the offset converts directly to Unix seconds.
	if serialPattern.MatchString(raw) {
		serial, _ := strconv.Atoi(raw)
		return time.Unix(int64(serial-unixEpochSerial)*86400, 0).UTC(), nil
	}

	if eightDigitRe.MatchString(raw) {
		raw = raw[0:4] + "/" + raw[4:6] + "/" + raw[6:8]
	}

	normalized := strings.NewReplacer("-", "/", " ", "/").Replace(raw)
	for _, layout := range []string{"2006/01/02", "2006/1/2"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// resolveMarket treats anything not recognized as US as TW. When the market
// tag is absent, a purely numeric code implies the TW exchange.
func resolveMarket(market, code string) models.Market {
	switch strings.ToUpper(strings.TrimSpace(market)) {
	case "US":
		return models.MarketUS
	case "TW":
		return models.MarketTW
	}
	if code != "" && !numericCodeRe.MatchString(code) {
		return models.MarketUS
	}
	return models.MarketTW
}

// resolveType treats anything not recognized as a sell as a buy.
func resolveType(txnType string) models.TxnType {
	if strings.EqualFold(strings.TrimSpace(txnType), string(models.TxnSell)) {
		return models.TxnSell
	}
	return models.TxnBuy
}

// resolveFee lets callers supply either a raw fee or an all-in cost figure;
// a non-zero cost wins and the fee is backed out of it.
func resolveFee(raw RawTransaction) float64 {
	if cost := asFloat(raw.Cost); cost != 0 {
		return cost - asFloat(raw.Price)*asFloat(raw.Qty)
	}
	return asFloat(raw.Fee)
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; render integral values without
		// an exponent or trailing fraction so codes like 00662 survive.
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
)

// TemplateHeader is the import format offered for download. Either `cost`
// (all-in) or `fee` may be filled; id and market may be left blank.
var TemplateHeader = []string{"date", "market", "type", "code", "name", "price", "qty", "cost", "fee", "tax"}

// CSVParser turns spreadsheet-exported rows into canonical transactions.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a header-mapped CSV stream. Rows without an id get a generated
// one, since imported spreadsheets rarely carry identifiers. Rows that still
// fail normalization are dropped with a diagnostic.
func (p *CSVParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var txns []models.Transaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		raw := rowToRaw(record, columns)
		if strings.TrimSpace(asString(raw.ID)) == "" {
			raw.ID = uuid.NewString()
		}
		txn, err := ParseTransaction(raw)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Skipping unusable import row", "line", line, "error", err)
			}
			continue
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func rowToRaw(record []string, columns map[string]int) RawTransaction {
	field := func(names ...string) any {
		for _, name := range names {
			if i, ok := columns[name]; ok && i < len(record) {
				return record[i]
			}
		}
		return nil
	}
	return RawTransaction{
		ID:     field("id"),
		Date:   field("date"),
		Market: field("market"),
		Type:   field("type"),
		Code:   field("code"),
		Name:   field("name"),
		Price:  field("price"),
		Qty:    field("qty"),
		Fee:    field("fee"),
		Tax:    field("tax"),
		Cost:   field("cost", "成本"),
	}
}

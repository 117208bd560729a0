package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/wealthfolio/src/logger"
	"github.com/username/wealthfolio/src/models"
	"github.com/username/wealthfolio/src/parsers"
	"github.com/username/wealthfolio/src/security/validation"
	"github.com/username/wealthfolio/src/services"
	"github.com/username/wealthfolio/src/utils"
)

type TransactionHandler struct {
	portfolioService services.PortfolioService
	csvParser        *parsers.CSVParser
	maxImportBytes   int64
}

func NewTransactionHandler(portfolioService services.PortfolioService, csvParser *parsers.CSVParser) *TransactionHandler {
	return &TransactionHandler{
		portfolioService: portfolioService,
		csvParser:        csvParser,
		maxImportBytes:   10 * 1024 * 1024,
	}
}

func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.portfolioService.Transactions()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving transactions: %v", err), http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	if etag, err := utils.GenerateETag(transactions); err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transactions); err != nil {
		logger.L.Error("Error encoding transactions to JSON", "error", err)
	}
}

func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var txn models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid transaction payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateTransaction(txn); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.portfolioService.AddTransaction(txn)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error saving transaction: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var txn models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid transaction payload: %v", err), http.StatusBadRequest)
		return
	}
	txn.ID = id
	if err := validation.ValidateTransaction(txn); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.portfolioService.UpdateTransaction(txn); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Transaction %s not found", id), http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error updating transaction: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.portfolioService.DeleteTransaction(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Transaction %s not found", id), http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error deleting transaction: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImportTransactions accepts a CSV upload with the template header and
// appends the parsed rows to the existing history.
func (h *TransactionHandler) HandleImportTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImportBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error reading upload: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	txns, err := h.csvParser.Parse(file)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error parsing import file: %v", err), http.StatusBadRequest)
		return
	}

	imported, err := h.portfolioService.AppendTransactions(txns)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error saving imported transactions: %v", err), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Import complete", "imported", imported)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"imported": imported})
}

// HandleGetImportTemplate serves the CSV header row users fill in.
func (h *TransactionHandler) HandleGetImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio_template.csv"`)
	writeCSVRow(w, parsers.TemplateHeader)
	writeCSVRow(w, []string{"2025/01/01", "TW", "buy", "2330", "台積電", "600", "1000", "600142", "0", "0"})
}

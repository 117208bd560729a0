package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/wealthfolio/src/models"
)

// ErrInvalidInput marks a user mutation rejected at the boundary; the core
// computation layer assumes validated input.
var ErrInvalidInput = errors.New("invalid input")

// ValidateTransaction rejects mutations missing the fields the ledger cannot
// default: code, price, and quantity. Negative amounts are rejected too;
// quantity and price are non-negative by invariant.
func ValidateTransaction(txn models.Transaction) error {
	if strings.TrimSpace(txn.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if txn.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if txn.Qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if txn.Fee < 0 || txn.Tax < 0 {
		return fmt.Errorf("%w: fee and tax must be non-negative", ErrInvalidInput)
	}
	return nil
}

func ValidateDebt(debt models.Debt) error {
	if debt.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvalidInput)
	}
	if debt.Rate < 0 {
		return fmt.Errorf("%w: rate must be non-negative", ErrInvalidInput)
	}
	return nil
}

func ValidateRepayment(repayment models.Repayment) error {
	if repayment.Amount <= 0 {
		return fmt.Errorf("%w: repayment amount must be positive", ErrInvalidInput)
	}
	switch repayment.Type {
	case models.RepayTotal, models.RepayPrincipal, models.RepayInterest:
		return nil
	case "":
		return fmt.Errorf("%w: repayment type is required", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown repayment type %q", ErrInvalidInput, repayment.Type)
	}
}

func ValidateInterest(record models.InterestRecord) error {
	if strings.TrimSpace(record.StockSymbol) == "" {
		return fmt.Errorf("%w: stock symbol is required", ErrInvalidInput)
	}
	if record.CashDividend < 0 {
		return fmt.Errorf("%w: cash dividend must be non-negative", ErrInvalidInput)
	}
	return nil
}

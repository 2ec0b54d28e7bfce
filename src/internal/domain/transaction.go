package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeFreeze     TransactionType = "FREEZE"
	TransactionTypeUnfreeze   TransactionType = "UNFREEZE"
	TransactionTypeReportLoss TransactionType = "REPORT_LOSS"
	TransactionTypeCancelLoss TransactionType = "CANCEL_LOSS"
	TransactionTypeClose      TransactionType = "CLOSE"
)

// TransactionEntry is an immutable fact: once appended to an account's
// history it is never edited, reordered, or re-parented. Amount is always
// non-negative; the direction is implied by Type. Status-only operations
// record a zero amount.
type TransactionEntry struct {
	ID              int64
	CardNumber      string
	Type            TransactionType
	Amount          decimal.Decimal
	BalanceAfter    decimal.Decimal
	Description     string
	TransactionTime time.Time
}

package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type ReconciliationService interface {
	// Plan returns the entries present in the embedded history but absent
	// from the log, without appending them.
	Plan(ctx context.Context, cardNumber string, embedded []domain.TransactionEntry) ([]domain.TransactionEntry, error)
	// Sync appends the missing entries to the log and reports how many were
	// written. Idempotent under retry with the same embedded history.
	Sync(ctx context.Context, cardNumber string, embedded []domain.TransactionEntry) (int, error)
}

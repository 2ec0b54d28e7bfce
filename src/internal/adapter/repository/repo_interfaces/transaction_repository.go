package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// TransactionRepository is the append-only ledger entry store: one row per
// transaction, keyed by card number, ordered by insertion.
type TransactionRepository interface {
	Append(ctx context.Context, entry domain.TransactionEntry) (domain.TransactionEntry, error)
	ListByCardNumber(ctx context.Context, cardNumber string) ([]domain.TransactionEntry, error)
	CountByCardNumber(ctx context.Context, cardNumber string) (int, error)
}

package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type AccountRepository interface {
	// Create inserts the account row together with its initial history in a
	// single transaction. A duplicate card number surfaces as a pq unique
	// violation so callers can regenerate.
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	// GetByCardNumber loads the account row plus its full ordered
	// transaction history from the log.
	GetByCardNumber(ctx context.Context, cardNumber string) (domain.Account, error)
	ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error)
	ListByUsername(ctx context.Context, username string) ([]domain.Account, error)
	// Save persists the new balance/status and appends newEntries to the
	// log atomically: all of it becomes visible together or none of it.
	Save(ctx context.Context, account domain.Account, newEntries []domain.TransactionEntry) (domain.Account, error)
	// SavePair commits both sides of a cross-account operation in one
	// database transaction.
	SavePair(ctx context.Context, debit domain.Account, debitEntries []domain.TransactionEntry, credit domain.Account, creditEntries []domain.TransactionEntry) error
}

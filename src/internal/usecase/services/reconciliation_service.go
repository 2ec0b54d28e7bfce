package services

import (
	"context"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

// ReconciliationService merges an account's embedded transaction history
// into the authoritative append-only log. The diff is positional: the
// embedded history must agree with the log's prefix entry for entry, so
// only the suffix past the log's current length is ever appended. Upstream
// guarantees entries are never edited or reordered once placed in the
// embedded history.
var _ service_interfaces.ReconciliationService = (*ReconciliationService)(nil)

type ReconciliationService struct {
	transactionRepo repo_interfaces.TransactionRepository
}

func NewReconciliationService(transactionRepo repo_interfaces.TransactionRepository) *ReconciliationService {
	return &ReconciliationService{transactionRepo: transactionRepo}
}

// MissingEntries returns the suffix of embedded past existingCount. An
// embedded history shorter than the log means already-committed entries
// went missing upstream; that is corruption, not a no-op.
func MissingEntries(existingCount int, embedded []domain.TransactionEntry) ([]domain.TransactionEntry, error) {
	if len(embedded) < existingCount {
		return nil, fmt.Errorf("%w: embedded history has %d entries, log has %d", domain.ErrConsistencyViolation, len(embedded), existingCount)
	}
	return embedded[existingCount:], nil
}

// Plan computes the entries the log does not yet have, without appending
// them. Callers that must commit the suffix atomically with an account
// update hand the result to the account repository.
func (s *ReconciliationService) Plan(ctx context.Context, cardNumber string, embedded []domain.TransactionEntry) ([]domain.TransactionEntry, error) {
	existingCount, err := s.transactionRepo.CountByCardNumber(ctx, cardNumber)
	if err != nil {
		return nil, err
	}

	missing, err := MissingEntries(existingCount, embedded)
	if err != nil {
		logger.Error("reconciliation detected corrupted embedded history", err, logger.Fields{
			"cardNumber":    cardNumber,
			"embeddedCount": len(embedded),
			"existingCount": existingCount,
		})
		return nil, err
	}

	return missing, nil
}

// Sync appends the missing suffix to the log, in order. Calling it again
// with the same embedded history appends nothing: the count has moved past
// the suffix already written.
func (s *ReconciliationService) Sync(ctx context.Context, cardNumber string, embedded []domain.TransactionEntry) (int, error) {
	missing, err := s.Plan(ctx, cardNumber, embedded)
	if err != nil {
		return 0, err
	}

	for _, entry := range missing {
		entry.CardNumber = cardNumber
		if _, err := s.transactionRepo.Append(ctx, entry); err != nil {
			return 0, err
		}
	}

	if len(missing) > 0 {
		logger.Info("reconciliation appended missing entries", logger.Fields{
			"cardNumber": cardNumber,
			"appended":   len(missing),
		})
	}

	return len(missing), nil
}

package implementations

import (
	"context"
	"database/sql"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, entry domain.TransactionEntry) (domain.TransactionEntry, error) {
	id, err := insertEntry(ctx, r.db, entry)
	if err != nil {
		logger.Error("transaction repository append failed", err, logger.Fields{
			"cardNumber": entry.CardNumber,
			"type":       entry.Type,
		})
		return domain.TransactionEntry{}, err
	}

	entry.ID = id
	return entry, nil
}

func (r *TransactionRepository) ListByCardNumber(ctx context.Context, cardNumber string) ([]domain.TransactionEntry, error) {
	return listEntries(ctx, r.db, cardNumber)
}

func (r *TransactionRepository) CountByCardNumber(ctx context.Context, cardNumber string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM transactions
WHERE card_number = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, cardNumber).Scan(&count); err != nil {
		logger.Error("transaction repository count failed", err, logger.Fields{
			"cardNumber": cardNumber,
		})
		return 0, storeError("count transactions", err)
	}

	return count, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const insertEntryQuery = `
INSERT INTO transactions (
	card_number,
	transaction_type,
	amount,
	balance_after,
	description,
	transaction_time
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

func insertEntry(ctx context.Context, q queryer, entry domain.TransactionEntry) (int64, error) {
	var id int64
	if err := q.QueryRowContext(
		ctx,
		insertEntryQuery,
		entry.CardNumber,
		entry.Type,
		entry.Amount,
		entry.BalanceAfter,
		entry.Description,
		entry.TransactionTime,
	).Scan(&id); err != nil {
		return 0, storeError("append transaction entry", err)
	}
	return id, nil
}

func insertEntryTx(ctx context.Context, tx *sql.Tx, entry domain.TransactionEntry) (int64, error) {
	return insertEntry(ctx, tx, entry)
}

func listEntries(ctx context.Context, q queryer, cardNumber string) ([]domain.TransactionEntry, error) {
	const query = `
SELECT id, card_number, transaction_type, amount, balance_after, description, transaction_time
FROM transactions
WHERE card_number = $1
ORDER BY id ASC`

	rows, err := q.QueryContext(ctx, query, cardNumber)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	defer rows.Close()

	var entries []domain.TransactionEntry
	for rows.Next() {
		var entry domain.TransactionEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.CardNumber,
			&entry.Type,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.Description,
			&entry.TransactionTime,
		); err != nil {
			return nil, storeError("scan transaction row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate transaction rows", err)
	}

	return entries, nil
}

package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"cardNumber": account.CardNumber,
		"username":   account.Username,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Account{}, storeError("begin create account transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `
INSERT INTO accounts (
	card_number,
	username,
	balance,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), COALESCE($5, NOW()))
RETURNING created_at, updated_at`

	// Legacy imports carry their own creation time; freshly opened
	// accounts leave it to the store.
	var createdAt sql.NullTime
	if !account.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: account.CreatedAt, Valid: true}
	}

	if err = tx.QueryRowContext(
		ctx,
		query,
		account.CardNumber,
		account.Username,
		account.Balance,
		account.Status,
		createdAt,
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"cardNumber": account.CardNumber,
		})
		// Unique violations must stay visible so the caller can regenerate
		// the card number.
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	for i := range account.History {
		account.History[i].ID, err = insertEntryTx(ctx, tx, account.History[i])
		if err != nil {
			return domain.Account{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Account{}, storeError("commit create account transaction", err)
	}

	logger.Info("account repository create success", logger.Fields{
		"cardNumber": account.CardNumber,
	})

	return account, nil
}

func (r *AccountRepository) GetByCardNumber(ctx context.Context, cardNumber string) (domain.Account, error) {
	const query = `
SELECT card_number, username, balance, status, created_at, updated_at
FROM accounts
WHERE card_number = $1`

	var account domain.Account
	if err := r.db.QueryRowContext(ctx, query, cardNumber).Scan(
		&account.CardNumber,
		&account.Username,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"cardNumber": cardNumber,
			})
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"cardNumber": cardNumber,
		})
		return domain.Account{}, storeError("get account by card number", err)
	}

	history, err := listEntries(ctx, r.db, cardNumber)
	if err != nil {
		return domain.Account{}, err
	}
	account.History = history

	return account, nil
}

func (r *AccountRepository) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM accounts
	WHERE card_number = $1
)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, cardNumber).Scan(&exists); err != nil {
		logger.Error("account repository exists check failed", err, logger.Fields{
			"cardNumber": cardNumber,
		})
		return false, storeError("check account exists", err)
	}

	return exists, nil
}

func (r *AccountRepository) ListByUsername(ctx context.Context, username string) ([]domain.Account, error) {
	const query = `
SELECT card_number, username, balance, status, created_at, updated_at
FROM accounts
WHERE username = $1
ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		logger.Error("account repository list by username failed", err, logger.Fields{
			"username": username,
		})
		return nil, storeError("list accounts by username", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.CardNumber,
			&account.Username,
			&account.Balance,
			&account.Status,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, storeError("scan account row", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate account rows", err)
	}

	for i := range accounts {
		history, err := listEntries(ctx, r.db, accounts[i].CardNumber)
		if err != nil {
			return nil, err
		}
		accounts[i].History = history
	}

	return accounts, nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account, newEntries []domain.TransactionEntry) (domain.Account, error) {
	logger.Info("account repository save", logger.Fields{
		"cardNumber": account.CardNumber,
		"status":     account.Status,
		"newEntries": len(newEntries),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Account{}, storeError("begin save account transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateAccountTx(ctx, tx, &account); err != nil {
		return domain.Account{}, err
	}

	for i := range newEntries {
		newEntries[i].ID, err = insertEntryTx(ctx, tx, newEntries[i])
		if err != nil {
			return domain.Account{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Account{}, storeError("commit save account transaction", err)
	}

	logger.Info("account repository save success", logger.Fields{
		"cardNumber": account.CardNumber,
	})

	return account, nil
}

func (r *AccountRepository) SavePair(ctx context.Context, debit domain.Account, debitEntries []domain.TransactionEntry, credit domain.Account, creditEntries []domain.TransactionEntry) error {
	logger.Info("account repository save pair", logger.Fields{
		"debitCardNumber":  debit.CardNumber,
		"creditCardNumber": credit.CardNumber,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin save pair transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateAccountTx(ctx, tx, &debit); err != nil {
		return err
	}
	if err = updateAccountTx(ctx, tx, &credit); err != nil {
		return err
	}

	for i := range debitEntries {
		if _, err = insertEntryTx(ctx, tx, debitEntries[i]); err != nil {
			return err
		}
	}
	for i := range creditEntries {
		if _, err = insertEntryTx(ctx, tx, creditEntries[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return storeError("commit save pair transaction", err)
	}

	logger.Info("account repository save pair success", logger.Fields{
		"debitCardNumber":  debit.CardNumber,
		"creditCardNumber": credit.CardNumber,
	})
	return nil
}

func updateAccountTx(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	const query = `
UPDATE accounts
SET balance = $2,
    status = $3,
    updated_at = NOW()
WHERE card_number = $1
RETURNING updated_at`

	if err := tx.QueryRowContext(ctx, query, account.CardNumber, account.Balance, account.Status).Scan(&account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRecordNotFound
		}
		return storeError("update account", err)
	}
	return nil
}

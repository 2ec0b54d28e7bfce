package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusNormal AccountStatus = "NORMAL"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusLost   AccountStatus = "LOST"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account carries its embedded transaction history alongside the current
// balance and status. The balance is always the running sum of the signed
// entry amounts, starting from zero; every successful operation appends
// exactly one entry recording the post-operation balance.
type Account struct {
	CardNumber string
	Username   string
	Balance    decimal.Decimal
	Status     AccountStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	History    []TransactionEntry
}

func NewAccount(cardNumber string, username string, initialDeposit decimal.Decimal, now time.Time) (Account, error) {
	if initialDeposit.LessThan(decimal.Zero) {
		return Account{}, fmt.Errorf("%w: initial deposit cannot be negative", ErrValidation)
	}

	account := Account{
		CardNumber: cardNumber,
		Username:   username,
		Balance:    decimal.Zero,
		Status:     AccountStatusNormal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if initialDeposit.IsPositive() {
		account.Balance = initialDeposit
		account.record(TransactionTypeDeposit, initialDeposit, "initial deposit", now)
	}

	return account, nil
}

func (a *Account) Deposit(amount decimal.Decimal, description string, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be greater than zero", ErrValidation)
	}
	if a.Status != AccountStatusNormal {
		return fmt.Errorf("%w: cannot deposit while account status is %s", ErrStateConflict, a.Status)
	}

	a.Balance = a.Balance.Add(amount)
	a.record(TransactionTypeDeposit, amount, description, now)
	return nil
}

func (a *Account) Withdraw(amount decimal.Decimal, description string, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be greater than zero", ErrValidation)
	}
	if a.Status != AccountStatusNormal {
		return fmt.Errorf("%w: cannot withdraw while account status is %s", ErrStateConflict, a.Status)
	}
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s is less than %s", ErrInsufficientBalance, a.Balance.StringFixed(2), amount.StringFixed(2))
	}

	a.Balance = a.Balance.Sub(amount)
	a.record(TransactionTypeWithdrawal, amount, description, now)
	return nil
}

func (a *Account) Freeze(now time.Time) error {
	if a.Status == AccountStatusClosed {
		return fmt.Errorf("%w: cannot freeze a closed account", ErrStateConflict)
	}

	a.Status = AccountStatusFrozen
	a.record(TransactionTypeFreeze, decimal.Zero, "", now)
	return nil
}

func (a *Account) Unfreeze(now time.Time) error {
	if a.Status != AccountStatusFrozen {
		return fmt.Errorf("%w: cannot unfreeze while account status is %s", ErrStateConflict, a.Status)
	}

	a.Status = AccountStatusNormal
	a.record(TransactionTypeUnfreeze, decimal.Zero, "", now)
	return nil
}

func (a *Account) ReportLoss(now time.Time) error {
	if a.Status != AccountStatusNormal && a.Status != AccountStatusFrozen {
		return fmt.Errorf("%w: cannot report loss while account status is %s", ErrStateConflict, a.Status)
	}

	a.Status = AccountStatusLost
	a.record(TransactionTypeReportLoss, decimal.Zero, "", now)
	return nil
}

func (a *Account) CancelLoss(now time.Time) error {
	if a.Status != AccountStatusLost {
		return fmt.Errorf("%w: cannot cancel loss while account status is %s", ErrStateConflict, a.Status)
	}

	a.Status = AccountStatusNormal
	a.record(TransactionTypeCancelLoss, decimal.Zero, "", now)
	return nil
}

func (a *Account) Close(now time.Time) error {
	if a.Status == AccountStatusClosed {
		return fmt.Errorf("%w: account is already closed", ErrStateConflict)
	}
	if !a.Balance.IsZero() {
		return fmt.Errorf("%w: balance %s must be zero before closing", ErrStateConflict, a.Balance.StringFixed(2))
	}

	a.Status = AccountStatusClosed
	a.record(TransactionTypeClose, decimal.Zero, "", now)
	return nil
}

// Clone deep-copies the account so an operation can be applied tentatively
// and discarded if persistence fails.
func (a Account) Clone() Account {
	clone := a
	clone.History = make([]TransactionEntry, len(a.History))
	copy(clone.History, a.History)
	return clone
}

func (a *Account) record(transactionType TransactionType, amount decimal.Decimal, description string, now time.Time) {
	a.History = append(a.History, TransactionEntry{
		CardNumber:      a.CardNumber,
		Type:            transactionType,
		Amount:          amount,
		BalanceAfter:    a.Balance,
		Description:     description,
		TransactionTime: now,
	})
	a.UpdatedAt = now
}

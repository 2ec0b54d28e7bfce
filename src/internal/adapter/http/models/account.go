package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	Username       string `json:"username"`
	InitialDeposit string `json:"initialDeposit,omitempty"`
}

func (r OpenAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, "username is required")
	}

	if raw := strings.TrimSpace(r.InitialDeposit); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, "initialDeposit must be numeric")
		} else if parsed.LessThan(decimal.Zero) {
			errs = append(errs, "initialDeposit cannot be negative")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type OpenAccountResponse struct {
	CardNumber string `json:"cardNumber"`
	Username   string `json:"username"`
	Balance    string `json:"balance"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

// MoneyOpRequest covers deposits and withdrawals.
type MoneyOpRequest struct {
	CardNumber  string `json:"cardNumber"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (r MoneyOpRequest) Validate() error {
	var errs []string

	if !isSixteenDigitCardNumber(strings.TrimSpace(r.CardNumber)) {
		errs = append(errs, "cardNumber must be exactly 16 digits")
	}

	amount := strings.TrimSpace(r.Amount)
	if amount == "" {
		errs = append(errs, "amount is required")
	} else {
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			errs = append(errs, "amount must be numeric")
		} else if parsed.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, "amount must be greater than zero")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// StatusOpRequest covers freeze, unfreeze, report-loss, cancel-loss and
// close.
type StatusOpRequest struct {
	CardNumber string `json:"cardNumber"`
}

func (r StatusOpRequest) Validate() error {
	if !isSixteenDigitCardNumber(strings.TrimSpace(r.CardNumber)) {
		return errors.New("cardNumber must be exactly 16 digits")
	}
	return nil
}

type AccountResponse struct {
	CardNumber string `json:"cardNumber"`
	Username   string `json:"username"`
	Balance    string `json:"balance"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type TransactionResponse struct {
	ID              int64  `json:"id"`
	CardNumber      string `json:"cardNumber"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	BalanceAfter    string `json:"balanceAfter"`
	Description     string `json:"description,omitempty"`
	TransactionTime string `json:"transactionTime"`
}

func isSixteenDigitCardNumber(cardNumber string) bool {
	if len(cardNumber) != 16 {
		return false
	}

	for _, ch := range cardNumber {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}

package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	FromCardNumber string `json:"fromCardNumber"`
	ToCardNumber   string `json:"toCardNumber"`
	Amount         string `json:"amount"`
	Description    string `json:"description,omitempty"`
}

func (r TransferRequest) Validate() error {
	var errs []string

	from := strings.TrimSpace(r.FromCardNumber)
	to := strings.TrimSpace(r.ToCardNumber)

	if !isSixteenDigitCardNumber(from) {
		errs = append(errs, "fromCardNumber must be exactly 16 digits")
	}
	if !isSixteenDigitCardNumber(to) {
		errs = append(errs, "toCardNumber must be exactly 16 digits")
	}
	if from != "" && from == to {
		errs = append(errs, "fromCardNumber and toCardNumber cannot be the same")
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

type TransferResponse struct {
	Reference      string `json:"reference"`
	FromCardNumber string `json:"fromCardNumber"`
	ToCardNumber   string `json:"toCardNumber"`
	Amount         string `json:"amount"`
	FromBalance    string `json:"fromBalance"`
	ToBalance      string `json:"toBalance"`
}

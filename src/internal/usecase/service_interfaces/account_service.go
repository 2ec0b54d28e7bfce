package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
)

type AccountService interface {
	OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.OpenAccountResponse], error)
	Deposit(ctx context.Context, req models.MoneyOpRequest) (commons.Response[models.AccountResponse], error)
	Withdraw(ctx context.Context, req models.MoneyOpRequest) (commons.Response[models.AccountResponse], error)
	Freeze(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error)
	Unfreeze(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error)
	ReportLoss(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error)
	CancelLoss(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error)
	CloseAccount(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error)
	GetAccount(ctx context.Context, cardNumber string) (commons.Response[models.AccountResponse], error)
	ListAccounts(ctx context.Context, username string) (commons.Response[[]models.AccountResponse], error)
	GetTransactionHistory(ctx context.Context, cardNumber string) (commons.Response[[]models.TransactionResponse], error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.AccountService = (*AccountService)(nil)

type AccountService struct {
	accountRepo     repo_interfaces.AccountRepository
	transactionRepo repo_interfaces.TransactionRepository
	userRepo        repo_interfaces.UserRepository
	reconciler      service_interfaces.ReconciliationService
	locker          *AccountLocker
	lockWait        time.Duration
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	transactionRepo repo_interfaces.TransactionRepository,
	userRepo repo_interfaces.UserRepository,
	reconciler service_interfaces.ReconciliationService,
	locker *AccountLocker,
	lockWait time.Duration,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		reconciler:      reconciler,
		locker:          locker,
		lockWait:        lockWait,
	}
}

func (s *AccountService) OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.OpenAccountResponse], error) {
	opID := uuid.NewString()
	logger.Info("account service open account request", logger.Fields{
		"opId":    opID,
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service open account validation failed", err, logger.Fields{"opId": opID})
		return commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()), err
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.OpenAccountResponse]("User not found"), err
		}
		return commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", "Unable to open account right now"), err
	}

	initialDeposit := decimal.Zero
	if raw := strings.TrimSpace(req.InitialDeposit); raw != "" {
		initialDeposit, _ = decimal.NewFromString(raw)
	}

	var created domain.Account
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		cardNumber := generateCardNumber()

		var account domain.Account
		account, err = domain.NewAccount(cardNumber, username, initialDeposit, time.Now().UTC())
		if err != nil {
			return commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()), err
		}

		created, err = s.accountRepo.Create(ctx, account)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			logger.Error("account service open account repository failed", err, logger.Fields{
				"opId":     opID,
				"username": username,
			})
			return commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", "Unable to open account right now"), err
		}
	}
	if err != nil {
		return commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", "Unable to open account right now"), err
	}

	response := models.OpenAccountResponse{
		CardNumber: created.CardNumber,
		Username:   created.Username,
		Balance:    created.Balance.StringFixed(2),
		Status:     string(created.Status),
		CreatedAt:  created.CreatedAt.Format(time.RFC3339),
	}

	logger.Info("account service open account success", logger.Fields{
		"opId":       opID,
		"cardNumber": response.CardNumber,
		"username":   response.Username,
	})

	return commons.SuccessResponse("account opened successfully", response), nil
}

func (s *AccountService) Deposit(ctx context.Context, req models.MoneyOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyMoneyOp(ctx, req, "deposit", func(account *domain.Account, amount decimal.Decimal, description string, now time.Time) error {
		return account.Deposit(amount, description, now)
	})
}

func (s *AccountService) Withdraw(ctx context.Context, req models.MoneyOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyMoneyOp(ctx, req, "withdraw", func(account *domain.Account, amount decimal.Decimal, description string, now time.Time) error {
		return account.Withdraw(amount, description, now)
	})
}

func (s *AccountService) Freeze(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyStatusOp(ctx, req, "freeze", (*domain.Account).Freeze)
}

func (s *AccountService) Unfreeze(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyStatusOp(ctx, req, "unfreeze", (*domain.Account).Unfreeze)
}

func (s *AccountService) ReportLoss(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyStatusOp(ctx, req, "report loss", (*domain.Account).ReportLoss)
}

func (s *AccountService) CancelLoss(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyStatusOp(ctx, req, "cancel loss", (*domain.Account).CancelLoss)
}

func (s *AccountService) CloseAccount(ctx context.Context, req models.StatusOpRequest) (commons.Response[models.AccountResponse], error) {
	return s.applyStatusOp(ctx, req, "close", (*domain.Account).Close)
}

func (s *AccountService) GetAccount(ctx context.Context, cardNumber string) (commons.Response[models.AccountResponse], error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if err := (models.StatusOpRequest{CardNumber: cardNumber}).Validate(); err != nil {
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByCardNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"cardNumber": cardNumber,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	response := mapAccountToResponse(account)
	return commons.SuccessResponse("account fetched successfully", response), nil
}

// ListAccounts returns every account owned by the user, oldest first.
func (s *AccountService) ListAccounts(ctx context.Context, username string) (commons.Response[[]models.AccountResponse], error) {
	username = strings.TrimSpace(username)
	if username == "" {
		err := fmt.Errorf("%w: username is required", domain.ErrValidation)
		return commons.ErrorResponse[[]models.AccountResponse]("validation failed", err.Error()), err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[[]models.AccountResponse]("User not found"), err
		}
		return commons.ErrorResponse[[]models.AccountResponse]("failed to list accounts", "Unable to list accounts right now"), err
	}

	accounts, err := s.accountRepo.ListByUsername(ctx, username)
	if err != nil {
		logger.Error("account service list accounts failed", err, logger.Fields{
			"username": username,
		})
		return commons.ErrorResponse[[]models.AccountResponse]("failed to list accounts", "Unable to list accounts right now"), err
	}

	response := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, mapAccountToResponse(account))
	}

	return commons.SuccessResponse("accounts fetched successfully", response), nil
}

// GetTransactionHistory reads from the normalized log, the source of truth
// for history queries.
func (s *AccountService) GetTransactionHistory(ctx context.Context, cardNumber string) (commons.Response[[]models.TransactionResponse], error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if err := (models.StatusOpRequest{CardNumber: cardNumber}).Validate(); err != nil {
		return commons.ErrorResponse[[]models.TransactionResponse]("validation failed", err.Error()), err
	}

	exists, err := s.accountRepo.ExistsByCardNumber(ctx, cardNumber)
	if err != nil {
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to get history", "Unable to fetch history right now"), err
	}
	if !exists {
		err := domain.ErrRecordNotFound
		return commons.ErrorResponse[[]models.TransactionResponse]("Account not found"), err
	}

	entries, err := s.transactionRepo.ListByCardNumber(ctx, cardNumber)
	if err != nil {
		logger.Error("account service get history failed", err, logger.Fields{
			"cardNumber": cardNumber,
		})
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to get history", "Unable to fetch history right now"), err
	}

	response := make([]models.TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, mapEntryToResponse(entry))
	}

	return commons.SuccessResponse("transaction history fetched successfully", response), nil
}

func (s *AccountService) applyMoneyOp(
	ctx context.Context,
	req models.MoneyOpRequest,
	opName string,
	apply func(account *domain.Account, amount decimal.Decimal, description string, now time.Time) error,
) (commons.Response[models.AccountResponse], error) {
	opID := uuid.NewString()
	logger.Info("account service "+opName+" request", logger.Fields{
		"opId":    opID,
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service "+opName+" validation failed", err, logger.Fields{"opId": opID})
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	cardNumber := strings.TrimSpace(req.CardNumber)
	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))

	release, err := s.acquireLock(ctx, cardNumber)
	if err != nil {
		logger.Error("account service "+opName+" lock timeout", err, logger.Fields{
			"opId":       opID,
			"cardNumber": cardNumber,
		})
		return commons.ErrorResponse[models.AccountResponse]("operation timed out", err.Error()), err
	}
	defer release()

	account, err := s.accountRepo.GetByCardNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to "+opName, "Unable to process "+opName+" right now"), err
	}

	// Role-based limit gate, checked before the state machine sees the
	// amount. Exceeding the limit is distinct from insufficient funds.
	owner, err := s.userRepo.GetByUsername(ctx, account.Username)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("User not found"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to "+opName, "Unable to process "+opName+" right now"), err
	}
	if err := owner.Role.Policy().CheckAmount(amount); err != nil {
		logger.Error("account service "+opName+" limit exceeded", err, logger.Fields{
			"opId":       opID,
			"cardNumber": cardNumber,
			"role":       owner.Role,
		})
		return commons.ErrorResponse[models.AccountResponse]("transaction limit exceeded", err.Error()), err
	}

	updated := account.Clone()
	if err := apply(&updated, amount, strings.TrimSpace(req.Description), time.Now().UTC()); err != nil {
		return commons.ErrorResponse[models.AccountResponse](failureMessage(err), err.Error()), err
	}

	saved, err := s.persist(ctx, opID, updated)
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("failed to "+opName, "Unable to process "+opName+" right now"), err
	}

	logger.Info("account service "+opName+" success", logger.Fields{
		"opId":       opID,
		"cardNumber": saved.CardNumber,
		"balance":    saved.Balance.StringFixed(2),
	})

	return commons.SuccessResponse(opName+" successful", mapAccountToResponse(saved)), nil
}

func (s *AccountService) applyStatusOp(
	ctx context.Context,
	req models.StatusOpRequest,
	opName string,
	apply func(account *domain.Account, now time.Time) error,
) (commons.Response[models.AccountResponse], error) {
	opID := uuid.NewString()
	logger.Info("account service "+opName+" request", logger.Fields{
		"opId":    opID,
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	cardNumber := strings.TrimSpace(req.CardNumber)

	release, err := s.acquireLock(ctx, cardNumber)
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("operation timed out", err.Error()), err
	}
	defer release()

	account, err := s.accountRepo.GetByCardNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to "+opName, "Unable to process "+opName+" right now"), err
	}

	updated := account.Clone()
	if err := apply(&updated, time.Now().UTC()); err != nil {
		return commons.ErrorResponse[models.AccountResponse](failureMessage(err), err.Error()), err
	}

	saved, err := s.persist(ctx, opID, updated)
	if err != nil {
		return commons.ErrorResponse[models.AccountResponse]("failed to "+opName, "Unable to process "+opName+" right now"), err
	}

	logger.Info("account service "+opName+" success", logger.Fields{
		"opId":       opID,
		"cardNumber": saved.CardNumber,
		"status":     saved.Status,
	})

	return commons.SuccessResponse(opName+" successful", mapAccountToResponse(saved)), nil
}

// persist runs the reconciliation plan and commits the account row together
// with the missing log entries atomically. On failure the caller still
// holds the pre-operation account: partial application is never visible.
func (s *AccountService) persist(ctx context.Context, opID string, updated domain.Account) (domain.Account, error) {
	missing, err := s.reconciler.Plan(ctx, updated.CardNumber, updated.History)
	if err != nil {
		logger.Error("account service reconciliation failed", err, logger.Fields{
			"opId":       opID,
			"cardNumber": updated.CardNumber,
		})
		return domain.Account{}, err
	}

	saved, err := s.accountRepo.Save(ctx, updated, missing)
	if err != nil {
		logger.Error("account service save failed", err, logger.Fields{
			"opId":       opID,
			"cardNumber": updated.CardNumber,
		})
		return domain.Account{}, err
	}

	return saved, nil
}

func (s *AccountService) acquireLock(ctx context.Context, cardNumber string) (func(), error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.lockWait > 0 {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
		defer cancel()
		return s.locker.Acquire(lockCtx, cardNumber)
	}
	return s.locker.Acquire(ctx, cardNumber)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation failed"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, domain.ErrStateConflict):
		return "operation not allowed for current account status"
	case errors.Is(err, domain.ErrLimitExceeded):
		return "transaction limit exceeded"
	case errors.Is(err, domain.ErrRecordNotFound):
		return "Account not found"
	default:
		return "Unable to process request right now"
	}
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		CardNumber: account.CardNumber,
		Username:   account.Username,
		Balance:    account.Balance.StringFixed(2),
		Status:     string(account.Status),
		CreatedAt:  account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  account.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEntryToResponse(entry domain.TransactionEntry) models.TransactionResponse {
	return models.TransactionResponse{
		ID:              entry.ID,
		CardNumber:      entry.CardNumber,
		Type:            string(entry.Type),
		Amount:          entry.Amount.StringFixed(2),
		BalanceAfter:    entry.BalanceAfter.StringFixed(2),
		Description:     entry.Description,
		TransactionTime: entry.TransactionTime.Format(time.RFC3339),
	}
}

var cardNumberCounter uint32

// generateCardNumber yields a 16-digit numeric card number. Practical
// uniqueness comes from the time base plus a process-local counter; the
// store's primary key catches the residual collisions and the caller
// regenerates.
func generateCardNumber() string {
	now := time.Now().UTC()
	base := fmt.Sprintf("%010d", now.UnixNano()%10_000_000_000)
	counter := atomic.AddUint32(&cardNumberCounter, 1) % 10000
	return "62" + base + fmt.Sprintf("%04d", counter)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.TransferService = (*TransferService)(nil)

type TransferService struct {
	accountRepo repo_interfaces.AccountRepository
	userRepo    repo_interfaces.UserRepository
	reconciler  service_interfaces.ReconciliationService
	locker      *AccountLocker
	lockWait    time.Duration
}

func NewTransferService(
	accountRepo repo_interfaces.AccountRepository,
	userRepo repo_interfaces.UserRepository,
	reconciler service_interfaces.ReconciliationService,
	locker *AccountLocker,
	lockWait time.Duration,
) *TransferService {
	return &TransferService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		reconciler:  reconciler,
		locker:      locker,
		lockWait:    lockWait,
	}
}

// Transfer moves funds between two internal accounts. Both per-card locks
// are taken in lexicographic order and both sides commit in one database
// transaction, or neither does.
func (s *TransferService) Transfer(ctx context.Context, req models.TransferRequest) (commons.Response[models.TransferResponse], error) {
	reference := uuid.NewString()
	logger.Info("transfer service transfer request", logger.Fields{
		"reference": reference,
		"payload":   logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transfer service transfer validation failed", err, logger.Fields{"reference": reference})
		return commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error()), err
	}

	fromCard := strings.TrimSpace(req.FromCardNumber)
	toCard := strings.TrimSpace(req.ToCardNumber)
	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))

	release, err := s.acquireLocks(ctx, fromCard, toCard)
	if err != nil {
		logger.Error("transfer service lock timeout", err, logger.Fields{"reference": reference})
		return commons.ErrorResponse[models.TransferResponse]("operation timed out", err.Error()), err
	}
	defer release()

	from, err := s.accountRepo.GetByCardNumber(ctx, fromCard)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransferResponse]("Debit account not found"), err
		}
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	to, err := s.accountRepo.GetByCardNumber(ctx, toCard)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransferResponse]("Credit account not found"), err
		}
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}

	sender, err := s.userRepo.GetByUsername(ctx, from.Username)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransferResponse]("User not found"), err
		}
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	if err := sender.Role.Policy().CheckAmount(amount); err != nil {
		logger.Error("transfer service limit exceeded", err, logger.Fields{
			"reference": reference,
			"role":      sender.Role,
		})
		return commons.ErrorResponse[models.TransferResponse]("transaction limit exceeded", err.Error()), err
	}

	now := time.Now().UTC()
	debit := from.Clone()
	credit := to.Clone()

	description := strings.TrimSpace(req.Description)
	debitDescription := "transfer to " + toCard
	creditDescription := "transfer from " + fromCard
	if description != "" {
		debitDescription += ": " + description
		creditDescription += ": " + description
	}

	if err := debit.Withdraw(amount, debitDescription, now); err != nil {
		return commons.ErrorResponse[models.TransferResponse](failureMessage(err), err.Error()), err
	}
	if err := credit.Deposit(amount, creditDescription, now); err != nil {
		return commons.ErrorResponse[models.TransferResponse](failureMessage(err), err.Error()), err
	}

	debitMissing, err := s.reconciler.Plan(ctx, debit.CardNumber, debit.History)
	if err != nil {
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	creditMissing, err := s.reconciler.Plan(ctx, credit.CardNumber, credit.History)
	if err != nil {
		return commons.ErrorResponse[models.TransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}

	if err := s.accountRepo.SavePair(ctx, debit, debitMissing, credit, creditMissing); err != nil {
		logger.Error("transfer service posting failed", err, logger.Fields{
			"reference":      reference,
			"fromCardNumber": fromCard,
			"toCardNumber":   toCard,
		})
		return commons.ErrorResponse[models.TransferResponse]("transfer failed", "Unable to complete transfer posting"), err
	}

	response := models.TransferResponse{
		Reference:      reference,
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         amount.StringFixed(2),
		FromBalance:    debit.Balance.StringFixed(2),
		ToBalance:      credit.Balance.StringFixed(2),
	}

	logger.Info("transfer service transfer success", logger.Fields{
		"reference":      reference,
		"fromCardNumber": fromCard,
		"toCardNumber":   toCard,
		"amount":         response.Amount,
	})

	return commons.SuccessResponse("transfer successful", response), nil
}

func (s *TransferService) acquireLocks(ctx context.Context, first string, second string) (func(), error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.lockWait > 0 {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
		defer cancel()
		return s.locker.AcquireOrdered(lockCtx, first, second)
	}
	return s.locker.AcquireOrdered(ctx, first, second)
}

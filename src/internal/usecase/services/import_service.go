package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/snapshot"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

// ImportService replays a legacy flat-file ledger into the relational
// store. It is idempotent: users and accounts that already exist are
// skipped, and only the history entries missing from the log are appended.
// Account rows are created with the snapshot's own creation time, not the
// import-run time.
type ImportService struct {
	accountRepo repo_interfaces.AccountRepository
	userRepo    repo_interfaces.UserRepository
	reconciler  service_interfaces.ReconciliationService
	store       *snapshot.Store
}

func NewImportService(
	accountRepo repo_interfaces.AccountRepository,
	userRepo repo_interfaces.UserRepository,
	reconciler service_interfaces.ReconciliationService,
	store *snapshot.Store,
) *ImportService {
	return &ImportService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		reconciler:  reconciler,
		store:       store,
	}
}

type ImportSummary struct {
	UsersImported    int
	AccountsImported int
	EntriesAppended  int
}

func (s *ImportService) Run(ctx context.Context) (ImportSummary, error) {
	var summary ImportSummary

	usersImported, err := s.importUsers(ctx)
	if err != nil {
		return summary, err
	}
	summary.UsersImported = usersImported

	accountsImported, entriesAppended, err := s.importAccounts(ctx)
	if err != nil {
		return summary, err
	}
	summary.AccountsImported = accountsImported
	summary.EntriesAppended = entriesAppended

	logger.Info("legacy import completed", logger.Fields{
		"usersImported":    summary.UsersImported,
		"accountsImported": summary.AccountsImported,
		"entriesAppended":  summary.EntriesAppended,
	})

	return summary, nil
}

func (s *ImportService) importUsers(ctx context.Context) (int, error) {
	records, err := s.store.LoadUsers()
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, username := range sortedKeys(records) {
		record := records[username]

		if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrRecordNotFound) {
			return imported, err
		}

		role := domain.Role(strings.ToUpper(strings.TrimSpace(record.Role)))
		if !role.Valid() {
			role = domain.RoleNormal
		}

		if _, err := s.userRepo.Create(ctx, domain.User{
			Username:     username,
			PasswordHash: record.PasswordHash,
			Role:         role,
		}); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (s *ImportService) importAccounts(ctx context.Context) (int, int, error) {
	records, err := s.store.LoadAccounts()
	if err != nil {
		return 0, 0, err
	}

	accountsImported := 0
	entriesAppended := 0
	for _, cardNumber := range sortedKeys(records) {
		account, err := records[cardNumber].ToDomain()
		if err != nil {
			return accountsImported, entriesAppended, err
		}

		exists, err := s.accountRepo.ExistsByCardNumber(ctx, cardNumber)
		if err != nil {
			return accountsImported, entriesAppended, err
		}
		if !exists {
			// The row is created bare, carrying the legacy creation
			// time; the history flows through the reconciler so re-runs
			// append only what is missing.
			bare := account
			bare.History = nil
			if _, err := s.accountRepo.Create(ctx, bare); err != nil {
				return accountsImported, entriesAppended, err
			}
			accountsImported++
		}

		appended, err := s.reconciler.Sync(ctx, cardNumber, account.History)
		if err != nil {
			return accountsImported, entriesAppended, err
		}
		entriesAppended += appended

		if _, err := s.accountRepo.Save(ctx, account, nil); err != nil {
			return accountsImported, entriesAppended, err
		}
	}
	return accountsImported, entriesAppended, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

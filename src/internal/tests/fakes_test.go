package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
)

// memStore is an in-memory stand-in for all three repositories. It mirrors
// the relational store's behavior where the services depend on it: unique
// violations surface as pq errors, loads return the account with its full
// log, and Save/SavePair apply row and entries together or not at all.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	entries  map[string][]domain.TransactionEntry
	users    map[string]domain.User
	nextID   int64

	saveErr     error
	savePairErr error
	createErr   error
}

// AccountRepository.Create and UserRepository.Create share a name, so the
// two repository views are thin wrappers over the one store.
type memAccountRepo struct{ *memStore }

type memUserRepo struct{ *memStore }

var _ repo_interfaces.AccountRepository = memAccountRepo{}
var _ repo_interfaces.TransactionRepository = (*memStore)(nil)
var _ repo_interfaces.UserRepository = memUserRepo{}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]domain.Account),
		entries:  make(map[string][]domain.TransactionEntry),
		users:    make(map[string]domain.User),
	}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

func (r memAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return domain.Account{}, s.createErr
	}
	if _, ok := s.accounts[account.CardNumber]; ok {
		return domain.Account{}, fmt.Errorf("create account: %w", uniqueViolation())
	}

	// Like the store's COALESCE: a caller-supplied creation time is kept,
	// otherwise the row gets the insert time.
	if account.CreatedAt.IsZero() {
		now := time.Now().UTC()
		account.CreatedAt = now
		account.UpdatedAt = now
	}

	history := account.History
	account.History = nil
	s.accounts[account.CardNumber] = account
	s.appendLocked(account.CardNumber, history)

	return s.loadLocked(account.CardNumber), nil
}

func (s *memStore) GetByCardNumber(ctx context.Context, cardNumber string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[cardNumber]; !ok {
		return domain.Account{}, fmt.Errorf("get account %s: %w", cardNumber, domain.ErrRecordNotFound)
	}
	return s.loadLocked(cardNumber), nil
}

func (s *memStore) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.accounts[cardNumber]
	return ok, nil
}

func (s *memStore) ListByUsername(ctx context.Context, username string) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []domain.Account
	for cardNumber, account := range s.accounts {
		if account.Username == username {
			accounts = append(accounts, s.loadLocked(cardNumber))
		}
	}
	return accounts, nil
}

func (s *memStore) Save(ctx context.Context, account domain.Account, newEntries []domain.TransactionEntry) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return domain.Account{}, s.saveErr
	}
	if _, ok := s.accounts[account.CardNumber]; !ok {
		return domain.Account{}, fmt.Errorf("save account %s: %w", account.CardNumber, domain.ErrRecordNotFound)
	}

	s.saveLocked(account, newEntries)
	return s.loadLocked(account.CardNumber), nil
}

func (s *memStore) SavePair(ctx context.Context, debit domain.Account, debitEntries []domain.TransactionEntry, credit domain.Account, creditEntries []domain.TransactionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.savePairErr != nil {
		return s.savePairErr
	}
	for _, account := range []domain.Account{debit, credit} {
		if _, ok := s.accounts[account.CardNumber]; !ok {
			return fmt.Errorf("save account %s: %w", account.CardNumber, domain.ErrRecordNotFound)
		}
	}

	s.saveLocked(debit, debitEntries)
	s.saveLocked(credit, creditEntries)
	return nil
}

func (s *memStore) Append(ctx context.Context, entry domain.TransactionEntry) (domain.TransactionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(entry.CardNumber, []domain.TransactionEntry{entry})
	log := s.entries[entry.CardNumber]
	return log[len(log)-1], nil
}

func (s *memStore) ListByCardNumber(ctx context.Context, cardNumber string) ([]domain.TransactionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.entries[cardNumber]
	out := make([]domain.TransactionEntry, len(log))
	copy(out, log)
	return out, nil
}

func (s *memStore) CountByCardNumber(ctx context.Context, cardNumber string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries[cardNumber]), nil
}

func (r memUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return domain.User{}, fmt.Errorf("create user: %w", uniqueViolation())
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.Username] = user
	return user, nil
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("get user %s: %w", username, domain.ErrRecordNotFound)
	}
	return user, nil
}

func (s *memStore) saveLocked(account domain.Account, newEntries []domain.TransactionEntry) {
	stored := account
	stored.History = nil
	s.accounts[account.CardNumber] = stored
	s.appendLocked(account.CardNumber, newEntries)
}

func (s *memStore) appendLocked(cardNumber string, entries []domain.TransactionEntry) {
	for _, entry := range entries {
		s.nextID++
		entry.ID = s.nextID
		entry.CardNumber = cardNumber
		s.entries[cardNumber] = append(s.entries[cardNumber], entry)
	}
}

func (s *memStore) loadLocked(cardNumber string) domain.Account {
	account := s.accounts[cardNumber]
	log := s.entries[cardNumber]
	account.History = make([]domain.TransactionEntry, len(log))
	copy(account.History, log)
	return account
}

func (s *memStore) entryCount(cardNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries[cardNumber])
}

type fixture struct {
	store      *memStore
	locker     *services.AccountLocker
	reconciler *services.ReconciliationService
	accounts   *services.AccountService
	transfers  *services.TransferService
	users      *services.UserService
}

func newFixture() *fixture {
	store := newMemStore()
	locker := services.NewAccountLocker()
	reconciler := services.NewReconciliationService(store)

	accountRepo := memAccountRepo{store}
	userRepo := memUserRepo{store}

	return &fixture{
		store:      store,
		locker:     locker,
		reconciler: reconciler,
		accounts:   services.NewAccountService(accountRepo, store, userRepo, reconciler, locker, 2*time.Second),
		transfers:  services.NewTransferService(accountRepo, userRepo, reconciler, locker, 2*time.Second),
		users:      services.NewUserService(userRepo),
	}
}

func (f *fixture) seedUser(username string, role domain.Role) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	now := time.Now().UTC()
	f.store.users[username] = domain.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (f *fixture) mustOpenAccount(t *testing.T, username string, initialDeposit string) string {
	t.Helper()

	resp, err := f.accounts.OpenAccount(context.Background(), models.OpenAccountRequest{
		Username:       username,
		InitialDeposit: initialDeposit,
	})
	if err != nil {
		t.Fatalf("open account for %s: %v", username, err)
	}
	return resp.Data.CardNumber
}

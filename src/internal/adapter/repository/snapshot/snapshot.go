// Package snapshot reads and writes the legacy flat-file representation of
// the ledger: one JSON object per file, keyed by card number (accounts) or
// username (users), with each account carrying its embedded transaction
// history in chronological order. It exists for import/migration of legacy
// deployments; the relational log is the source of truth afterwards.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

type AccountRecord struct {
	CardNumber         string          `json:"card_number"`
	Username           string          `json:"username"`
	Balance            decimal.Decimal `json:"balance"`
	Status             string          `json:"status"`
	CreatedAt          string          `json:"created_at"`
	TransactionHistory []EntryRecord   `json:"transaction_history"`
}

type EntryRecord struct {
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Time         string          `json:"time"`
	Description  string          `json:"description,omitempty"`
}

type UserRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// LoadAccounts returns the accounts file as a map keyed by card number. A
// missing file is an empty ledger, matching the legacy system.
func (s *Store) LoadAccounts() (map[string]AccountRecord, error) {
	accounts := map[string]AccountRecord{}
	if err := s.loadJSON("accounts.json", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) SaveAccounts(accounts map[string]AccountRecord) error {
	return s.saveJSON("accounts.json", accounts)
}

func (s *Store) LoadUsers() (map[string]UserRecord, error) {
	users := map[string]UserRecord{}
	if err := s.loadJSON("users.json", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) SaveUsers(users map[string]UserRecord) error {
	return s.saveJSON("users.json", users)
}

func (s *Store) loadJSON(name string, out any) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open snapshot file %q: %w", name, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("decode snapshot file %q: %w", name, err)
	}
	return nil
}

// saveJSON writes to a temp file and renames it over the target, so a crash
// mid-write never leaves a corrupt snapshot behind.
func (s *Store) saveJSON(name string, in any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(in); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode snapshot file %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot file %q: %w", name, err)
	}
	return nil
}

func (r AccountRecord) ToDomain() (domain.Account, error) {
	status, err := parseStatus(r.Status)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: %w", r.CardNumber, err)
	}

	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: %w", r.CardNumber, err)
	}

	history := make([]domain.TransactionEntry, 0, len(r.TransactionHistory))
	for _, record := range r.TransactionHistory {
		entryType, err := parseTransactionType(record.Type)
		if err != nil {
			return domain.Account{}, fmt.Errorf("account %s: %w", r.CardNumber, err)
		}
		entryTime, err := parseTime(record.Time)
		if err != nil {
			return domain.Account{}, fmt.Errorf("account %s: %w", r.CardNumber, err)
		}
		history = append(history, domain.TransactionEntry{
			CardNumber:      r.CardNumber,
			Type:            entryType,
			Amount:          record.Amount,
			BalanceAfter:    record.BalanceAfter,
			Description:     record.Description,
			TransactionTime: entryTime,
		})
	}

	return domain.Account{
		CardNumber: r.CardNumber,
		Username:   r.Username,
		Balance:    r.Balance,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		History:    history,
	}, nil
}

func FromDomain(account domain.Account) AccountRecord {
	history := make([]EntryRecord, 0, len(account.History))
	for _, entry := range account.History {
		history = append(history, EntryRecord{
			Type:         strings.ToLower(string(entry.Type)),
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			Time:         entry.TransactionTime.Format(timeLayout),
			Description:  entry.Description,
		})
	}

	return AccountRecord{
		CardNumber:         account.CardNumber,
		Username:           account.Username,
		Balance:            account.Balance,
		Status:             strings.ToLower(string(account.Status)),
		CreatedAt:          account.CreatedAt.Format(timeLayout),
		TransactionHistory: history,
	}
}

func parseStatus(raw string) (domain.AccountStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NORMAL", "":
		return domain.AccountStatusNormal, nil
	case "FROZEN":
		return domain.AccountStatusFrozen, nil
	case "LOST":
		return domain.AccountStatusLost, nil
	case "CLOSED":
		return domain.AccountStatusClosed, nil
	default:
		return "", fmt.Errorf("unknown account status %q", raw)
	}
}

func parseTransactionType(raw string) (domain.TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEPOSIT":
		return domain.TransactionTypeDeposit, nil
	case "WITHDRAWAL", "WITHDRAW":
		return domain.TransactionTypeWithdrawal, nil
	case "FREEZE":
		return domain.TransactionTypeFreeze, nil
	case "UNFREEZE":
		return domain.TransactionTypeUnfreeze, nil
	case "REPORT_LOSS":
		return domain.TransactionTypeReportLoss, nil
	case "CANCEL_LOSS":
		return domain.TransactionTypeCancelLoss, nil
	case "CLOSE":
		return domain.TransactionTypeClose, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", raw)
	}
}

// parseTime rejects malformed timestamps instead of degrading them to the
// zero time; a missing timestamp is allowed, matching parseStatus's
// treatment of absent fields.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown time format %q", raw)
	}
	return parsed, nil
}

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/snapshot"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
)

const legacyCard = "6200000000000001"

func newImporter(t *testing.T, f *fixture, dir string) *services.ImportService {
	t.Helper()
	return services.NewImportService(memAccountRepo{f.store}, memUserRepo{f.store}, f.reconciler, snapshot.NewStore(dir))
}

func writeLegacySnapshot(t *testing.T, dir string) {
	t.Helper()
	store := snapshot.NewStore(dir)

	if err := store.SaveUsers(map[string]snapshot.UserRecord{
		"alice": {Username: "alice", PasswordHash: "legacy-hash", Role: "vip"},
	}); err != nil {
		t.Fatalf("save users snapshot: %v", err)
	}

	if err := store.SaveAccounts(map[string]snapshot.AccountRecord{
		legacyCard: {
			CardNumber: legacyCard,
			Username:   "alice",
			Balance:    decimal.NewFromInt(70),
			Status:     "normal",
			CreatedAt:  "2023-05-01 08:00:00",
			TransactionHistory: []snapshot.EntryRecord{
				{Type: "deposit", Amount: decimal.NewFromInt(100), BalanceAfter: decimal.NewFromInt(100), Time: "2023-05-01 08:00:00"},
				{Type: "withdrawal", Amount: decimal.NewFromInt(30), BalanceAfter: decimal.NewFromInt(70), Time: "2023-05-02 12:00:00"},
			},
		},
	}); err != nil {
		t.Fatalf("save accounts snapshot: %v", err)
	}
}

func TestImportServicePreservesLegacyCreationTime(t *testing.T) {
	dir := t.TempDir()
	writeLegacySnapshot(t, dir)
	f := newFixture()

	summary, err := newImporter(t, f, dir).Run(context.Background())
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if summary.UsersImported != 1 || summary.AccountsImported != 1 || summary.EntriesAppended != 2 {
		t.Fatalf("unexpected import summary: %+v", summary)
	}

	account, err := memAccountRepo{f.store}.GetByCardNumber(context.Background(), legacyCard)
	if err != nil {
		t.Fatalf("get imported account: %v", err)
	}

	wantCreated := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	if !account.CreatedAt.Equal(wantCreated) {
		t.Fatalf("expected legacy creation time %v to survive the import, got %v", wantCreated, account.CreatedAt)
	}
	if !account.Balance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected imported balance 70, got %s", account.Balance)
	}
	if len(account.History) != 2 {
		t.Fatalf("expected 2 imported entries, got %d", len(account.History))
	}

	user, err := memUserRepo{f.store}.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get imported user: %v", err)
	}
	if user.Role != domain.RoleVIP || user.PasswordHash != "legacy-hash" {
		t.Fatalf("unexpected imported user: %+v", user)
	}
}

func TestImportServiceRerunImportsNothing(t *testing.T) {
	dir := t.TempDir()
	writeLegacySnapshot(t, dir)
	f := newFixture()
	importer := newImporter(t, f, dir)

	if _, err := importer.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := importer.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.UsersImported != 0 || summary.AccountsImported != 0 || summary.EntriesAppended != 0 {
		t.Fatalf("expected re-run to import nothing, got %+v", summary)
	}
	if got := f.store.entryCount(legacyCard); got != 2 {
		t.Fatalf("expected 2 log entries after re-run, got %d", got)
	}
}

func TestImportServiceUnknownRoleDefaultsToNormal(t *testing.T) {
	dir := t.TempDir()
	store := snapshot.NewStore(dir)
	if err := store.SaveUsers(map[string]snapshot.UserRecord{
		"bob": {Username: "bob", PasswordHash: "hash", Role: "wizard"},
	}); err != nil {
		t.Fatalf("save users snapshot: %v", err)
	}
	f := newFixture()

	if _, err := newImporter(t, f, dir).Run(context.Background()); err != nil {
		t.Fatalf("run import: %v", err)
	}

	user, err := memUserRepo{f.store}.GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("get imported user: %v", err)
	}
	if user.Role != domain.RoleNormal {
		t.Fatalf("expected unknown role to default to NORMAL, got %s", user.Role)
	}
}

func TestImportServiceEmptyDataDir(t *testing.T) {
	f := newFixture()

	summary, err := newImporter(t, f, t.TempDir()).Run(context.Background())
	if err != nil {
		t.Fatalf("run import on empty dir: %v", err)
	}
	if summary != (services.ImportSummary{}) {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
